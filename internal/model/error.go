package model

import (
	"fmt"
	"strings"
	"time"
)

type NotFoundError struct{}

func (e NotFoundError) Error() string {
	return "not found"
}

type MalformedRequestError struct {
	Param string
}

func (e MalformedRequestError) Error() string {
	return "malformed request param: " + e.Param
}

// UnknownScenarioError is returned on a registry miss. Immediately fatal for
// the session.
type UnknownScenarioError struct {
	Name string
}

func (e UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario %q", e.Name)
}

// ScenarioExecutionError wraps the first unrecovered error of a scenario
// run. LastAction is the label of the last successfully completed action,
// included so a failure can be reproduced from the session's result trail.
type ScenarioExecutionError struct {
	Scenario   string
	LastAction string
	Err        error
}

func (e ScenarioExecutionError) Error() string {
	if e.LastAction == "" {
		return fmt.Sprintf("scenario %q failed: %v", e.Scenario, e.Err)
	}

	return fmt.Sprintf("scenario %q failed after action %q: %v", e.Scenario, e.LastAction, e.Err)
}

func (e ScenarioExecutionError) Unwrap() error {
	return e.Err
}

// ActionTimeoutError means a single browser action exceeded its budget.
// Scenarios may treat it as "element absent" and continue via a fallback.
type ActionTimeoutError struct {
	Action  string
	Timeout time.Duration
}

func (e ActionTimeoutError) Error() string {
	return fmt.Sprintf("action %q timed out after %s", e.Action, e.Timeout)
}

// ElementNotFoundError means all fallback selectors were exhausted.
type ElementNotFoundError struct {
	Selectors []string
}

func (e ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element matched %s", strings.Join(e.Selectors, ", "))
}

// EnvironmentRestoreError means a scenario could not undo its own fingerprint
// mutation. The restore is retried once before this surfaces; the original
// triggering error is joined alongside, never swallowed.
type EnvironmentRestoreError struct {
	Profile string
	Err     error
}

func (e EnvironmentRestoreError) Error() string {
	return fmt.Sprintf("restoring environment after profile %q: %v", e.Profile, e.Err)
}

func (e EnvironmentRestoreError) Unwrap() error {
	return e.Err
}

// TelemetryWriteError means the telemetry sink is unavailable. It is logged
// at warn level and never propagated to scenario control flow.
type TelemetryWriteError struct {
	Kind string
	Err  error
}

func (e TelemetryWriteError) Error() string {
	return fmt.Sprintf("writing %s record: %v", e.Kind, e.Err)
}

func (e TelemetryWriteError) Unwrap() error {
	return e.Err
}
