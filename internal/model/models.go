// The `model` package is very atypical for projects written in go, but unfortunately
// cannot be avoided as it helps to avoid cyclic dependencies. Types required by a library
// user such as `BehavioralConfig` are reexported by the fraudsim package.
package model

import (
	"strings"
	"time"
)

type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

// TestSession is one simulated visitor driving a browser context through a
// selection of behavior scenarios. It is created on a run request and only
// ever mutated by appending results and advancing its status.
type TestSession struct {
	// ID is the identifier of the session run.
	ID string `json:"id"`
	// GUV is the opaque visitor identifier correlating all simulated
	// actions of this session in the target's analytics.
	GUV string `json:"guv"`
	// Business is the target business descriptor the scenarios run against.
	Business string `json:"business"`
	// Scenarios are the selected scenario names, in execution order.
	Scenarios []string `json:"scenarios"`
	// Status is pending until the run starts and terminal on
	// completed/failed.
	Status SessionStatus `json:"status"`
	// TriggeredBy denotes the origin of the session run, e.g. scheduled or via http call.
	TriggeredBy string `json:"triggeredBy"`
	// Start is the time when the session first started executing.
	Start time.Time `json:"start"`
	// End is the time when the session finished executing.
	End time.Time `json:"end"`
	// Error holds the first unrecovered scenario error if the session failed.
	Error string `json:"error,omitempty"`
	// Results is the ordered list of test results appended so far. The
	// order is significant, e.g. for auditing session pollution escalation.
	Results []TestResult `json:"results"`
}

func (s TestSession) Copy() TestSession {
	c := s
	c.Scenarios = append([]string{}, s.Scenarios...)
	c.Results = append([]TestResult{}, s.Results...)
	return c
}

func (s TestSession) Finished() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// ResultsByScenario returns the session's results for one scenario,
// preserving execution order.
func (s TestSession) ResultsByScenario(name string) []TestResult {
	results := []TestResult{}

	for _, r := range s.Results {
		if r.Scenario == name {
			results = append(results, r)
		}
	}

	return results
}

// TestResult is a single labeled outcome of a scenario action. Immutable once
// appended; corrections are compensating appends.
type TestResult struct {
	SessionID string `json:"sessionId"`
	// Scenario is the name of the scenario that produced the result.
	Scenario string `json:"scenario"`
	// Action labels the simulated action, e.g. "js_disabled_click".
	Action string `json:"action"`
	// Success reports whether the action itself completed.
	Success bool `json:"success"`
	// Details is free text for reproduction.
	Details string `json:"details"`
	// FilterTriggered is the expected filter decision for the action, if one
	// is asserted.
	FilterTriggered *bool `json:"filterTriggered,omitempty"`
	// ClickRecorded reports whether the target is expected to have counted
	// the click, if one was issued.
	ClickRecorded *bool     `json:"clickRecorded,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentTest       Environment = "test"
)

// ClickEvent mirrors the target's ad-event record for one simulated click,
// carrying the oracle labels the filter pipeline is expected to produce.
type ClickEvent struct {
	SessionID  string `json:"sessionId"`
	GUV        string `json:"guv"`
	BusinessID string `json:"businessId"`
	// ClickedAt is the click timestamp.
	ClickedAt time.Time `json:"clickedAt"`
	// Screen is the logical page identifier, e.g. "biz_details".
	Screen      string      `json:"screen"`
	URL         string      `json:"url"`
	IP          string      `json:"ip"`
	UserAgent   string      `json:"userAgent"`
	Environment Environment `json:"environment"`
	// FilterTriggered is the expected filter decision.
	FilterTriggered bool `json:"filterTriggered"`
	// BillableClick is true when the click is expected to be charged to the
	// advertiser rather than filtered as invalid.
	BillableClick bool `json:"billableClick"`
	// BillableClickReason is a free-text classifier for the expected decision.
	BillableClickReason string `json:"billableClickReason"`
	// Scenario tags the behavior pattern that produced the click.
	Scenario string `json:"scenario"`
}

// ScreenTransition records one navigation between logical screens and the
// dwell duration on the origin screen. Transitions feed dwell-time statistics.
type ScreenTransition struct {
	SessionID   string      `json:"sessionId"`
	GUV         string      `json:"guv"`
	FromScreen  string      `json:"fromScreen"`
	ToScreen    string      `json:"toScreen"`
	DurationMS  int64       `json:"durationMs"`
	URL         string      `json:"url"`
	Servlet     string      `json:"servlet"`
	IP          string      `json:"ip"`
	UserAgent   string      `json:"userAgent"`
	Environment Environment `json:"environment"`
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is a free-text audit line correlated to a session.
type LogEntry struct {
	SessionID string    `json:"sessionId"`
	Scenario  string    `json:"scenario,omitempty"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NetworkConditions is a throttle preset. Zero throughput with Offline set
// emulates connectivity loss.
type NetworkConditions struct {
	Offline bool `json:"offline"`
	// LatencyMS is the minimum added round trip latency.
	LatencyMS float64 `json:"latencyMs"`
	// DownloadBps and UploadBps are maximal throughputs in bytes/second.
	DownloadBps float64 `json:"downloadBps"`
	UploadBps   float64 `json:"uploadBps"`
}

// EnvironmentProfile is a transient fingerprint mutation: spoofed headers
// and/or user agent, an optional throttle preset and a script toggle. Any
// applied profile must be fully reverted before the applying scenario returns.
type EnvironmentProfile struct {
	Name      string             `json:"name"`
	Headers   map[string]string  `json:"headers,omitempty"`
	UserAgent string             `json:"userAgent,omitempty"`
	Network   *NetworkConditions `json:"network,omitempty"`
	DisableJS bool               `json:"disableJs,omitempty"`
}

// DwellTimeStatistics are descriptive statistics over an ordered dwell
// duration sequence, millisecond-rounded. Stateless, recomputed per run.
type DwellTimeStatistics struct {
	MeanMS   int64 `json:"meanMs"`
	StdDevMS int64 `json:"stdDevMs"`
	MinMS    int64 `json:"minMs"`
	MaxMS    int64 `json:"maxMs"`
}

// EnvironmentDescriptor carries the target's base URLs. The values are
// treated as opaque strings.
type EnvironmentDescriptor struct {
	WebBaseURL     string `json:"webBaseUrl"`
	MobileBaseURL  string `json:"mobileBaseUrl"`
	AppBaseURL     string `json:"appBaseUrl"`
	APIBaseURL     string `json:"apiBaseUrl"`
	SearchBaseURL  string `json:"searchBaseUrl"`
	GraphQLBaseURL string `json:"graphqlBaseUrl"`
	AdEventBaseURL string `json:"adEventBaseUrl"`
}

// DeviceOverride switches the simulated client to a specific device
// fingerprint for the duration of a session.
type DeviceOverride struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Mobile    bool   `json:"mobile"`
	Touch     bool   `json:"touch"`
	UserAgent string `json:"userAgent,omitempty"`
}

// BehavioralConfig parameterizes a session's scenarios.
type BehavioralConfig struct {
	// Business is the target business descriptor.
	Business string `json:"business"`
	// BaseUserAgent is the baseline fingerprint the orchestrator re-asserts
	// between scenarios.
	BaseUserAgent string `json:"baseUserAgent"`
	Headless      bool   `json:"headless"`
	// Device optionally overrides viewport/UA for the whole session.
	Device *DeviceOverride `json:"device,omitempty"`
	// Network optionally applies a throttle preset for the whole session.
	Network *NetworkConditions    `json:"network,omitempty"`
	Env     EnvironmentDescriptor `json:"env"`
}

// SessionRequest is the operator request starting a session run. An empty
// scenario selection runs every registered scenario.
type SessionRequest struct {
	Business    string   `json:"business"`
	Scenarios   []string `json:"scenarios,omitempty"`
	TriggeredBy string   `json:"triggeredBy,omitempty"`
}

// BusinessSlug derives a deterministic URL slug from a business descriptor.
// Determinism is required for run-to-run comparability of fallback URLs.
func BusinessSlug(business string) string {
	slug := strings.ToLower(strings.TrimSpace(business))
	slug = strings.Join(strings.Fields(slug), "-")

	clean := make([]rune, 0, len(slug))
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			clean = append(clean, r)
		}
	}

	return string(clean)
}
