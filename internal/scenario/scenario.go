// Package scenario contains the closed set of behavior-simulation strategies
// that drive a browser through scripted interaction sequences against the
// target. Each strategy labels every simulated action with the filter
// decision the target's traffic-quality pipeline is expected to make, so a
// session run doubles as a labeled regression corpus for the filter.
package scenario

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/emulator"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/telemetry"
)

// Scenario is one named behavior strategy. Implementations must revert any
// fingerprint mutation they apply before returning, on success or failure.
type Scenario interface {
	Name() string
	Execute(ctx context.Context, sc *Context) error
}

// Context carries a scenario's collaborators, all constructor-injected so
// tests can substitute fakes. One Context lives for one scenario execution.
type Context struct {
	Session   *model.TestSession
	Config    model.BehavioralConfig
	Driver    driver.Driver
	Env       *emulator.Emulator
	Telemetry *telemetry.Recorder
	// Rand is the injectable random source; pin the seed for deterministic
	// runs.
	Rand *rand.Rand
	Log  *slog.Logger

	// Scenario is the name of the currently executing strategy, set by the
	// orchestrator.
	Scenario string

	lastAction string
}

// LastAction is the label of the last successfully completed action, included
// in failure reports for reproduction.
func (sc *Context) LastAction() string {
	return sc.lastAction
}

func (sc *Context) addResult(ctx context.Context, tr model.TestResult) {
	tr.SessionID = sc.Session.ID
	tr.Scenario = sc.Scenario
	if tr.Timestamp.IsZero() {
		tr.Timestamp = time.Now()
	}

	if tr.Success {
		sc.lastAction = tr.Action
	}

	sc.Telemetry.AddTestResult(ctx, tr)
}

func (sc *Context) addLog(ctx context.Context, level model.LogLevel, message string) {
	sc.Telemetry.AddLog(ctx, model.LogEntry{
		SessionID: sc.Session.ID,
		Scenario:  sc.Scenario,
		Level:     level,
		Message:   message,
	})
}

func (sc *Context) logClick(ctx context.Context, ce model.ClickEvent) {
	ce.SessionID = sc.Session.ID
	ce.GUV = sc.Session.GUV
	ce.Scenario = sc.Scenario
	if ce.BusinessID == "" {
		ce.BusinessID = model.BusinessSlug(sc.Config.Business)
	}
	if ce.UserAgent == "" {
		ce.UserAgent = sc.Config.BaseUserAgent
	}
	if ce.Environment == "" {
		ce.Environment = model.EnvironmentTest
	}

	sc.Telemetry.LogClickEvent(ctx, ce)
}

func (sc *Context) logTransition(ctx context.Context, from, to string, dwell time.Duration, url string) {
	sc.Telemetry.LogScreenTransition(ctx, model.ScreenTransition{
		SessionID:   sc.Session.ID,
		GUV:         sc.Session.GUV,
		FromScreen:  from,
		ToScreen:    to,
		DurationMS:  dwell.Milliseconds(),
		URL:         url,
		Servlet:     to,
		UserAgent:   sc.Config.BaseUserAgent,
		Environment: model.EnvironmentTest,
	})
}

// dwell suspends on the simulated page for d, producing the timing signal the
// filter observes.
func (sc *Context) dwell(ctx context.Context, d time.Duration) error {
	return sc.Driver.Wait(ctx, d)
}

// randBetween samples uniformly from [lo, hi].
func (sc *Context) randBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}

	return lo + time.Duration(sc.Rand.Int63n(int64(hi-lo)+1))
}

func boolp(b bool) *bool {
	return &b
}
