package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

const (
	pollutionLegitClicks   = 5
	pollutionTaintedClicks = 3
	pollutionRapidBurst    = 8
	pollutionRapidCadence  = 80 * time.Millisecond
)

// SessionPollution is the session-level aggregation probe. Phase 1 issues
// five legitimate clicks with organic dwell, phase 2 injects one randomly
// chosen invalid behavior, phase 3 issues three more clicks that look exactly
// like phase 1. The defining assertion: phase-3 clicks are expected to be
// non-billable anyway, because the filter judges the whole session once it
// has been polluted, not each click in isolation.
type SessionPollution struct{}

func (SessionPollution) Name() string { return "SessionPollution" }

func (SessionPollution) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	// phase 1: clean behavior establishing a legitimate-looking session
	for i := 1; i <= pollutionLegitClicks; i++ {
		if err := sc.pollutionClick(ctx, bizURL, fmt.Sprintf("phase1_click_%d", i),
			sc.randBetween(2*time.Second, 5*time.Second), false, "organic_session"); err != nil {
			return err
		}
	}

	// phase 2: one invalid behavior taints the session
	if err := sc.injectInvalidBehavior(ctx, bizURL); err != nil {
		return err
	}

	// phase 3: legitimate-looking clicks that must stay non-billable
	for i := 1; i <= pollutionTaintedClicks; i++ {
		if err := sc.pollutionClick(ctx, bizURL, fmt.Sprintf("phase3_click_%d", i),
			sc.randBetween(3*time.Second, 7*time.Second), true, "session_polluted"); err != nil {
			return err
		}
	}

	return nil
}

func (sc *Context) pollutionClick(ctx context.Context, bizURL, action string, dwell time.Duration, tainted bool, reason string) error {
	if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
		return err
	}

	if err := sc.dwell(ctx, dwell); err != nil {
		return err
	}

	if err := sc.clickBusinessCTA(ctx); err != nil {
		return err
	}

	sc.logTransition(ctx, ScreenSearchResults, ScreenBizDetails, dwell, bizURL)

	sc.logClick(ctx, model.ClickEvent{
		Screen:              ScreenBizDetails,
		URL:                 bizURL,
		FilterTriggered:     tainted,
		BillableClick:       !tainted,
		BillableClickReason: reason,
	})

	sc.addResult(ctx, model.TestResult{
		Action:          action,
		Success:         true,
		Details:         fmt.Sprintf("dwell %dms", dwell.Milliseconds()),
		FilterTriggered: boolp(tainted),
		ClickRecorded:   boolp(!tainted),
	})

	return nil
}

// injectInvalidBehavior performs one randomly chosen abusive pattern. The
// choice comes from the injected random source so runs can be pinned.
func (sc *Context) injectInvalidBehavior(ctx context.Context, bizURL string) error {
	behaviors := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{"rapid_clicks", func(ctx context.Context) error {
			for i := 0; i < pollutionRapidBurst; i++ {
				if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
					return err
				}
				if err := sc.dwell(ctx, pollutionRapidCadence); err != nil {
					return err
				}
				if err := sc.clickBusinessCTA(ctx); err != nil {
					return err
				}
			}
			return nil
		}},
		{"internal_ip", func(ctx context.Context) error {
			profile := model.EnvironmentProfile{
				Name:    "pollution-internal-ip",
				Headers: map[string]string{"X-Forwarded-For": "10.0.0.99"},
			}
			return sc.Env.Scoped(ctx, profile, func(ctx context.Context) error {
				if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
					return err
				}
				return sc.clickBusinessCTA(ctx)
			})
		}},
		{"invalid_user_agent", func(ctx context.Context) error {
			profile := model.EnvironmentProfile{
				Name:      "pollution-invalid-ua",
				UserAgent: malformedAndroidUAs[0],
			}
			return sc.Env.Scoped(ctx, profile, func(ctx context.Context) error {
				if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
					return err
				}
				return sc.clickBusinessCTA(ctx)
			})
		}},
	}

	chosen := behaviors[sc.Rand.Intn(len(behaviors))]

	sc.addLog(ctx, model.LogLevelInfo, "phase 2: injecting invalid behavior "+chosen.name)

	if err := chosen.run(ctx); err != nil {
		return err
	}

	sc.addResult(ctx, model.TestResult{
		Action:          "phase2_" + chosen.name,
		Success:         true,
		Details:         "session tainted by " + chosen.name,
		FilterTriggered: boolp(true),
	})

	return nil
}
