package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// malformedAndroidUAs are user agent strings no real Android build emits:
// impossible versions, truncated product tokens and contradictory platforms.
var malformedAndroidUAs = []string{
	"Mozilla/5.0 (Linux; Android 99.1; SM-G973F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/999.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android -3; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile",
	"Mozilla/5.0 (Linux; Android 4.4.4.4.4; ) AppleWebKit (KHTML, like Gecko)",
	"Mozilla/5.0 (Windows NT 10.0; Android 13; Win64) YelpApp/0.0",
}

// InvalidAndroidVersionTest clicks the business CTA under malformed Android
// user agent strings. UA validation is the signal under test: every click
// must be filtered and non-billable.
type InvalidAndroidVersionTest struct{}

func (InvalidAndroidVersionTest) Name() string { return "InvalidAndroidVersionTest" }

func (InvalidAndroidVersionTest) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	for i, ua := range malformedAndroidUAs {
		ua := ua

		profile := model.EnvironmentProfile{
			Name:      fmt.Sprintf("invalid-android-%d", i+1),
			UserAgent: ua,
		}

		err := sc.Env.Scoped(ctx, profile, func(ctx context.Context) error {
			if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
				return err
			}

			if err := sc.dwell(ctx, sc.randBetween(400*time.Millisecond, 1200*time.Millisecond)); err != nil {
				return err
			}

			if err := sc.clickBusinessCTA(ctx); err != nil {
				return err
			}

			sc.logClick(ctx, model.ClickEvent{
				Screen:              ScreenBizDetails,
				URL:                 bizURL,
				UserAgent:           ua,
				FilterTriggered:     true,
				BillableClick:       false,
				BillableClickReason: "invalid_user_agent",
			})

			sc.addResult(ctx, model.TestResult{
				Action:          fmt.Sprintf("invalid_ua_click_%d", i+1),
				Success:         true,
				Details:         "user agent " + ua,
				FilterTriggered: boolp(true),
				ClickRecorded:   boolp(false),
			})

			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
