package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

const (
	fastClickCycles    = 10
	fastClickFlagAfter = 7
	fastClickCadence   = 100 * time.Millisecond
)

// FastClickRate runs 10 navigate+click cycles at a fixed 100ms cadence. The
// click-rate ceiling is the signal under test: clicks 1–7 are expected to be
// recorded, clicks past #7 filtered.
type FastClickRate struct{}

func (FastClickRate) Name() string { return "FastClickRate" }

func (FastClickRate) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	for cycle := 0; cycle < fastClickCycles; cycle++ {
		if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
			return err
		}

		if err := sc.dwell(ctx, fastClickCadence); err != nil {
			return err
		}

		// without a CTA there is no click rate to measure, so an absent
		// selector is scenario-fatal here
		if err := sc.clickBusinessCTA(ctx); err != nil {
			return err
		}

		flagged := cycle >= fastClickFlagAfter

		reason := "within_click_rate"
		if flagged {
			reason = "click_rate_exceeded"
		}

		sc.logClick(ctx, model.ClickEvent{
			Screen:              ScreenBizDetails,
			URL:                 bizURL,
			FilterTriggered:     flagged,
			BillableClick:       !flagged,
			BillableClickReason: reason,
		})

		sc.addResult(ctx, model.TestResult{
			Action:          fmt.Sprintf("rapid_click_%d", cycle+1),
			Success:         true,
			Details:         fmt.Sprintf("fixed %dms cadence", fastClickCadence.Milliseconds()),
			FilterTriggered: boolp(flagged),
			ClickRecorded:   boolp(!flagged),
		})
	}

	return nil
}
