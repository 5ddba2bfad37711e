package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/stats"
)

const (
	excessiveViewCount     = 25
	excessiveViewFlagAfter = 20
	excessiveViewMinDwell  = 1000 * time.Millisecond
)

// ExcessiveBusinessViews revisits the business page 25 times with uniformly
// short dwells (200–1000ms). The volume signal is under test: views past #20
// that stay below one second are expected to be flagged as inflation.
type ExcessiveBusinessViews struct{}

func (ExcessiveBusinessViews) Name() string { return "ExcessiveBusinessViews" }

func (ExcessiveBusinessViews) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	dwells := make([]time.Duration, 0, excessiveViewCount)

	for visit := 1; visit <= excessiveViewCount; visit++ {
		if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
			return err
		}

		d := sc.randBetween(200*time.Millisecond, 1000*time.Millisecond)
		dwells = append(dwells, d)

		if err := sc.dwell(ctx, d); err != nil {
			return err
		}

		flagged := visit > excessiveViewFlagAfter && d < excessiveViewMinDwell

		sc.logTransition(ctx, ScreenBizDetails, ScreenBizDetails, d, bizURL)

		sc.addResult(ctx, model.TestResult{
			Action:          fmt.Sprintf("view_%d", visit),
			Success:         true,
			Details:         fmt.Sprintf("dwell %dms", d.Milliseconds()),
			FilterTriggered: boolp(flagged),
		})
	}

	st, err := stats.DwellTimes(dwells)
	if err != nil {
		return err
	}

	sc.addResult(ctx, model.TestResult{
		Action:  "view_volume_summary",
		Success: true,
		Details: fmt.Sprintf("%d views, mean=%dms stdDev=%dms", excessiveViewCount, st.MeanMS, st.StdDevMS),
	})

	return nil
}
