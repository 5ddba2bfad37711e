package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/stats"
)

// Simulated-oracle thresholds for the rapid-revisit pattern. These mirror the
// expected filter response, they are not derived from a production detector.
const (
	clickStormVisits    = 25
	clickStormFlagAfter = 15
	clickStormMinDwell  = 1000 * time.Millisecond
	clickStormMinStdDev = int64(500)
	clickStormClickProb = 0.3
)

// ClickStorms issues 25 rapid visits to the business page across four dwell
// bands and probabilistically clicks the CTA. The dwell-time variance over
// the run is the signal under test: a spread wider than 500ms standard
// deviation looks organic, while visits past #15 with sub-second dwell are
// expected to be flagged as a storm.
type ClickStorms struct{}

func (ClickStorms) Name() string { return "ClickStorms" }

func (ClickStorms) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	bands := []struct {
		count  int
		lo, hi time.Duration
	}{
		{10, 100 * time.Millisecond, 300 * time.Millisecond},
		{5, 1 * time.Second, 2 * time.Second},
		{5, 3 * time.Second, 5 * time.Second},
		{5, 100 * time.Millisecond, 6 * time.Second},
	}

	dwells := make([]time.Duration, 0, clickStormVisits)
	visit := 0

	for _, band := range bands {
		for i := 0; i < band.count; i++ {
			visit++

			if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
				return err
			}

			d := sc.randBetween(band.lo, band.hi)
			dwells = append(dwells, d)

			if err := sc.dwell(ctx, d); err != nil {
				return err
			}

			flagged := visit > clickStormFlagAfter && d < clickStormMinDwell

			sc.logTransition(ctx, ScreenBizDetails, ScreenBizDetails, d, bizURL)

			if sc.Rand.Float64() < clickStormClickProb {
				if err := sc.clickBusinessCTA(ctx); err != nil {
					var notFound model.ElementNotFoundError
					if !errors.As(err, &notFound) {
						return err
					}
					// page without a CTA, the visit still counts
				} else {
					reason := "click_storm_pacing"
					if flagged {
						reason = "click_storm_rapid_revisit"
					}
					sc.logClick(ctx, model.ClickEvent{
						Screen:              ScreenBizDetails,
						URL:                 bizURL,
						FilterTriggered:     flagged,
						BillableClick:       !flagged,
						BillableClickReason: reason,
					})
				}
			}

			sc.addResult(ctx, model.TestResult{
				Action:          fmt.Sprintf("storm_visit_%d", visit),
				Success:         true,
				Details:         fmt.Sprintf("dwell %dms", d.Milliseconds()),
				FilterTriggered: boolp(flagged),
			})
		}
	}

	st, err := stats.DwellTimes(dwells)
	if err != nil {
		return err
	}

	variancePass := st.StdDevMS > clickStormMinStdDev

	sc.addResult(ctx, model.TestResult{
		Action:  "dwell_variance",
		Success: variancePass,
		Details: fmt.Sprintf("mean=%dms stdDev=%dms min=%dms max=%dms", st.MeanMS, st.StdDevMS, st.MinMS, st.MaxMS),
	})

	return nil
}
