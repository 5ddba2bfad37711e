package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

const (
	searchVolumeQueries   = 50
	searchVolumeFlagAfter = 30
	searchVolumeMinDwell  = 1000 * time.Millisecond
	searchResultClickProb = 0.2
	autosuggestEvery      = 10
)

var searchTerms = []string{
	"plumber", "locksmith", "sushi", "coffee", "hair salon",
	"auto repair", "dentist", "pizza", "electrician", "florist",
	"dry cleaning", "movers", "yoga", "tattoo", "bakery",
}

// HighVolumeSearch fires 50 rapid randomized search queries, probing the
// autosuggest endpoint every tenth query and probabilistically clicking a
// result. The search rate is the signal under test: queries past #30 that
// resolve in under a second are expected to be flagged as scraping-grade
// abuse.
type HighVolumeSearch struct{}

func (HighVolumeSearch) Name() string { return "HighVolumeSearch" }

func (HighVolumeSearch) Execute(ctx context.Context, sc *Context) error {
	for q := 1; q <= searchVolumeQueries; q++ {
		term := searchTerms[sc.Rand.Intn(len(searchTerms))]
		query := fmt.Sprintf("%s %d", term, sc.Rand.Intn(100))

		if err := sc.Driver.Navigate(ctx, sc.searchURL(query)); err != nil {
			return err
		}

		d := sc.randBetween(200*time.Millisecond, 1100*time.Millisecond)
		if err := sc.dwell(ctx, d); err != nil {
			return err
		}

		flagged := q > searchVolumeFlagAfter && d < searchVolumeMinDwell

		sc.logTransition(ctx, ScreenSearchResults, ScreenSearchResults, d, sc.searchURL(query))

		if q%autosuggestEvery == 0 {
			if err := sc.probeAutosuggest(ctx, term); err != nil {
				return err
			}
		}

		if sc.Rand.Float64() < searchResultClickProb {
			if err := sc.clickFirstResult(ctx, flagged); err != nil {
				return err
			}
		}

		sc.addResult(ctx, model.TestResult{
			Action:          fmt.Sprintf("search_%d", q),
			Success:         true,
			Details:         fmt.Sprintf("query %q, %dms", query, d.Milliseconds()),
			FilterTriggered: boolp(flagged),
		})
	}

	return nil
}

// probeAutosuggest types a partial term into the search box the way an
// autosuggest scraper would. An absent search box is a no-op: some result
// pages render without one.
func (sc *Context) probeAutosuggest(ctx context.Context, term string) error {
	partial := term
	if len(partial) > 3 {
		partial = partial[:3]
	}

	err := sc.Driver.Type(ctx, `input[name="find_desc"]`, partial)
	if err != nil {
		var notFound model.ElementNotFoundError
		var timeout model.ActionTimeoutError
		if errors.As(err, &notFound) || errors.As(err, &timeout) {
			return nil
		}
		return err
	}

	sc.addResult(ctx, model.TestResult{
		Action:  "autosuggest_probe",
		Success: true,
		Details: fmt.Sprintf("partial %q", partial),
	})

	return nil
}

func (sc *Context) clickFirstResult(ctx context.Context, flagged bool) error {
	h, err := sc.Driver.Locate(ctx, businessLinkSelectors...)
	if err != nil {
		var notFound model.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	if err := h.Click(ctx); err != nil {
		return err
	}

	reason := "search_result_click"
	if flagged {
		reason = "search_rate_exceeded"
	}

	sc.logClick(ctx, model.ClickEvent{
		Screen:              ScreenSearchResults,
		URL:                 sc.Config.Env.SearchBaseURL,
		FilterTriggered:     flagged,
		BillableClick:       !flagged,
		BillableClickReason: reason,
	})

	return nil
}
