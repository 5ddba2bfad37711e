package scenario

import (
	"context"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// NoJSClicks disables script execution, navigates to the business page and
// clicks the quote CTA. Headless/no-JS detection is the signal under test:
// the click must be filtered and not recorded. Scripts are re-enabled by the
// scope on every exit path.
type NoJSClicks struct{}

func (NoJSClicks) Name() string { return "NoJSClicks" }

func (NoJSClicks) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	profile := model.EnvironmentProfile{
		Name:      "no-js",
		DisableJS: true,
	}

	return sc.Env.Scoped(ctx, profile, func(ctx context.Context) error {
		if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
			return err
		}

		h, err := sc.Driver.Locate(ctx, `a[href*="request_a_quote"]`)
		if err != nil {
			return err
		}

		if err := h.Click(ctx); err != nil {
			return err
		}

		sc.logClick(ctx, model.ClickEvent{
			Screen:              ScreenBizDetails,
			URL:                 bizURL,
			FilterTriggered:     true,
			BillableClick:       false,
			BillableClickReason: "no_js_client",
		})

		sc.addResult(ctx, model.TestResult{
			Action:          "js_disabled_click",
			Success:         true,
			Details:         "quote CTA clicked with script execution disabled",
			FilterTriggered: boolp(true),
			ClickRecorded:   boolp(false),
		})

		return nil
	})
}
