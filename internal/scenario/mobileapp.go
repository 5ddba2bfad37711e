package scenario

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

const mobileAppClickCount = 3

// mobileAppUserAgent is the default handset fingerprint. A session config can
// override it through BehavioralConfig.Device.
const mobileAppUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"

// Desktop metrics restored once the scenario finishes.
const (
	desktopViewportWidth  = 1366
	desktopViewportHeight = 768
)

// mobileCTASelectors are tried before the shared desktop set; the mobile
// surface renders its own call-to-action markup.
var mobileCTASelectors = []string{
	`a[href*="request_a_quote"]`,
	`a.mobile-action-bar__cta`,
	`button[data-button="cta"]`,
}

// MobileAppClicks replays traffic from the handset surface: mobile user
// agent, touch-capable viewport and the mobile web entry point. Every click
// in this scenario is legitimate and must stay billable, which makes it the
// false-positive guard for touch traffic.
type MobileAppClicks struct{}

func (MobileAppClicks) Name() string { return "MobileAppClicks" }

func (MobileAppClicks) Execute(ctx context.Context, sc *Context) error {
	device := model.DeviceOverride{
		Width:     390,
		Height:    844,
		Mobile:    true,
		Touch:     true,
		UserAgent: mobileAppUserAgent,
	}
	if sc.Config.Device != nil {
		device = *sc.Config.Device
	}

	if err := sc.Driver.SetViewport(ctx, device.Width, device.Height, device.Mobile); err != nil {
		return err
	}
	// A session-level device override is the viewport the rest of the
	// session runs at; only override-free sessions revert to desktop.
	restoreWidth, restoreHeight, restoreMobile := desktopViewportWidth, desktopViewportHeight, false
	if sc.Config.Device != nil {
		restoreWidth, restoreHeight, restoreMobile = sc.Config.Device.Width, sc.Config.Device.Height, sc.Config.Device.Mobile
	}
	defer func() {
		if rerr := sc.Driver.SetViewport(ctx, restoreWidth, restoreHeight, restoreMobile); rerr != nil {
			sc.Log.Warn("viewport restore failed", "error", rerr)
		}
	}()

	profile := model.EnvironmentProfile{
		Name:      "mobile-app",
		UserAgent: device.UserAgent,
	}

	return sc.Env.Scoped(ctx, profile, func(ctx context.Context) error {
		return sc.runMobileClicks(ctx, device)
	})
}

func (sc *Context) runMobileClicks(ctx context.Context, device model.DeviceOverride) error {
	bizURL := sc.resolveMobileBusinessURL(ctx)

	for i := 1; i <= mobileAppClickCount; i++ {
		if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
			return err
		}

		dwell := sc.randBetween(2*time.Second, 6*time.Second)
		if err := sc.dwell(ctx, dwell); err != nil {
			return err
		}

		if err := sc.clickMobileCTA(ctx); err != nil {
			var notFound model.ElementNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
			// Fallback page has no live markup; the tap still counts for the
			// simulated telemetry stream.
			sc.addLog(ctx, model.LogLevelDebug, "mobile cta absent, recording tap against listing")
		}

		sc.logTransition(ctx, ScreenSearchResults, ScreenBizDetails, dwell, bizURL)

		sc.logClick(ctx, model.ClickEvent{
			Screen:              ScreenBizDetails,
			URL:                 bizURL,
			UserAgent:           device.UserAgent,
			FilterTriggered:     false,
			BillableClick:       true,
			BillableClickReason: "mobile_app_traffic",
		})

		sc.addResult(ctx, model.TestResult{
			Action:          fmt.Sprintf("mobile_click_%d", i),
			Success:         true,
			Details:         fmt.Sprintf("dwell %dms on mobile viewport %dx%d", dwell.Milliseconds(), device.Width, device.Height),
			FilterTriggered: boolp(false),
			ClickRecorded:   boolp(true),
		})
	}

	return nil
}

// resolveMobileBusinessURL mirrors resolveBusinessURL against the mobile web
// entry point, with the same deterministic fallback.
func (sc *Context) resolveMobileBusinessURL(ctx context.Context) string {
	searchURL := sc.Config.Env.MobileBaseURL + "/search?find_desc=" + url.QueryEscape(sc.Config.Business)

	fallback := sc.Config.Env.MobileBaseURL + "/biz/" + model.BusinessSlug(sc.Config.Business)

	if err := sc.Driver.Navigate(ctx, searchURL); err != nil {
		sc.Log.Warn("mobile search navigation failed, using fallback url", "error", err)
		return fallback
	}

	if _, err := sc.Driver.Locate(ctx, businessLinkSelectors...); err != nil {
		return fallback
	}

	var href string
	err := sc.Driver.Evaluate(ctx,
		`(document.querySelector('`+businessLinkSelectors[0]+`') || {}).href || ""`, &href)
	if err != nil || href == "" {
		return fallback
	}

	return href
}

func (sc *Context) clickMobileCTA(ctx context.Context) error {
	selectors := append(append([]string{}, mobileCTASelectors...), ctaSelectors...)

	h, err := sc.Driver.Locate(ctx, selectors...)
	if err != nil {
		return err
	}

	return h.Click(ctx)
}
