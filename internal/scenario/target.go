package scenario

import (
	"context"
	"errors"
	"net/url"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// Logical screen identifiers used for analytics correlation.
const (
	ScreenSearchResults = "search_results"
	ScreenBizDetails    = "biz_details"
)

// businessLinkSelectors locate the first organic search result, most specific
// first. Sponsored results must never be picked: a click on a sponsored
// placement is itself an ad event and would contaminate the scenario's labels.
var businessLinkSelectors = []string{
	`a[href*="/biz/"]:not([data-sponsored])`,
	`li:not(.sponsored) a.business-name`,
	`a.business-name`,
}

// ctaSelectors are the ad-relevant calls to action on a business page.
var ctaSelectors = []string{
	`a[href*="request_a_quote"]`,
	`a[href*="biz_redir"]`,
	`a.cta-button`,
}

// resolveBusinessURL searches the target for the configured business and
// picks the first non-sponsored result. When lookup fails at any step it
// synthesizes a deterministic fallback URL from the business name, so
// repeated runs remain comparable.
func (sc *Context) resolveBusinessURL(ctx context.Context) string {
	searchURL := sc.searchURL(sc.Config.Business)

	if err := sc.Driver.Navigate(ctx, searchURL); err != nil {
		sc.Log.Warn("business search navigation failed, using fallback url", "error", err)
		return sc.fallbackBusinessURL()
	}

	if _, err := sc.Driver.Locate(ctx, businessLinkSelectors...); err != nil {
		var notFound model.ElementNotFoundError
		if !errors.As(err, &notFound) {
			sc.Log.Warn("business result lookup failed, using fallback url", "error", err)
		}
		return sc.fallbackBusinessURL()
	}

	var href string
	err := sc.Driver.Evaluate(ctx,
		`(document.querySelector('`+businessLinkSelectors[0]+`') || {}).href || ""`, &href)
	if err != nil || href == "" {
		return sc.fallbackBusinessURL()
	}

	return href
}

func (sc *Context) searchURL(query string) string {
	return sc.Config.Env.SearchBaseURL + "?find_desc=" + url.QueryEscape(query)
}

func (sc *Context) fallbackBusinessURL() string {
	return sc.Config.Env.WebBaseURL + "/biz/" + model.BusinessSlug(sc.Config.Business)
}

// clickBusinessCTA clicks the first available call to action on the current
// business page. Callers decide whether an absent CTA is a no-op or fatal.
func (sc *Context) clickBusinessCTA(ctx context.Context) error {
	h, err := sc.Driver.Locate(ctx, ctaSelectors...)
	if err != nil {
		return err
	}

	return h.Click(ctx)
}
