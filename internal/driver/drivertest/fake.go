// Package drivertest provides an in-memory Driver used by scenario and
// orchestrator tests. It records every action and exposes the mutable
// fingerprint state so tests can assert baseline restoration.
package drivertest

import (
	"context"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// Click records one simulated click and the fingerprint state it was issued
// under.
type Click struct {
	Selector  string
	URL       string
	JSEnabled bool
	At        time.Time
}

type Fake struct {
	// mutable fingerprint state
	UserAgent string
	JSEnabled bool
	Headers   map[string]string
	Network   *model.NetworkConditions

	ViewportWidth  int
	ViewportHeight int
	Mobile         bool

	CurrentURL  string
	Navigations []string
	Clicks      []Click
	Waits       []time.Duration
	Evaluated   []string
	Typed       map[string]string
	Selected    map[string]string
	Closed      bool

	// Selectors present in the fake DOM. Nil means every selector matches.
	Selectors map[string]bool

	// error injection
	NavigateErr            error
	ClickErr               map[string]error
	EvaluateFn             func(expression string, out any) error
	SetHeadersFailures     int
	SetUserAgentFailures   int
	SetJSFailures          int
	RestoreNetworkFailures int
}

var _ driver.Driver = &Fake{}

func New() *Fake {
	return &Fake{
		JSEnabled: true,
		Headers:   map[string]string{},
		Typed:     map[string]string{},
		Selected:  map[string]string{},
		ClickErr:  map[string]error{},
	}
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	if f.NavigateErr != nil {
		return f.NavigateErr
	}

	f.CurrentURL = url
	f.Navigations = append(f.Navigations, url)
	return nil
}

type fakeHandle struct {
	f        *Fake
	selector string
}

func (h fakeHandle) Click(ctx context.Context) error {
	return h.f.Click(ctx, h.selector)
}

func (h fakeHandle) Text(context.Context) (string, error) {
	return h.selector, nil
}

func (f *Fake) Locate(_ context.Context, selectors ...string) (driver.Handle, error) {
	for _, sel := range selectors {
		if f.Selectors == nil || f.Selectors[sel] {
			return fakeHandle{f: f, selector: sel}, nil
		}
	}

	return nil, model.ElementNotFoundError{Selectors: selectors}
}

func (f *Fake) Type(_ context.Context, selector, text string) error {
	f.Typed[selector] = text
	return nil
}

func (f *Fake) Select(_ context.Context, selector, value string) error {
	f.Selected[selector] = value
	return nil
}

func (f *Fake) Click(_ context.Context, selector string) error {
	if err := f.ClickErr[selector]; err != nil {
		return err
	}

	f.Clicks = append(f.Clicks, Click{
		Selector:  selector,
		URL:       f.CurrentURL,
		JSEnabled: f.JSEnabled,
		At:        time.Now(),
	})
	return nil
}

func (f *Fake) Evaluate(_ context.Context, expression string, out any) error {
	f.Evaluated = append(f.Evaluated, expression)

	if f.EvaluateFn != nil {
		return f.EvaluateFn(expression, out)
	}
	return nil
}

func (f *Fake) SetExtraHeaders(_ context.Context, headers map[string]string) error {
	if f.SetHeadersFailures > 0 {
		f.SetHeadersFailures--
		return model.ActionTimeoutError{Action: "set extra headers", Timeout: time.Second}
	}

	f.Headers = map[string]string{}
	for k, v := range headers {
		f.Headers[k] = v
	}
	return nil
}

func (f *Fake) SetUserAgent(_ context.Context, userAgent string) error {
	if f.SetUserAgentFailures > 0 {
		f.SetUserAgentFailures--
		return model.ActionTimeoutError{Action: "set user agent", Timeout: time.Second}
	}

	f.UserAgent = userAgent
	return nil
}

func (f *Fake) SetJavaScriptEnabled(_ context.Context, enabled bool) error {
	if f.SetJSFailures > 0 {
		f.SetJSFailures--
		return model.ActionTimeoutError{Action: "set javascript enabled", Timeout: time.Second}
	}

	f.JSEnabled = enabled
	return nil
}

func (f *Fake) SetViewport(_ context.Context, width, height int, mobile bool) error {
	f.ViewportWidth = width
	f.ViewportHeight = height
	f.Mobile = mobile
	return nil
}

// Wait records the dwell duration without sleeping so scenario tests assert
// timing bands instead of waiting them out.
func (f *Fake) Wait(_ context.Context, d time.Duration) error {
	f.Waits = append(f.Waits, d)
	return nil
}

func (f *Fake) EmulateNetwork(_ context.Context, cond model.NetworkConditions) error {
	c := cond
	f.Network = &c
	return nil
}

func (f *Fake) RestoreNetwork(_ context.Context) error {
	if f.RestoreNetworkFailures > 0 {
		f.RestoreNetworkFailures--
		return model.ActionTimeoutError{Action: "restore network", Timeout: time.Second}
	}

	f.Network = nil
	return nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
