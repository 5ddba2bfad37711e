// Package driver defines the browser action capability consumed by the
// scenario implementations. The contract is substitutable across automation
// technologies; the default implementation drives Chrome over the devtools
// protocol via chromedp.
package driver

import (
	"context"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// DefaultActionTimeout bounds a single browser action. Callers can override
// it per driver; a timeout aborts only the affected action.
const DefaultActionTimeout = 10 * time.Second

// Handle is an opaque reference to a located element.
type Handle interface {
	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)
}

// Driver is the browser action contract. Implementations translate action
// timeouts to model.ActionTimeoutError and missing elements to
// model.ElementNotFoundError so scenarios can distinguish "element absent"
// from hard failures.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// Locate resolves the first selector that matches an element. It returns
	// model.ElementNotFoundError when all selectors are exhausted.
	Locate(ctx context.Context, selectors ...string) (Handle, error)
	Type(ctx context.Context, selector, text string) error
	Select(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Evaluate(ctx context.Context, expression string, out any) error

	SetExtraHeaders(ctx context.Context, headers map[string]string) error
	SetUserAgent(ctx context.Context, userAgent string) error
	SetJavaScriptEnabled(ctx context.Context, enabled bool) error
	SetViewport(ctx context.Context, width, height int, mobile bool) error

	// Wait suspends for the given duration, honoring ctx cancellation.
	Wait(ctx context.Context, d time.Duration) error

	// EmulateNetwork applies a throttle preset until RestoreNetwork is called.
	EmulateNetwork(ctx context.Context, cond model.NetworkConditions) error
	RestoreNetwork(ctx context.Context) error

	Close() error
}
