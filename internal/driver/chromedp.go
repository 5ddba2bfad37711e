package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// Chrome drives a single Chrome browser context over the devtools protocol.
// One Chrome instance backs exactly one session; scenarios within the session
// share its global fingerprint state and therefore never run concurrently.
type Chrome struct {
	ctx    context.Context
	cancel context.CancelFunc

	actionTimeout time.Duration
	log           *slog.Logger
}

type ChromeOptions struct {
	Headless bool
	// UserAgent is the baseline user agent the browser launches with.
	UserAgent string
	// ActionTimeout bounds each browser action. Zero means DefaultActionTimeout.
	ActionTimeout time.Duration
}

func NewChrome(opts ChromeOptions, log *slog.Logger) (*Chrome, error) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	timeout := opts.ActionTimeout
	if timeout == 0 {
		timeout = DefaultActionTimeout
	}

	c := &Chrome{
		ctx: ctx,
		cancel: func() {
			ctxCancel()
			allocCancel()
		},
		actionTimeout: timeout,
		log:           log,
	}

	// starts the browser process eagerly so a broken chrome install fails
	// construction instead of the first scenario action
	if err := c.run(context.Background(), "start", network.Enable()); err != nil {
		c.cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return c, nil
}

// run executes chromedp actions against the browser context with the
// per-action budget, translating a deadline into model.ActionTimeoutError.
func (c *Chrome) run(ctx context.Context, action string, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(c.ctx, c.actionTimeout)
	defer cancel()

	err := chromedp.Run(tctx, actions...)
	if errors.Is(err, context.DeadlineExceeded) {
		return model.ActionTimeoutError{Action: action, Timeout: c.actionTimeout}
	}

	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, "navigate "+url, chromedp.Navigate(url))
}

type chromeHandle struct {
	c        *Chrome
	selector string
}

func (h chromeHandle) Click(ctx context.Context) error {
	return h.c.Click(ctx, h.selector)
}

func (h chromeHandle) Text(ctx context.Context) (string, error) {
	var text string
	err := h.c.run(ctx, "text "+h.selector, chromedp.Text(h.selector, &text, chromedp.ByQuery))
	return text, err
}

func (c *Chrome) Locate(ctx context.Context, selectors ...string) (Handle, error) {
	for _, sel := range selectors {
		var nodes []*cdp.Node

		err := c.run(ctx, "locate "+sel, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
		if err != nil {
			var timeout model.ActionTimeoutError
			if errors.As(err, &timeout) {
				// a slow DOM query counts as "selector absent", continue
				// with the next fallback selector
				continue
			}
			return nil, err
		}

		if len(nodes) > 0 {
			return chromeHandle{c: c, selector: sel}, nil
		}
	}

	return nil, model.ElementNotFoundError{Selectors: selectors}
}

func (c *Chrome) Type(ctx context.Context, selector, text string) error {
	return c.run(ctx, "type "+selector, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (c *Chrome) Select(ctx context.Context, selector, value string) error {
	return c.run(ctx, "select "+selector, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx, "click "+selector, chromedp.Click(selector, chromedp.ByQuery))
}

func (c *Chrome) Evaluate(ctx context.Context, expression string, out any) error {
	return c.run(ctx, "evaluate", chromedp.Evaluate(expression, out))
}

func (c *Chrome) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	h := network.Headers{}
	for k, v := range headers {
		h[k] = v
	}

	return c.run(ctx, "set extra headers", network.SetExtraHTTPHeaders(h))
}

func (c *Chrome) SetUserAgent(ctx context.Context, userAgent string) error {
	return c.run(ctx, "set user agent", emulation.SetUserAgentOverride(userAgent))
}

func (c *Chrome) SetJavaScriptEnabled(ctx context.Context, enabled bool) error {
	return c.run(ctx, "set javascript enabled", emulation.SetScriptExecutionDisabled(!enabled))
}

func (c *Chrome) SetViewport(ctx context.Context, width, height int, mobile bool) error {
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, mobile),
	}
	if mobile {
		actions = append(actions, emulation.SetTouchEmulationEnabled(true).WithMaxTouchPoints(5))
	} else {
		actions = append(actions, emulation.SetTouchEmulationEnabled(false))
	}

	return c.run(ctx, "set viewport", actions...)
}

func (c *Chrome) Wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Chrome) EmulateNetwork(ctx context.Context, cond model.NetworkConditions) error {
	return c.run(ctx, "emulate network",
		network.EmulateNetworkConditions(cond.Offline, cond.LatencyMS, cond.DownloadBps, cond.UploadBps))
}

func (c *Chrome) RestoreNetwork(ctx context.Context) error {
	// -1 throughput disables the emulation
	return c.run(ctx, "restore network", network.EmulateNetworkConditions(false, 0, -1, -1))
}

func (c *Chrome) Close() error {
	c.cancel()
	return nil
}
