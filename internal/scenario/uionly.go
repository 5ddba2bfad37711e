package scenario

import (
	"context"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// syntheticActivations enumerates the programmatic DOM event sequences a
// page script can fire without any real input device. Each script resolves
// the call to action (or falls back to the document body), dispatches its
// events and reports whether dispatch succeeded.
var syntheticActivations = []struct {
	name   string
	script string
}{
	{"focus_blur", `(() => {
		const el = document.querySelector('a[href*="request_a_quote"]') || document.body;
		el.dispatchEvent(new FocusEvent('focus', {bubbles: false}));
		el.dispatchEvent(new FocusEvent('blur', {bubbles: false}));
		return true;
	})()`},
	{"keyboard_enter", `(() => {
		const el = document.querySelector('a[href*="request_a_quote"]') || document.body;
		el.dispatchEvent(new KeyboardEvent('keydown', {key: 'Enter', bubbles: true}));
		el.dispatchEvent(new KeyboardEvent('keyup', {key: 'Enter', bubbles: true}));
		return true;
	})()`},
	{"mouse_click", `(() => {
		const el = document.querySelector('a[href*="request_a_quote"]') || document.body;
		el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true, view: window}));
		return true;
	})()`},
	{"touch_tap", `(() => {
		const el = document.querySelector('a[href*="request_a_quote"]') || document.body;
		const mk = t => typeof TouchEvent !== 'undefined'
			? new TouchEvent(t, {bubbles: true, cancelable: true})
			: new Event(t, {bubbles: true, cancelable: true});
		el.dispatchEvent(mk('touchstart'));
		el.dispatchEvent(mk('touchend'));
		return true;
	})()`},
	{"aria_activation", `(() => {
		const el = document.querySelector('[role="button"]')
			|| document.querySelector('a[href*="request_a_quote"]')
			|| document.body;
		el.dispatchEvent(new KeyboardEvent('keydown', {key: ' ', bubbles: true}));
		el.dispatchEvent(new KeyboardEvent('keyup', {key: ' ', bubbles: true}));
		el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true}));
		return true;
	})()`},
	{"element_click_method", `(() => {
		const el = document.querySelector('a[href*="request_a_quote"]') || document.body;
		el.click();
		return true;
	})()`},
	{"custom_event", `(() => {
		const el = document.querySelector('a[href*="request_a_quote"]') || document.body;
		el.dispatchEvent(new CustomEvent('activate', {bubbles: true, detail: {source: 'script'}}));
		return true;
	})()`},
}

// UIOnlyInteraction activates the call to action exclusively through
// script-dispatched DOM events. No input is ever injected through the
// automation protocol, so every event carries isTrusted=false and the filter
// must reject each activation as non-billable.
type UIOnlyInteraction struct{}

func (UIOnlyInteraction) Name() string { return "UIOnlyInteraction" }

func (UIOnlyInteraction) Execute(ctx context.Context, sc *Context) error {
	bizURL := sc.resolveBusinessURL(ctx)

	if err := sc.Driver.Navigate(ctx, bizURL); err != nil {
		return err
	}

	for _, activation := range syntheticActivations {
		if err := sc.dwell(ctx, sc.randBetween(300*time.Millisecond, 900*time.Millisecond)); err != nil {
			return err
		}

		var dispatched bool
		if err := sc.Driver.Evaluate(ctx, activation.script, &dispatched); err != nil {
			return err
		}

		sc.logClick(ctx, model.ClickEvent{
			Screen:              ScreenBizDetails,
			URL:                 bizURL,
			FilterTriggered:     true,
			BillableClick:       false,
			BillableClickReason: "synthetic_event",
		})

		sc.addResult(ctx, model.TestResult{
			Action:          "synthetic_" + activation.name,
			Success:         dispatched,
			Details:         "script-dispatched " + activation.name + " with isTrusted=false",
			FilterTriggered: boolp(true),
			ClickRecorded:   boolp(false),
		})
	}

	return nil
}
