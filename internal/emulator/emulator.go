// Package emulator owns transient mutation of the simulated client's
// fingerprint. Every mutation is scoped: the prior baseline is restored on
// every exit path, success or failure, so no scenario leaks a corrupted
// fingerprint into the next one.
package emulator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// NetworkPresets are the named throttle profiles scenarios pick from.
// Throughputs are bytes/second. "offline" emulates connectivity loss.
var NetworkPresets = map[string]model.NetworkConditions{
	"regular-2g": {LatencyMS: 300, DownloadBps: 31_250, UploadBps: 6_250},
	"slow-3g":    {LatencyMS: 400, DownloadBps: 62_500, UploadBps: 31_250},
	"fast-3g":    {LatencyMS: 150, DownloadBps: 187_500, UploadBps: 86_250},
	"regular-4g": {LatencyMS: 60, DownloadBps: 512_000, UploadBps: 384_000},
	"offline":    {Offline: true},
}

// Baseline is the default fingerprint the orchestrator re-asserts between
// scenarios. Network, when set, is a session-wide throttle that scoped
// profiles must return to instead of clearing emulation entirely.
type Baseline struct {
	UserAgent         string
	JavaScriptEnabled bool
	Headers           map[string]string
	Network           *model.NetworkConditions
}

type Emulator struct {
	d        driver.Driver
	baseline Baseline
	log      *slog.Logger
}

func New(d driver.Driver, baseline Baseline, log *slog.Logger) *Emulator {
	if baseline.Headers == nil {
		baseline.Headers = map[string]string{}
	}

	return &Emulator{d: d, baseline: baseline, log: log}
}

func (e *Emulator) Baseline() Baseline {
	return e.baseline
}

// ResetBaseline re-asserts the default headers, user agent and script state.
// The orchestrator calls it between scenarios to guarantee a clean slate.
func (e *Emulator) ResetBaseline(ctx context.Context) error {
	if err := e.d.SetExtraHeaders(ctx, e.baseline.Headers); err != nil {
		return err
	}
	if err := e.d.SetUserAgent(ctx, e.baseline.UserAgent); err != nil {
		return err
	}

	return e.d.SetJavaScriptEnabled(ctx, e.baseline.JavaScriptEnabled)
}

// Scoped applies a profile, runs fn and restores the baseline afterwards on
// every path. A failed restore step is retried once; if it still fails the
// failure is joined with fn's error so the original trigger is never
// swallowed.
func (e *Emulator) Scoped(ctx context.Context, profile model.EnvironmentProfile, fn func(ctx context.Context) error) (err error) {
	applied, applyErr := e.apply(ctx, profile)

	defer func() {
		restoreErr := e.restore(ctx, profile, applied)
		if restoreErr != nil {
			err = errors.Join(err, model.EnvironmentRestoreError{Profile: profile.Name, Err: restoreErr})
		}
	}()

	if applyErr != nil {
		return applyErr
	}

	return fn(ctx)
}

// applied tracks which fingerprint dimensions a profile touched, so restore
// reverts exactly those.
type applied struct {
	headers   bool
	userAgent bool
	js        bool
	network   bool
}

func (e *Emulator) apply(ctx context.Context, profile model.EnvironmentProfile) (applied, error) {
	var a applied

	if profile.Headers != nil {
		if err := e.d.SetExtraHeaders(ctx, profile.Headers); err != nil {
			return a, err
		}
		a.headers = true
	}

	if profile.UserAgent != "" {
		if err := e.d.SetUserAgent(ctx, profile.UserAgent); err != nil {
			return a, err
		}
		a.userAgent = true
	}

	if profile.DisableJS {
		if err := e.d.SetJavaScriptEnabled(ctx, false); err != nil {
			return a, err
		}
		a.js = true
	}

	if profile.Network != nil {
		if err := e.d.EmulateNetwork(ctx, *profile.Network); err != nil {
			return a, err
		}
		a.network = true
	}

	return a, nil
}

func (e *Emulator) restore(ctx context.Context, profile model.EnvironmentProfile, a applied) error {
	var err error

	if a.headers {
		err = errors.Join(err, e.retryOnce(func() error {
			return e.d.SetExtraHeaders(ctx, e.baseline.Headers)
		}))
	}
	if a.userAgent {
		err = errors.Join(err, e.retryOnce(func() error {
			return e.d.SetUserAgent(ctx, e.baseline.UserAgent)
		}))
	}
	if a.js {
		err = errors.Join(err, e.retryOnce(func() error {
			return e.d.SetJavaScriptEnabled(ctx, e.baseline.JavaScriptEnabled)
		}))
	}
	if a.network {
		err = errors.Join(err, e.retryOnce(func() error {
			if e.baseline.Network != nil {
				return e.d.EmulateNetwork(ctx, *e.baseline.Network)
			}
			return e.d.RestoreNetwork(ctx)
		}))
	}

	if err != nil {
		e.log.Warn("environment restore failed", "profile", profile.Name, "error", err)
	}

	return err
}

func (e *Emulator) retryOnce(f func() error) error {
	if err := f(); err != nil {
		return f()
	}

	return nil
}
