package emulator_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver/drivertest"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/emulator"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

const baseUA = "Mozilla/5.0 (X11; Linux x86_64) baseline"

func newEmulator(f *drivertest.Fake) *emulator.Emulator {
	return emulator.New(f, emulator.Baseline{
		UserAgent:         baseUA,
		JavaScriptEnabled: true,
	}, slog.Default())
}

func spoofProfile() model.EnvironmentProfile {
	return model.EnvironmentProfile{
		Name:      "geo-spoof",
		Headers:   map[string]string{"X-Forwarded-For": "10.0.0.1"},
		UserAgent: "spoofed-agent",
		Network:   &model.NetworkConditions{LatencyMS: 400, DownloadBps: 62_500, UploadBps: 31_250},
	}
}

func TestScopedRestoresBaselineOnSuccess(t *testing.T) {
	f := drivertest.New()
	e := newEmulator(f)

	err := e.Scoped(context.Background(), spoofProfile(), func(ctx context.Context) error {
		assert.Equal(t, "10.0.0.1", f.Headers["X-Forwarded-For"])
		assert.Equal(t, "spoofed-agent", f.UserAgent)
		assert.NotNil(t, f.Network)
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, f.Headers)
	assert.Equal(t, baseUA, f.UserAgent)
	assert.Nil(t, f.Network)
}

func TestScopedRestoresBaselineOnFailure(t *testing.T) {
	f := drivertest.New()
	e := newEmulator(f)

	boom := errors.New("selector missing")

	err := e.Scoped(context.Background(), spoofProfile(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, f.Headers)
	assert.Equal(t, baseUA, f.UserAgent)
	assert.Nil(t, f.Network)
}

func TestScopedRetriesRestoreOnce(t *testing.T) {
	f := drivertest.New()
	f.RestoreNetworkFailures = 1 // first restore attempt fails, retry succeeds
	e := newEmulator(f)

	err := e.Scoped(context.Background(), spoofProfile(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	assert.Nil(t, f.Network)
}

func TestScopedSurfacesOriginalErrorNextToRestoreError(t *testing.T) {
	f := drivertest.New()
	f.RestoreNetworkFailures = 2 // restore fails even after the retry
	e := newEmulator(f)

	boom := errors.New("navigation timeout")

	err := e.Scoped(context.Background(), spoofProfile(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom, "original trigger must never be swallowed")

	var restoreErr model.EnvironmentRestoreError
	assert.ErrorAs(t, err, &restoreErr)
	assert.Equal(t, "geo-spoof", restoreErr.Profile)
}

func TestScopedReturnsToSessionThrottle(t *testing.T) {
	f := drivertest.New()

	throttle := model.NetworkConditions{LatencyMS: 100, DownloadBps: 187_500, UploadBps: 86_250}

	e := emulator.New(f, emulator.Baseline{
		UserAgent:         baseUA,
		JavaScriptEnabled: true,
		Network:           &throttle,
	}, slog.Default())

	require.NoError(t, f.EmulateNetwork(context.Background(), throttle))

	err := e.Scoped(context.Background(), spoofProfile(), func(ctx context.Context) error {
		assert.Equal(t, float64(400), f.Network.LatencyMS)
		return nil
	})
	require.NoError(t, err)

	require.NotNil(t, f.Network, "session throttle must survive a scoped network profile")
	assert.Equal(t, throttle, *f.Network)
}

func TestScopedDisablesAndReenablesJavaScript(t *testing.T) {
	f := drivertest.New()
	e := newEmulator(f)

	err := e.Scoped(context.Background(), model.EnvironmentProfile{Name: "no-js", DisableJS: true}, func(ctx context.Context) error {
		assert.False(t, f.JSEnabled)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, f.JSEnabled)
}

func TestApplyFailureStillRestoresAppliedDimensions(t *testing.T) {
	f := drivertest.New()
	f.SetUserAgentFailures = 1 // headers apply, the user agent step fails
	e := newEmulator(f)

	ran := false

	err := e.Scoped(context.Background(), spoofProfile(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.Error(t, err)

	assert.False(t, ran, "fn must not run when the profile could not be applied")
	assert.Empty(t, f.Headers, "applied headers must be reverted")
}

func TestResetBaseline(t *testing.T) {
	f := drivertest.New()
	e := newEmulator(f)

	f.UserAgent = "polluted"
	f.JSEnabled = false
	f.Headers["X-Forwarded-For"] = "127.0.0.1"

	require.NoError(t, e.ResetBaseline(context.Background()))

	assert.Equal(t, baseUA, f.UserAgent)
	assert.True(t, f.JSEnabled)
	assert.Empty(t, f.Headers)
}
