package scenario

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver/drivertest"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/emulator"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/telemetry"
)

// memStore collects telemetry records in order so tests can assert on the
// exact labeled stream a scenario produced.
type memStore struct {
	results     []model.TestResult
	logs        []model.LogEntry
	clicks      []model.ClickEvent
	transitions []model.ScreenTransition
}

func (s *memStore) InsertTestResult(_ context.Context, tr model.TestResult) error {
	s.results = append(s.results, tr)
	return nil
}

func (s *memStore) InsertLog(_ context.Context, entry model.LogEntry) error {
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memStore) InsertClickEvent(_ context.Context, ce model.ClickEvent) error {
	s.clicks = append(s.clicks, ce)
	return nil
}

func (s *memStore) InsertScreenTransition(_ context.Context, st model.ScreenTransition) error {
	s.transitions = append(s.transitions, st)
	return nil
}

const baselineAgent = "baseline-agent"

func newTestContext(name string) (*Context, *drivertest.Fake, *memStore) {
	f := drivertest.New()
	f.UserAgent = baselineAgent

	store := &memStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := emulator.New(f, emulator.Baseline{
		UserAgent:         baselineAgent,
		JavaScriptEnabled: true,
		Headers:           map[string]string{},
	}, log)

	sc := &Context{
		Session: &model.TestSession{ID: "session-1", GUV: "guv-1"},
		Config: model.BehavioralConfig{
			Business:      "Mia's Tacos",
			BaseUserAgent: baselineAgent,
			Env: model.EnvironmentDescriptor{
				WebBaseURL:    "https://web.test",
				MobileBaseURL: "https://m.test",
				SearchBaseURL: "https://web.test/search",
			},
		},
		Driver:    f,
		Env:       env,
		Telemetry: telemetry.NewRecorder(store, log, nil),
		Rand:      rand.New(rand.NewSource(1)),
		Log:       log,
		Scenario:  name,
	}

	return sc, f, store
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	names := r.Names()
	assert.Len(t, names, 12)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		s, err := r.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	_, err := r.Resolve("TotallyUnknown")

	var unknown model.UnknownScenarioError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "TotallyUnknown", unknown.Name)
}

func TestResolveBusinessURLFallsBackDeterministically(t *testing.T) {
	sc, f, _ := newTestContext("ClickStorms")
	f.Selectors = map[string]bool{} // empty DOM

	url := sc.resolveBusinessURL(context.Background())

	assert.Equal(t, "https://web.test/biz/mias-tacos", url)
	assert.Equal(t, url, sc.fallbackBusinessURL())
}

func TestFastClickRateFlagsBeyondRateCeiling(t *testing.T) {
	sc, f, store := newTestContext("FastClickRate")

	require.NoError(t, FastClickRate{}.Execute(context.Background(), sc))

	require.Len(t, store.results, fastClickCycles)

	for i, tr := range store.results {
		expectFlagged := i >= fastClickFlagAfter

		require.NotNil(t, tr.FilterTriggered, "result %d", i)
		require.NotNil(t, tr.ClickRecorded, "result %d", i)
		assert.Equal(t, expectFlagged, *tr.FilterTriggered, "result %d", i)
		assert.Equal(t, !expectFlagged, *tr.ClickRecorded, "result %d", i)
		assert.Equal(t, "FastClickRate", tr.Scenario)
	}

	assert.Equal(t, "rapid_click_10", store.results[len(store.results)-1].Action)
	assert.GreaterOrEqual(t, len(f.Clicks), fastClickCycles)
}

func TestNoJSClicksEmitsSingleFilteredResult(t *testing.T) {
	sc, f, store := newTestContext("NoJSClicks")

	require.NoError(t, NoJSClicks{}.Execute(context.Background(), sc))

	require.Len(t, store.results, 1)
	tr := store.results[0]
	assert.Equal(t, "js_disabled_click", tr.Action)
	assert.True(t, *tr.FilterTriggered)
	assert.False(t, *tr.ClickRecorded)

	require.Len(t, store.clicks, 1)
	assert.Equal(t, "no_js_client", store.clicks[0].BillableClickReason)
	assert.False(t, store.clicks[0].BillableClick)

	// the click itself happened with scripts off, the session leaves with
	// scripts back on
	require.NotEmpty(t, f.Clicks)
	assert.False(t, f.Clicks[len(f.Clicks)-1].JSEnabled)
	assert.True(t, f.JSEnabled)
}

func TestGeoLocatedProxiesLabelsExcludedCountries(t *testing.T) {
	sc, f, store := newTestContext("GeoLocatedProxies")

	require.NoError(t, GeoLocatedProxies{}.Execute(context.Background(), sc))

	billableByCountry := map[string]bool{}
	for _, tr := range store.results {
		require.True(t, strings.HasPrefix(tr.Action, "geo_click_"), tr.Action)
		country := strings.TrimPrefix(tr.Action, "geo_click_")
		billableByCountry[country] = *tr.ClickRecorded
	}

	for _, excluded := range []string{"CU", "IR", "KP", "SD", "SY"} {
		recorded, ok := billableByCountry[excluded]
		require.True(t, ok, "missing result for %s", excluded)
		assert.False(t, recorded, "click from %s must be filtered", excluded)
	}

	recorded, ok := billableByCountry["US"]
	require.True(t, ok, "missing US control result")
	assert.True(t, recorded, "US control click must stay billable")

	// spoofed headers do not leak out of the scenario
	assert.Empty(t, f.Headers)
}

func TestGeoLocatedProxiesReportsImpressionCheckFailure(t *testing.T) {
	sc, f, store := newTestContext("GeoLocatedProxies")
	f.EvaluateFn = func(_ string, _ any) error {
		return errors.New("execution context destroyed")
	}

	require.NoError(t, GeoLocatedProxies{}.Execute(context.Background(), sc))

	require.NotEmpty(t, store.results)
	for _, tr := range store.results {
		assert.Contains(t, tr.Details, "impression check unavailable", tr.Action)
	}
}

func TestInternalIPSpoofingFiltersEveryClick(t *testing.T) {
	sc, f, store := newTestContext("InternalIPSpoofing")

	require.NoError(t, InternalIPSpoofing{}.Execute(context.Background(), sc))

	require.Len(t, store.results, 4)
	for _, tr := range store.results {
		assert.Equal(t, "internal_ip_click", tr.Action)
		assert.True(t, *tr.FilterTriggered)
		assert.False(t, *tr.ClickRecorded)
	}

	for _, ce := range store.clicks {
		assert.Equal(t, "internal_ip", ce.BillableClickReason)
		assert.False(t, ce.BillableClick)
	}

	assert.Empty(t, f.Headers)
}

func TestInvalidAndroidVersionRestoresUserAgent(t *testing.T) {
	sc, f, store := newTestContext("InvalidAndroidVersionTest")

	require.NoError(t, InvalidAndroidVersionTest{}.Execute(context.Background(), sc))

	require.Len(t, store.results, len(malformedAndroidUAs))
	for _, tr := range store.results {
		assert.True(t, *tr.FilterTriggered)
		assert.False(t, *tr.ClickRecorded)
	}

	assert.Equal(t, baselineAgent, f.UserAgent)
}

func TestLatencyManipulationKeepsClicksBillable(t *testing.T) {
	sc, f, store := newTestContext("LatencyManipulation")

	require.NoError(t, LatencyManipulation{}.Execute(context.Background(), sc))

	require.NotEmpty(t, store.clicks)
	for _, ce := range store.clicks {
		assert.True(t, ce.BillableClick, "throttled click flagged: %s", ce.BillableClickReason)
		assert.False(t, ce.FilterTriggered)
	}

	// every throttle preset was reverted
	assert.Nil(t, f.Network)
}

func TestLatencyManipulationPreservesSessionThrottle(t *testing.T) {
	sc, f, _ := newTestContext("LatencyManipulation")

	throttle := model.NetworkConditions{LatencyMS: 100, DownloadBps: 512_000, UploadBps: 384_000}
	sc.Config.Network = &throttle
	sc.Env = emulator.New(f, emulator.Baseline{
		UserAgent:         baselineAgent,
		JavaScriptEnabled: true,
		Network:           &throttle,
	}, sc.Log)
	require.NoError(t, f.EmulateNetwork(context.Background(), throttle))

	require.NoError(t, LatencyManipulation{}.Execute(context.Background(), sc))

	// scoped presets revert to the session throttle, not to an unthrottled link
	require.NotNil(t, f.Network)
	assert.Equal(t, throttle, *f.Network)
}

func TestSessionPollutionTaintsTrailingClicks(t *testing.T) {
	sc, _, store := newTestContext("SessionPollution")

	require.NoError(t, SessionPollution{}.Execute(context.Background(), sc))

	var phase1, phase2, phase3 []model.TestResult
	for _, tr := range store.results {
		switch {
		case strings.HasPrefix(tr.Action, "phase1_"):
			phase1 = append(phase1, tr)
		case strings.HasPrefix(tr.Action, "phase2_"):
			phase2 = append(phase2, tr)
		case strings.HasPrefix(tr.Action, "phase3_"):
			phase3 = append(phase3, tr)
		}
	}

	require.Len(t, phase1, pollutionLegitClicks)
	require.Len(t, phase2, 1)
	require.Len(t, phase3, pollutionTaintedClicks)

	for _, tr := range phase1 {
		assert.True(t, *tr.ClickRecorded, "clean click %s must be billable", tr.Action)
	}

	// phase 3 timing is indistinguishable from phase 1, yet the polluted
	// session makes its clicks non-billable
	for _, tr := range phase3 {
		assert.True(t, *tr.FilterTriggered, tr.Action)
		assert.False(t, *tr.ClickRecorded, tr.Action)
	}
}

func TestMobileAppClicksRestoresDesktopFingerprint(t *testing.T) {
	sc, f, store := newTestContext("MobileAppClicks")

	require.NoError(t, MobileAppClicks{}.Execute(context.Background(), sc))

	require.Len(t, store.results, mobileAppClickCount)
	for _, tr := range store.results {
		assert.False(t, *tr.FilterTriggered, tr.Action)
		assert.True(t, *tr.ClickRecorded, tr.Action)
	}

	for _, ce := range store.clicks {
		assert.Equal(t, "mobile_app_traffic", ce.BillableClickReason)
		assert.Equal(t, mobileAppUserAgent, ce.UserAgent)
	}

	assert.Equal(t, desktopViewportWidth, f.ViewportWidth)
	assert.Equal(t, desktopViewportHeight, f.ViewportHeight)
	assert.False(t, f.Mobile)
	assert.Equal(t, baselineAgent, f.UserAgent)
}

func TestMobileAppClicksHonorsDeviceOverride(t *testing.T) {
	sc, f, _ := newTestContext("MobileAppClicks")
	sc.Config.Device = &model.DeviceOverride{
		Width:     412,
		Height:    915,
		Mobile:    true,
		Touch:     true,
		UserAgent: "custom-handset-agent",
	}

	require.NoError(t, MobileAppClicks{}.Execute(context.Background(), sc))

	// the override is the session's viewport, so the run must not leave the
	// browser on desktop metrics afterwards
	assert.Equal(t, 412, f.ViewportWidth)
	assert.Equal(t, 915, f.ViewportHeight)
	assert.True(t, f.Mobile)
	assert.Equal(t, baselineAgent, f.UserAgent)
}

func TestUIOnlyInteractionNeverUsesRealInput(t *testing.T) {
	sc, f, store := newTestContext("UIOnlyInteraction")
	f.EvaluateFn = func(_ string, out any) error {
		if b, ok := out.(*bool); ok {
			*b = true
		}
		return nil
	}

	require.NoError(t, UIOnlyInteraction{}.Execute(context.Background(), sc))

	// no protocol-level input at all: activations travel through page script
	assert.Empty(t, f.Clicks)
	assert.Empty(t, f.Typed)

	require.Len(t, store.results, len(syntheticActivations))
	actions := make([]string, 0, len(store.results))
	for _, tr := range store.results {
		assert.True(t, tr.Success, tr.Action)
		assert.True(t, *tr.FilterTriggered, tr.Action)
		assert.False(t, *tr.ClickRecorded, tr.Action)
		actions = append(actions, tr.Action)
	}

	// the full activation family, including the ARIA and custom-event paths
	for _, want := range []string{
		"synthetic_focus_blur", "synthetic_keyboard_enter", "synthetic_mouse_click",
		"synthetic_touch_tap", "synthetic_aria_activation",
		"synthetic_element_click_method", "synthetic_custom_event",
	} {
		assert.Contains(t, actions, want)
	}

	for _, ce := range store.clicks {
		assert.Equal(t, "synthetic_event", ce.BillableClickReason)
		assert.False(t, ce.BillableClick)
	}
}

func TestClickStormsEmitsVarianceSummary(t *testing.T) {
	sc, f, store := newTestContext("ClickStorms")

	require.NoError(t, ClickStorms{}.Execute(context.Background(), sc))

	require.Len(t, store.results, clickStormVisits+1)
	assert.Equal(t, "dwell_variance", store.results[len(store.results)-1].Action)

	// the fake driver records dwell bands instead of sleeping through them
	assert.GreaterOrEqual(t, len(f.Waits), clickStormVisits)
}

func TestExcessiveBusinessViewsFlagsVolume(t *testing.T) {
	sc, _, store := newTestContext("ExcessiveBusinessViews")

	require.NoError(t, ExcessiveBusinessViews{}.Execute(context.Background(), sc))

	last := store.results[len(store.results)-1]
	assert.Equal(t, "view_volume_summary", last.Action)

	var flagged int
	for _, tr := range store.results[:len(store.results)-1] {
		if tr.FilterTriggered != nil && *tr.FilterTriggered {
			flagged++
		}
	}
	assert.Positive(t, flagged, "a 25-view burst must flag trailing views")
}

func TestHighVolumeSearchRecordsSearches(t *testing.T) {
	sc, f, store := newTestContext("HighVolumeSearch")

	require.NoError(t, HighVolumeSearch{}.Execute(context.Background(), sc))

	var searches int
	for _, tr := range store.results {
		if strings.HasPrefix(tr.Action, "search_") {
			searches++
		}
	}
	assert.Equal(t, 50, searches)
	assert.GreaterOrEqual(t, len(f.Navigations), 50)
}
