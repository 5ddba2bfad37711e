package storage_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/storage"
)

func newStorage(t *testing.T) *storage.Storage {
	t.Helper()

	s, err := storage.New("", slog.Default())
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestMigrationAndSessionRoundTrip(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	now := time.Now()

	session := model.TestSession{
		ID:          "sess-1",
		GUV:         "guv-abc",
		Business:    "Main Street Plumbing",
		Scenarios:   []string{"NoJSClicks", "FastClickRate"},
		Status:      model.StatusPending,
		TriggeredBy: "http",
		Start:       now,
	}

	require.NoError(t, s.CreateTestSession(ctx, session))

	session.Status = model.StatusCompleted
	session.End = now.Add(time.Minute)
	require.NoError(t, s.UpdateTestSession(ctx, session))

	loaded, err := s.LoadTestSession(ctx, "sess-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, loaded.Status)
	assert.Equal(t, "guv-abc", loaded.GUV)
	assert.Equal(t, []string{"NoJSClicks", "FastClickRate"}, loaded.Scenarios)
	assert.False(t, loaded.End.IsZero())
}

func TestLoadMissingSession(t *testing.T) {
	s := newStorage(t)

	_, err := s.LoadTestSession(context.Background(), "nope")
	assert.ErrorAs(t, err, &model.NotFoundError{})
}

func TestTestResultsPreserveExecutionOrder(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTestSession(ctx, model.TestSession{
		ID: "sess-2", GUV: "g", Business: "b", Scenarios: []string{"FastClickRate"}, Status: model.StatusRunning,
	}))

	yes, no := true, false

	for i, tr := range []model.TestResult{
		{SessionID: "sess-2", Scenario: "FastClickRate", Action: "click_1", Success: true, ClickRecorded: &yes, FilterTriggered: &no},
		{SessionID: "sess-2", Scenario: "FastClickRate", Action: "click_8", Success: true, ClickRecorded: &no, FilterTriggered: &yes},
		{SessionID: "sess-2", Scenario: "FastClickRate", Action: "summary", Success: true},
	} {
		tr.Timestamp = time.Now().Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, s.InsertTestResult(ctx, tr))
	}

	results, err := s.LoadTestResults(ctx, "sess-2")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "click_1", results[0].Action)
	require.NotNil(t, results[0].ClickRecorded)
	assert.True(t, *results[0].ClickRecorded)

	assert.Equal(t, "click_8", results[1].Action)
	require.NotNil(t, results[1].FilterTriggered)
	assert.True(t, *results[1].FilterTriggered)

	assert.Equal(t, "summary", results[2].Action)
	assert.Nil(t, results[2].FilterTriggered, "optional flags stay unset when not asserted")
	assert.Nil(t, results[2].ClickRecorded)
}

func TestClickEventAndTransitionRoundTrip(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.InsertClickEvent(ctx, model.ClickEvent{
		SessionID:           "sess-3",
		GUV:                 "g",
		BusinessID:          "main-street-plumbing",
		ClickedAt:           time.Now(),
		Screen:              "biz_details",
		URL:                 "https://web.test/biz/main-street-plumbing",
		UserAgent:           "ua",
		Environment:         model.EnvironmentTest,
		FilterTriggered:     true,
		BillableClick:       false,
		BillableClickReason: "internal_ip",
		Scenario:            "InternalIPSpoofing",
	}))

	require.NoError(t, s.InsertScreenTransition(ctx, model.ScreenTransition{
		SessionID:   "sess-3",
		GUV:         "g",
		FromScreen:  "search_results",
		ToScreen:    "biz_details",
		DurationMS:  1250,
		Servlet:     "biz_details",
		Environment: model.EnvironmentTest,
	}))

	events, err := s.LoadClickEvents(ctx, "sess-3")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "internal_ip", events[0].BillableClickReason)
	assert.True(t, events[0].FilterTriggered)
	assert.False(t, events[0].BillableClick)

	transitions, err := s.LoadScreenTransitions(ctx, "sess-3")
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, int64(1250), transitions[0].DurationMS)
}

func TestLogEntries(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.InsertLog(ctx, model.LogEntry{
		SessionID: "sess-4",
		Scenario:  "SessionPollution",
		Level:     model.LogLevelInfo,
		Message:   "phase 2: injected invalid behavior rapid_clicks",
		Timestamp: time.Now(),
	}))

	logs, err := s.LoadLogs(ctx, "sess-4")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogLevelInfo, logs[0].Level)
}
