package telemetry_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/telemetry"
)

type flakyStore struct {
	results     []model.TestResult
	logs        []model.LogEntry
	clicks      []model.ClickEvent
	transitions []model.ScreenTransition

	err error
}

func (s *flakyStore) InsertTestResult(_ context.Context, tr model.TestResult) error {
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, tr)
	return nil
}

func (s *flakyStore) InsertLog(_ context.Context, entry model.LogEntry) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *flakyStore) InsertClickEvent(_ context.Context, ce model.ClickEvent) error {
	if s.err != nil {
		return s.err
	}
	s.clicks = append(s.clicks, ce)
	return nil
}

func (s *flakyStore) InsertScreenTransition(_ context.Context, st model.ScreenTransition) error {
	if s.err != nil {
		return s.err
	}
	s.transitions = append(s.transitions, st)
	return nil
}

func TestRecorderPreservesAppendOrder(t *testing.T) {
	store := &flakyStore{}
	rec := telemetry.NewRecorder(store, slog.Default(), nil)

	ctx := context.Background()

	for _, action := range []string{"visit_1", "visit_2", "click"} {
		rec.AddTestResult(ctx, model.TestResult{SessionID: "s1", Scenario: "ClickStorms", Action: action})
	}

	assert.Len(t, store.results, 3)
	assert.Equal(t, "visit_1", store.results[0].Action)
	assert.Equal(t, "visit_2", store.results[1].Action)
	assert.Equal(t, "click", store.results[2].Action)
	assert.False(t, store.results[0].Timestamp.IsZero(), "timestamp is defaulted on append")
}

func TestRecorderSwallowsSinkFailures(t *testing.T) {
	store := &flakyStore{err: errors.New("sink unavailable")}
	rec := telemetry.NewRecorder(store, slog.Default(), nil)

	ctx := context.Background()

	// none of these may panic or surface the sink error
	rec.AddTestResult(ctx, model.TestResult{SessionID: "s1"})
	rec.AddLog(ctx, model.LogEntry{SessionID: "s1", Message: "m"})
	rec.LogClickEvent(ctx, model.ClickEvent{SessionID: "s1"})
	rec.LogScreenTransition(ctx, model.ScreenTransition{SessionID: "s1"})

	assert.Empty(t, store.results)
}

func TestRecorderNotifiesObserverEvenWhenSinkFails(t *testing.T) {
	store := &flakyStore{err: errors.New("sink unavailable")}

	observed := []model.TestResult{}
	rec := telemetry.NewRecorder(store, slog.Default(), func(tr model.TestResult) {
		observed = append(observed, tr)
	})

	rec.AddTestResult(context.Background(), model.TestResult{SessionID: "s1", Action: "click_1"})

	assert.Len(t, observed, 1)
	assert.Equal(t, "click_1", observed[0].Action)
}
