// Package telemetry is the append-only sink scenarios report into. Writes are
// fire-and-forget relative to scenario control flow: a failed write is logged
// at warn level and counted, never propagated. Losing an audit record is
// non-fatal, losing scenario completion is not.
package telemetry

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/metric"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// Store is the insert-only persistence boundary. Read paths live on the
// concrete storage type and serve only the reporting layer.
type Store interface {
	InsertTestResult(ctx context.Context, tr model.TestResult) error
	InsertLog(ctx context.Context, entry model.LogEntry) error
	InsertClickEvent(ctx context.Context, ce model.ClickEvent) error
	InsertScreenTransition(ctx context.Context, st model.ScreenTransition) error
}

// ResultObserver is invoked synchronously for every appended TestResult so
// the orchestrator can keep the session's ordered in-memory view current.
type ResultObserver func(tr model.TestResult)

type Recorder struct {
	store    Store
	log      *slog.Logger
	observer ResultObserver
}

func NewRecorder(store Store, log *slog.Logger, observer ResultObserver) *Recorder {
	return &Recorder{store: store, log: log, observer: observer}
}

func (r *Recorder) AddTestResult(ctx context.Context, tr model.TestResult) {
	if tr.Timestamp.IsZero() {
		tr.Timestamp = time.Now()
	}

	if r.observer != nil {
		r.observer(tr)
	}

	if err := r.store.InsertTestResult(ctx, tr); err != nil {
		r.dropped(model.TelemetryWriteError{Kind: "test_result", Err: err}, "session-id", tr.SessionID, "scenario", tr.Scenario)
	}
}

func (r *Recorder) AddLog(ctx context.Context, entry model.LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := r.store.InsertLog(ctx, entry); err != nil {
		r.dropped(model.TelemetryWriteError{Kind: "log", Err: err}, "session-id", entry.SessionID)
	}
}

func (r *Recorder) LogClickEvent(ctx context.Context, ce model.ClickEvent) {
	if ce.ClickedAt.IsZero() {
		ce.ClickedAt = time.Now()
	}

	metric.SimulatedClicks.WithLabelValues(ce.Scenario, strconv.FormatBool(ce.BillableClick)).Inc()

	if err := r.store.InsertClickEvent(ctx, ce); err != nil {
		r.dropped(model.TelemetryWriteError{Kind: "click_event", Err: err}, "session-id", ce.SessionID, "scenario", ce.Scenario)
	}
}

func (r *Recorder) LogScreenTransition(ctx context.Context, st model.ScreenTransition) {
	if err := r.store.InsertScreenTransition(ctx, st); err != nil {
		r.dropped(model.TelemetryWriteError{Kind: "screen_transition", Err: err}, "session-id", st.SessionID)
	}
}

func (r *Recorder) dropped(werr model.TelemetryWriteError, args ...any) {
	metric.TelemetryWriteFailures.WithLabelValues(werr.Kind).Inc()
	r.log.Warn("telemetry record dropped", append([]any{"error", werr}, args...)...)
}
