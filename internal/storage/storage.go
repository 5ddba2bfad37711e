// Package storage persists sessions and telemetry records in sqlite. The
// write surface is insert-only (plus session status upserts owned by the
// orchestrator); the Load* read paths serve the reporting/HTTP layer and are
// never called from scenarios.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

//go:embed migrations/*.sql
var fs embed.FS

type Storage struct {
	db  *sqlx.DB
	log *slog.Logger
}

// New opens (or creates) the sqlite database at dbFilename and applies
// pending migrations. An empty filename yields a throwaway in-memory
// database, which the tests rely on.
func New(dbFilename string, log *slog.Logger) (*Storage, error) {
	db, err := sqlx.Connect("sqlite", connectionString(dbFilename))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Storage{
		db:  db,
		log: log,
	}

	if err = s.migrateDB(db); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func connectionString(filename string) string {
	var cs string
	var options = []string{"_pragma=busy_timeout(5000)", "_pragma=journal_mode(WAL)", "_pragma=foreign_keys(1)", "_pragma=synchronous(normal)"}

	if filename != "" {
		cs = filename
	} else {
		cs = "file:" + randomAlphanumeric(16)
		options = append(options, "mode=memory", "cache=shared")
	}

	for i, o := range options {
		if i == 0 {
			cs += "?"
		} else {
			cs += "&"
		}
		cs += o
	}

	return cs
}

const alphaNumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphaNumericChars[rand.Intn(len(alphaNumericChars))]
	}
	return string(b)
}

func (s *Storage) migrateDB(db *sqlx.DB) error {
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return fmt.Errorf("load db migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("load migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate with instance: %w", err)
	}

	err = m.Up()

	if err == migrate.ErrNoChange {
		s.log.Info("No migrations have been applied. The DB is at the latest state.")
	} else if err != nil {
		return fmt.Errorf("applying db migrations: %w", err)
	}

	return nil
}

func timeFormat(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

func (s *Storage) CreateTestSession(ctx context.Context, ts model.TestSession) error {
	scenarios, err := json.Marshal(ts.Scenarios)
	if err != nil {
		return fmt.Errorf("encoding scenario list: %w", err)
	}

	_, err = s.db.NamedExecContext(ctx, `INSERT INTO TestSession
	(id, guv, business, scenarios, status, triggeredBy, startTime, endTime, error) VALUES
	(:id, :guv, :business, :scenarios, :status, :triggeredBy, :startTime, :endTime, :error)`,
		map[string]any{
			"id":          ts.ID,
			"guv":         ts.GUV,
			"business":    ts.Business,
			"scenarios":   string(scenarios),
			"status":      ts.Status,
			"triggeredBy": ts.TriggeredBy,
			"startTime":   timeFormat(ts.Start),
			"endTime":     timeFormat(ts.End),
			"error":       ts.Error,
		})

	return err
}

func (s *Storage) UpdateTestSession(ctx context.Context, ts model.TestSession) error {
	_, err := s.db.NamedExecContext(ctx, `UPDATE TestSession SET
	status=:status, startTime=:startTime, endTime=:endTime, error=:error
	WHERE id = :id`,
		map[string]any{
			"status":    ts.Status,
			"startTime": timeFormat(ts.Start),
			"endTime":   timeFormat(ts.End),
			"error":     ts.Error,
			"id":        ts.ID,
		})

	return err
}

func (s *Storage) InsertTestResult(ctx context.Context, tr model.TestResult) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO TestResult
	(sessionId, scenario, action, success, details, filterTriggered, clickRecorded, createdAt) VALUES
	(:sessionId, :scenario, :action, :success, :details, :filterTriggered, :clickRecorded, :createdAt)`,
		map[string]any{
			"sessionId":       tr.SessionID,
			"scenario":        tr.Scenario,
			"action":          tr.Action,
			"success":         tr.Success,
			"details":         tr.Details,
			"filterTriggered": tr.FilterTriggered,
			"clickRecorded":   tr.ClickRecorded,
			"createdAt":       timeFormat(tr.Timestamp),
		})

	return err
}

func (s *Storage) InsertLog(ctx context.Context, entry model.LogEntry) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO LogEntry
	(sessionId, scenario, level, message, createdAt) VALUES
	(:sessionId, :scenario, :level, :message, :createdAt)`,
		map[string]any{
			"sessionId": entry.SessionID,
			"scenario":  entry.Scenario,
			"level":     entry.Level,
			"message":   entry.Message,
			"createdAt": timeFormat(entry.Timestamp),
		})

	return err
}

func (s *Storage) InsertClickEvent(ctx context.Context, ce model.ClickEvent) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO ClickEvent
	(sessionId, guv, businessId, clickedAt, screen, url, ip, userAgent, environment, filterTriggered, billableClick, billableClickReason, scenario) VALUES
	(:sessionId, :guv, :businessId, :clickedAt, :screen, :url, :ip, :userAgent, :environment, :filterTriggered, :billableClick, :billableClickReason, :scenario)`,
		map[string]any{
			"sessionId":           ce.SessionID,
			"guv":                 ce.GUV,
			"businessId":          ce.BusinessID,
			"clickedAt":           timeFormat(ce.ClickedAt),
			"screen":              ce.Screen,
			"url":                 ce.URL,
			"ip":                  ce.IP,
			"userAgent":           ce.UserAgent,
			"environment":         ce.Environment,
			"filterTriggered":     ce.FilterTriggered,
			"billableClick":       ce.BillableClick,
			"billableClickReason": ce.BillableClickReason,
			"scenario":            ce.Scenario,
		})

	return err
}

func (s *Storage) InsertScreenTransition(ctx context.Context, st model.ScreenTransition) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO ScreenTransition
	(sessionId, guv, fromScreen, toScreen, durationMs, url, servlet, ip, userAgent, environment) VALUES
	(:sessionId, :guv, :fromScreen, :toScreen, :durationMs, :url, :servlet, :ip, :userAgent, :environment)`,
		map[string]any{
			"sessionId":   st.SessionID,
			"guv":         st.GUV,
			"fromScreen":  st.FromScreen,
			"toScreen":    st.ToScreen,
			"durationMs":  st.DurationMS,
			"url":         st.URL,
			"servlet":     st.Servlet,
			"ip":          st.IP,
			"userAgent":   st.UserAgent,
			"environment": st.Environment,
		})

	return err
}

func (s *Storage) LoadTestSession(ctx context.Context, id string) (model.TestSession, error) {
	r, err := s.db.NamedQuery(`SELECT
	id, guv, business, scenarios, status, triggeredBy, startTime, endTime, error
	FROM TestSession WHERE id = :id`,
		map[string]any{"id": id})
	if err != nil {
		return model.TestSession{}, err
	}
	defer r.Close()

	if !r.Next() {
		return model.TestSession{}, model.NotFoundError{}
	}

	ts, err := scanTestSession(r)
	if err != nil {
		return model.TestSession{}, err
	}

	ts.Results, err = s.LoadTestResults(ctx, id)

	return ts, err
}

func scanTestSession(r *sqlx.Rows) (model.TestSession, error) {
	var (
		ts         model.TestSession
		scenarios  string
		start, end string
	)

	err := r.Scan(&ts.ID, &ts.GUV, &ts.Business, &scenarios, &ts.Status, &ts.TriggeredBy, &start, &end, &ts.Error)
	if err != nil {
		return ts, fmt.Errorf("scanning test session: %w", err)
	}

	if err = json.Unmarshal([]byte(scenarios), &ts.Scenarios); err != nil {
		return ts, fmt.Errorf("decoding scenario list: %w", err)
	}

	ts.Start = parseTime(start)
	ts.End = parseTime(end)

	return ts, nil
}

// LoadTestResults returns a session's results ordered by insertion, which
// reflects execution order.
func (s *Storage) LoadTestResults(ctx context.Context, sessionID string) ([]model.TestResult, error) {
	r, err := s.db.NamedQuery(`SELECT
	sessionId, scenario, action, success, details, filterTriggered, clickRecorded, createdAt
	FROM TestResult WHERE sessionId = :sessionId ORDER BY id`,
		map[string]any{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	results := []model.TestResult{}

	for r.Next() {
		var (
			tr              model.TestResult
			filterTriggered sql.NullBool
			clickRecorded   sql.NullBool
			createdAt       string
		)

		err = r.Scan(&tr.SessionID, &tr.Scenario, &tr.Action, &tr.Success, &tr.Details, &filterTriggered, &clickRecorded, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning test result: %w", err)
		}

		if filterTriggered.Valid {
			tr.FilterTriggered = &filterTriggered.Bool
		}
		if clickRecorded.Valid {
			tr.ClickRecorded = &clickRecorded.Bool
		}
		tr.Timestamp = parseTime(createdAt)

		results = append(results, tr)
	}

	return results, nil
}

func (s *Storage) LoadLogs(ctx context.Context, sessionID string) ([]model.LogEntry, error) {
	r, err := s.db.NamedQuery(`SELECT
	sessionId, scenario, level, message, createdAt
	FROM LogEntry WHERE sessionId = :sessionId ORDER BY id`,
		map[string]any{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	logs := []model.LogEntry{}

	for r.Next() {
		var (
			entry     model.LogEntry
			createdAt string
		)

		if err = r.Scan(&entry.SessionID, &entry.Scenario, &entry.Level, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}

		entry.Timestamp = parseTime(createdAt)
		logs = append(logs, entry)
	}

	return logs, nil
}

func (s *Storage) LoadClickEvents(ctx context.Context, sessionID string) ([]model.ClickEvent, error) {
	r, err := s.db.NamedQuery(`SELECT
	sessionId, guv, businessId, clickedAt, screen, url, ip, userAgent, environment, filterTriggered, billableClick, billableClickReason, scenario
	FROM ClickEvent WHERE sessionId = :sessionId ORDER BY id`,
		map[string]any{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	events := []model.ClickEvent{}

	for r.Next() {
		var (
			ce        model.ClickEvent
			clickedAt string
		)

		err = r.Scan(&ce.SessionID, &ce.GUV, &ce.BusinessID, &clickedAt, &ce.Screen, &ce.URL, &ce.IP, &ce.UserAgent,
			&ce.Environment, &ce.FilterTriggered, &ce.BillableClick, &ce.BillableClickReason, &ce.Scenario)
		if err != nil {
			return nil, fmt.Errorf("scanning click event: %w", err)
		}

		ce.ClickedAt = parseTime(clickedAt)
		events = append(events, ce)
	}

	return events, nil
}

func (s *Storage) LoadScreenTransitions(ctx context.Context, sessionID string) ([]model.ScreenTransition, error) {
	r, err := s.db.NamedQuery(`SELECT
	sessionId, guv, fromScreen, toScreen, durationMs, url, servlet, ip, userAgent, environment
	FROM ScreenTransition WHERE sessionId = :sessionId ORDER BY id`,
		map[string]any{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	transitions := []model.ScreenTransition{}

	for r.Next() {
		var st model.ScreenTransition

		err = r.Scan(&st.SessionID, &st.GUV, &st.FromScreen, &st.ToScreen, &st.DurationMS, &st.URL, &st.Servlet,
			&st.IP, &st.UserAgent, &st.Environment)
		if err != nil {
			return nil, fmt.Errorf("scanning screen transition: %w", err)
		}

		transitions = append(transitions, st)
	}

	return transitions, nil
}
