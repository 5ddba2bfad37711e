// Package fraudsim simulates ad-click behavior patterns against a target web
// property and labels every simulated action with the filter decision the
// target's traffic-quality pipeline is expected to make. A session run
// executes a selection of behavior scenarios strictly sequentially in one
// browser context and records the resulting labeled telemetry stream.
package fraudsim

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/metric"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/scenario"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/storage"
)

// Reexports so library users don't need to import internal packages.

type BehavioralConfig = model.BehavioralConfig
type EnvironmentDescriptor = model.EnvironmentDescriptor
type DeviceOverride = model.DeviceOverride
type NetworkConditions = model.NetworkConditions
type TestSession = model.TestSession
type TestResult = model.TestResult

// DriverFactory creates the browser driver backing one session run. The
// default factory launches Chrome over the devtools protocol; tests inject
// an in-memory fake.
type DriverFactory func(cfg model.BehavioralConfig, log *slog.Logger) (driver.Driver, error)

type Server struct {
	port       int
	serverMode bool
	dbFilename string
	seed       int64

	cliBusiness  string
	cliScenarios []string

	baseConfig model.BehavioralConfig

	registry  *scenario.Registry
	newDriver DriverFactory

	storage *storage.Storage

	hooks *hookManager

	schedules []ScheduledSession
	cron      *cron.Cron

	// sessions maps session id to its current state. Only ever written to
	// from the eventLoop.
	sessions sync.Map

	events chan event

	httpServer httpCloser
	started    chan struct{}

	log *slog.Logger
}

type Option func(s *Server)

// New configures a new simulator instance.
func New(opts ...Option) *Server {
	log := slog.Default()

	s := &Server{
		port:       8087,
		serverMode: true,
		dbFilename: "fraudsim.db",
		baseConfig: defaultConfig(),
		registry:   scenario.DefaultRegistry(),
		events:     make(chan event, 100),
		started:    make(chan struct{}),
		log:        log,
	}

	s.newDriver = func(cfg model.BehavioralConfig, log *slog.Logger) (driver.Driver, error) {
		return driver.NewChrome(driver.ChromeOptions{
			Headless:  cfg.Headless,
			UserAgent: cfg.BaseUserAgent,
		}, log)
	}

	s.hooks = newHookManager(s.hookContext, log)

	for _, o := range opts {
		o(s)
	}

	s.hooks.log = s.log

	return s
}

func defaultConfig() model.BehavioralConfig {
	return model.BehavioralConfig{
		BaseUserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
		Headless: true,
		Env: model.EnvironmentDescriptor{
			WebBaseURL:     "http://localhost:3000",
			MobileBaseURL:  "http://localhost:3001",
			AppBaseURL:     "http://localhost:3002",
			APIBaseURL:     "http://localhost:3100",
			SearchBaseURL:  "http://localhost:3000/search",
			GraphQLBaseURL: "http://localhost:3100/graphql",
			AdEventBaseURL: "http://localhost:3200",
		},
	}
}

func (s *Server) Run() error {
	s.parseFlags()

	if err := s.hooks.init(); err != nil {
		return err
	}

	st, err := storage.New(s.dbFilename, s.log)
	if err != nil {
		return err
	}
	s.storage = st

	go s.eventLoop()

	if !s.serverMode {
		return s.runOnce()
	}

	if err := s.startSchedules(); err != nil {
		return err
	}

	return s.runHTTP()
}

func (s *Server) parseFlags() {
	var port = flag.Int("p", s.port, "port of the operator http server")
	var db = flag.String("d", s.dbFilename, "sqlite database file, empty for in-memory")
	var seed = flag.Int64("seed", s.seed, "random source seed, 0 derives one from the clock")
	var business = flag.String("b", "", "run one session against this business and exit")
	var scenarios = flag.String("scenarios", "", "comma separated scenario names for -b, empty runs all")
	var list = flag.Bool("l", false, "list all registered scenarios and exit")

	flag.Parse()

	if *list {
		s.printScenarios()
	}

	s.port = *port
	s.dbFilename = *db
	s.seed = *seed

	if *business != "" {
		s.serverMode = false
		s.cliBusiness = *business

		if *scenarios != "" {
			for _, name := range strings.Split(*scenarios, ",") {
				s.cliScenarios = append(s.cliScenarios, strings.TrimSpace(name))
			}
		}
	}
}

func (s *Server) printScenarios() {
	b := strings.Builder{}

	for _, name := range s.registry.Names() {
		b.WriteString(name + "\n")
	}

	fmt.Print(b.String())

	os.Exit(0)
}

// runOnce executes a single session in CLI mode and prints the final session
// state to stdout.
func (s *Server) runOnce() error {
	names := s.cliScenarios
	if len(names) == 0 {
		names = s.registry.Names()
	}

	for _, name := range names {
		if _, err := s.registry.Resolve(name); err != nil {
			return err
		}
	}

	ts := s.startSession(s.cliBusiness, names, "cli")

	for {
		time.Sleep(100 * time.Millisecond)

		val, ok := s.sessions.Load(ts.ID)
		if !ok {
			continue
		}

		current := val.(model.TestSession)
		if !current.Finished() {
			continue
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(current); err != nil {
			return err
		}

		if current.Status == model.StatusFailed {
			return errors.New(current.Error)
		}

		return nil
	}
}

// startSession emits the started event and returns the session's initial
// state without waiting for the run.
func (s *Server) startSession(business string, scenarios []string, triggeredBy string) model.TestSession {
	e := sessionStartedEvent{
		sessionIdentifier: sessionIdentifier{sessionID: uuid.NewString()},
		guv:               uuid.NewString(),
		business:          business,
		scenarios:         scenarios,
		triggeredBy:       triggeredBy,
		start:             time.Now(),
	}

	s.events <- e

	return e.Apply(model.TestSession{})
}

func (s *Server) startSchedules() error {
	s.cron = cron.New(cron.WithSeconds())

	for i := range s.schedules {
		schedule := s.schedules[i]

		scenarios := schedule.Scenarios
		if len(scenarios) == 0 {
			scenarios = s.registry.Names()
		}

		for _, name := range scenarios {
			if _, err := s.registry.Resolve(name); err != nil {
				return fmt.Errorf("starting scheduled session for %q: %w", schedule.Business, err)
			}
		}

		entryID, err := s.cron.AddFunc(schedule.Schedule, func() {
			s.startSession(schedule.Business, scenarios, "scheduled")
		})

		if err != nil {
			return fmt.Errorf("adding scheduled session for %q: %w", schedule.Business, err)
		}

		s.schedules[i].EntryID = entryID
	}

	s.cron.Start()

	return nil
}

// eventLoop applies all session events and updates the sessions map
// accordingly. It should be started as a goroutine once. The sessions map
// must only be written to from here.
func (s *Server) eventLoop() {
	for e := range s.events {
		ts := model.TestSession{}

		if _, ok := e.(sessionStartedEvent); !ok {
			val, found := s.sessions.Load(e.SessionID())
			if !found {
				s.log.Warn("could not handle event, session not found",
					"session-id", e.SessionID(), "event", fmt.Sprintf("%T", e))
				continue
			}

			ts = val.(model.TestSession)
		}

		ts = e.Apply(ts)

		s.sessions.Store(ts.ID, ts)

		switch e.(type) {
		case sessionStartedEvent:
			s.persist(func(ctx context.Context) error {
				return s.storage.CreateTestSession(ctx, ts)
			})

			go s.runSession(ts.Copy())
		case sessionFinishedEvent:
			s.persist(func(ctx context.Context) error {
				return s.storage.UpdateTestSession(ctx, ts)
			})

			metric.SessionsRun.WithLabelValues(ts.Business, string(ts.Status)).Inc()

			s.hooks.notifySessionFinished(ts)
			s.hooks.notifySessionFinishedAsync(ts)
		}
	}
}

func (s *Server) persist(op func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := op(ctx); err != nil {
		s.log.Error("persisting session state", "error", err)
	}
}

// hookContext receives additional context produced by async hooks and keeps
// it on the session's audit trail.
func (s *Server) hookContext(h Hook, context map[string]any) {
	for k, v := range context {
		s.log.Info("hook context", "hook", h.Name(), k, v)
	}
}

// WaitForStartup blocks until the operator http server is accepting
// connections.
func (s *Server) WaitForStartup() {
	<-s.started
}

// ServerPort returns the port the operator http server is bound to. Only
// valid after WaitForStartup returned.
func (s *Server) ServerPort() int {
	return s.port
}

func (s *Server) Shutdown() {
	if s.cron != nil {
		s.cron.Stop()
	}

	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}

	<-s.hooks.shutdown().Done()

	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *Server) newSeededRand() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return rand.New(rand.NewSource(seed))
}
