package fraudsim

import (
	"log/slog"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/scenario"
)

// WithScheduledSession schedules a session to run at certain intervals.
// Ignored in CLI mode.
func WithScheduledSession(ss ScheduledSession) Option {
	return func(s *Server) {
		s.schedules = append(s.schedules, ss)
	}
}

func WithServerPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithBaseConfig replaces the default behavioral configuration that every
// session starts from.
func WithBaseConfig(cfg model.BehavioralConfig) Option {
	return func(s *Server) {
		s.baseConfig = cfg
	}
}

// WithEnvironment points the simulator at a different set of target base
// URLs, keeping the rest of the base configuration.
func WithEnvironment(env model.EnvironmentDescriptor) Option {
	return func(s *Server) {
		s.baseConfig.Env = env
	}
}

func WithRegistry(r *scenario.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithDriverFactory replaces how browser drivers are created, e.g. with an
// in-memory fake for acceptance tests.
func WithDriverFactory(f DriverFactory) Option {
	return func(s *Server) {
		s.newDriver = f
	}
}

func WithHook(h Hook) Option {
	return func(s *Server) {
		s.hooks.all = append(s.hooks.all, h)
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithSeed pins the scenarios' random source for deterministic runs. Zero
// derives the seed from the clock.
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.seed = seed
	}
}
