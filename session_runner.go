package fraudsim

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/emulator"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/metric"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/scenario"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/telemetry"
)

// runSession executes one session's scenarios strictly sequentially in a
// fresh browser context. The first unrecovered scenario error fails the
// session and halts the remaining scenarios.
func (s *Server) runSession(ts model.TestSession) {
	log := s.log.With("session-id", ts.ID, "guv", ts.GUV, "business", ts.Business)

	running := metric.SessionsRunning.WithLabelValues(ts.Business)

	running.Inc()
	defer func() {
		running.Dec()
	}()

	finish := func(err error) {
		s.events <- sessionFinishedEvent{
			sessionIdentifier: sessionIdentifier{sessionID: ts.ID},
			end:               time.Now(),
			err:               err,
		}
	}

	cfg := s.baseConfig
	cfg.Business = ts.Business
	if cfg.Device != nil && cfg.Device.UserAgent != "" {
		cfg.BaseUserAgent = cfg.Device.UserAgent
	}

	d, err := s.newDriver(cfg, log)
	if err != nil {
		log.Error("starting browser failed", "error", err)
		finish(fmt.Errorf("starting browser: %w", err))
		return
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			log.Warn("closing browser failed", "error", cerr)
		}
	}()

	ctx := context.Background()

	if cfg.Device != nil {
		if err := d.SetViewport(ctx, cfg.Device.Width, cfg.Device.Height, cfg.Device.Mobile); err != nil {
			finish(fmt.Errorf("applying device override: %w", err))
			return
		}
	}

	if cfg.Network != nil {
		if err := d.EmulateNetwork(ctx, *cfg.Network); err != nil {
			finish(fmt.Errorf("applying network override: %w", err))
			return
		}
	}

	env := emulator.New(d, emulator.Baseline{
		UserAgent:         cfg.BaseUserAgent,
		JavaScriptEnabled: true,
		Headers:           map[string]string{},
		Network:           cfg.Network,
	}, log)

	recorder := telemetry.NewRecorder(s.storage, log, func(tr model.TestResult) {
		s.events <- resultAppendedEvent{
			sessionIdentifier: sessionIdentifier{sessionID: ts.ID},
			result:            tr,
		}
	})

	rnd := s.newSeededRand()

	var sessionErr error

	for _, name := range ts.Scenarios {
		strat, err := s.registry.Resolve(name)
		if err != nil {
			sessionErr = err
			break
		}

		// scenarios inherit each other's browser context; the baseline reset
		// guarantees each one starts from default headers/UA/JS state
		if err := env.ResetBaseline(ctx); err != nil {
			sessionErr = fmt.Errorf("resetting baseline before scenario %q: %w", name, err)
			break
		}

		sc := &scenario.Context{
			Session:   &ts,
			Config:    cfg,
			Driver:    d,
			Env:       env,
			Telemetry: recorder,
			Rand:      rnd,
			Log:       log.With("scenario", name),
			Scenario:  name,
		}

		log.Info("scenario started", "scenario", name)

		err = strat.Execute(ctx, sc)

		result := "passed"
		if err != nil {
			result = "failed"
		}
		metric.ScenariosRun.WithLabelValues(name, result).Inc()

		if err != nil {
			sessionErr = model.ScenarioExecutionError{
				Scenario:   name,
				LastAction: sc.LastAction(),
				Err:        err,
			}

			log.Error("scenario failed", "scenario", name, "last-action", sc.LastAction(), "error", err)
			break
		}

		log.Info("scenario finished", "scenario", name)
	}

	finish(sessionErr)
}
