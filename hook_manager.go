package fraudsim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// Hook is the minimal contract every hook implements; the concrete listener
// interfaces below determine which notifications it receives.
type Hook interface {
	Name() string
	Init() error
}

type SessionFinishedListener interface {
	Hook
	SessionFinished(session model.TestSession)
}

type AsyncSessionFinishedListener interface {
	Hook
	SessionFinishedAsync(session model.TestSession, callback func(context map[string]any))
}

// AsyncHookCallback allows async hooks to attach additional context to a
// finished session, e.g. links to external log systems.
type AsyncHookCallback func(context map[string]any)

type asyncHookCallback func(h Hook, context map[string]any)

type hookManager struct {
	all                  []Hook
	sessionFinished      []SessionFinishedListener
	sessionFinishedAsync []AsyncSessionFinishedListener

	asyncCallback asyncHookCallback

	asyncHooksRunning sync.WaitGroup

	log *slog.Logger
}

func newHookManager(callback asyncHookCallback, log *slog.Logger) *hookManager {
	return &hookManager{
		all:                  []Hook{},
		sessionFinished:      []SessionFinishedListener{},
		sessionFinishedAsync: []AsyncSessionFinishedListener{},

		asyncCallback: callback,
		log:           log,
	}
}

func (m *hookManager) init() error {
	for _, h := range m.all {
		if err := h.Init(); err != nil {
			return fmt.Errorf("initiating hook %q: %w", h.Name(), err)
		}

		registeredHook := false

		if l, ok := h.(SessionFinishedListener); ok {
			m.sessionFinished = append(m.sessionFinished, l)
			registeredHook = true
		}
		if l, ok := h.(AsyncSessionFinishedListener); ok {
			m.sessionFinishedAsync = append(m.sessionFinishedAsync, l)
			registeredHook = true
		}

		if !registeredHook {
			return fmt.Errorf("hook %q does not implement any listener", h.Name())
		}
	}

	return nil
}

// shutdown returns a context that is cancelled once all async hooks have
// drained.
func (m *hookManager) shutdown() context.Context {
	cancelCtx, cancel := context.WithCancel(context.Background())

	go func() {
		m.asyncHooksRunning.Wait()
		cancel()
	}()

	return cancelCtx
}

func (m *hookManager) notifySessionFinished(session model.TestSession) {
	for _, l := range m.sessionFinished {
		l.SessionFinished(session)
	}
}

func (m *hookManager) notifySessionFinishedAsync(session model.TestSession) {
	for _, l := range m.sessionFinishedAsync {
		m.asyncHooksRunning.Add(1)

		hook := l
		go func() {
			defer m.asyncHooksRunning.Done()

			defer func() {
				if r := recover(); r != nil {
					m.log.Error("async hook panicked", "hook", hook.Name(), "panic", r)
				}
			}()

			hook.SessionFinishedAsync(session, m.newAsyncHookCallback(hook))
		}()
	}
}

func (m *hookManager) newAsyncHookCallback(h Hook) AsyncHookCallback {
	return func(c map[string]any) {
		m.asyncCallback(h, c)
	}
}
