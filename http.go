package fraudsim

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

type httpCloser interface {
	Close() error
}

func (s *Server) runHTTP() error {
	router := httprouter.New()

	router.POST("/session", s.StartSessionRun)
	router.GET("/session/:session-id", s.GetSession)
	router.GET("/session/:session-id/logs", s.GetSessionLogs)
	router.GET("/session/:session-id/clicks", s.GetSessionClicks)
	router.GET("/scenarios", s.GetScenarios)
	router.Handler("GET", "/metrics", promhttp.Handler())

	listener, err := net.Listen("tcp", "localhost:"+strconv.Itoa(s.port))
	if err != nil {
		return err
	}

	s.port = listener.Addr().(*net.TCPAddr).Port

	server := &http.Server{Handler: router}
	s.httpServer = server

	close(s.started)

	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) httpError(w http.ResponseWriter, err error) {
	var notFound model.NotFoundError
	var malformedRequest model.MalformedRequestError
	var unknownScenario model.UnknownScenarioError

	switch {
	case errors.As(err, &notFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &malformedRequest), errors.As(err, &unknownScenario):
		w.WriteHeader(http.StatusBadRequest)
	default:
		s.log.Error("handling request", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("writing response body", "error", err)
	}
}

func (s *Server) StartSessionRun(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SessionRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.httpError(w, model.MalformedRequestError{Param: "body"})
		return
	}

	if req.Business == "" {
		s.httpError(w, model.MalformedRequestError{Param: "business"})
		return
	}

	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = s.registry.Names()
	}

	for _, name := range scenarios {
		if _, err := s.registry.Resolve(name); err != nil {
			s.httpError(w, err)
			return
		}
	}

	triggeredBy := req.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = "api"
	}

	ts := s.startSession(req.Business, scenarios, triggeredBy)

	s.writeJSON(w, ts)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	ts, err := s.getSession(r, p)
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.writeJSON(w, ts)
}

func (s *Server) GetSessionLogs(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if _, err := s.getSession(r, p); err != nil {
		s.httpError(w, err)
		return
	}

	logs, err := s.storage.LoadLogs(r.Context(), p.ByName("session-id"))
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.writeJSON(w, logs)
}

func (s *Server) GetSessionClicks(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if _, err := s.getSession(r, p); err != nil {
		s.httpError(w, err)
		return
	}

	clicks, err := s.storage.LoadClickEvents(r.Context(), p.ByName("session-id"))
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.writeJSON(w, clicks)
}

func (s *Server) GetScenarios(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, s.registry.Names())
}

// getSession prefers the live in-memory state and falls back to storage for
// sessions finished before a restart.
func (s *Server) getSession(r *http.Request, p httprouter.Params) (model.TestSession, error) {
	id := p.ByName("session-id")
	if id == "" {
		return model.TestSession{}, model.MalformedRequestError{Param: "session-id"}
	}

	if val, ok := s.sessions.Load(id); ok {
		return val.(model.TestSession), nil
	}

	return s.storage.LoadTestSession(r.Context(), id)
}
