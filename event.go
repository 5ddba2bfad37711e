package fraudsim

import (
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

type event interface {
	Apply(model.TestSession) model.TestSession
	SessionID() string
}

type sessionIdentifier struct {
	sessionID string
}

func (e sessionIdentifier) SessionID() string {
	return e.sessionID
}

type sessionStartedEvent struct {
	sessionIdentifier
	guv         string
	business    string
	scenarios   []string
	triggeredBy string
	start       time.Time
}

func (e sessionStartedEvent) Apply(ts model.TestSession) model.TestSession {
	ts.ID = e.sessionID
	ts.GUV = e.guv
	ts.Business = e.business
	ts.Scenarios = append([]string{}, e.scenarios...)
	ts.Status = model.StatusRunning
	ts.TriggeredBy = e.triggeredBy
	ts.Start = e.start
	ts.Results = []model.TestResult{}

	return ts
}

type resultAppendedEvent struct {
	sessionIdentifier
	result model.TestResult
}

func (e resultAppendedEvent) Apply(ts model.TestSession) model.TestSession {
	ts.Results = append(ts.Results, e.result)

	return ts
}

type sessionFinishedEvent struct {
	sessionIdentifier
	end time.Time
	err error
}

func (e sessionFinishedEvent) Apply(ts model.TestSession) model.TestSession {
	ts.End = e.end

	if e.err != nil {
		ts.Status = model.StatusFailed
		ts.Error = e.err.Error()
	} else {
		ts.Status = model.StatusCompleted
	}

	return ts
}
