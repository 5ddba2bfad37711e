// Package client is a typed http client for the simulator's operator API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

type TestSession = model.TestSession
type LogEntry = model.LogEntry
type ClickEvent = model.ClickEvent

type Client struct {
	http *http.Client
	host string
}

type RequestError struct {
	ResponseCode int
}

func (e RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.ResponseCode)
}

func New(host string, c *http.Client) Client {
	return Client{http: c, host: host}
}

func (c Client) CreateSession(ctx context.Context, business string, scenarios []string) (TestSession, error) {
	body, err := json.Marshal(model.SessionRequest{Business: business, Scenarios: scenarios})
	if err != nil {
		return TestSession{}, err
	}

	req, err := http.NewRequest("POST", c.url("/session"), bytes.NewReader(body))
	if err != nil {
		return TestSession{}, err
	}

	var ts TestSession

	if err = c.do(ctx, req, &ts); err != nil {
		return TestSession{}, err
	}

	return ts, nil
}

func (c Client) GetSession(ctx context.Context, sessionID string) (TestSession, error) {
	req, err := http.NewRequest("GET", c.url("/session/%s", sessionID), nil)
	if err != nil {
		return TestSession{}, err
	}

	var ts TestSession

	if err = c.do(ctx, req, &ts); err != nil {
		return TestSession{}, err
	}

	return ts, nil
}

func (c Client) GetSessionLogs(ctx context.Context, sessionID string) ([]LogEntry, error) {
	req, err := http.NewRequest("GET", c.url("/session/%s/logs", sessionID), nil)
	if err != nil {
		return nil, err
	}

	var logs []LogEntry

	if err = c.do(ctx, req, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (c Client) GetSessionClicks(ctx context.Context, sessionID string) ([]ClickEvent, error) {
	req, err := http.NewRequest("GET", c.url("/session/%s/clicks", sessionID), nil)
	if err != nil {
		return nil, err
	}

	var clicks []ClickEvent

	if err = c.do(ctx, req, &clicks); err != nil {
		return nil, err
	}

	return clicks, nil
}

func (c Client) GetScenarios(ctx context.Context) ([]string, error) {
	req, err := http.NewRequest("GET", c.url("/scenarios"), nil)
	if err != nil {
		return nil, err
	}

	var names []string

	if err = c.do(ctx, req, &names); err != nil {
		return nil, err
	}

	return names, nil
}

func (c Client) url(path string, args ...any) string {
	return fmt.Sprintf(c.host+path, args...)
}

func (c Client) do(ctx context.Context, req *http.Request, body any) error {
	req = req.WithContext(ctx)
	req.Header.Add("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return RequestError{res.StatusCode}
	}

	if body != nil {
		d := json.NewDecoder(res.Body)

		if err = d.Decode(body); err != nil {
			return err
		}
	}

	return nil
}
