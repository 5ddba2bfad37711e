package fraudsim_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fraudsim "github.com/arturoroa/YelpYarnNew-sub001"
	"github.com/arturoroa/YelpYarnNew-sub001/client"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/driver/drivertest"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

var te *acceptance

const defaultTimeout = 10 * time.Second

type acceptance struct {
	server *fraudsim.Server
	client client.Client
}

func TestMain(m *testing.M) {
	te = startServer()

	code := m.Run()

	te.server.Shutdown()

	os.Exit(code)
}

func startServer() *acceptance {
	// save go test args
	args := os.Args
	// random port and in-memory database
	os.Args = []string{"fraudsim-test", "-p", "0", "-d", ""}

	s := fraudsim.New(
		fraudsim.WithSeed(1),
		fraudsim.WithDriverFactory(func(cfg fraudsim.BehavioralConfig, _ *slog.Logger) (driver.Driver, error) {
			f := drivertest.New()
			f.UserAgent = cfg.BaseUserAgent
			return f, nil
		}),
	)

	go func() {
		if err := s.Run(); err != nil {
			panic(err)
		}
	}()

	s.WaitForStartup()

	port := s.ServerPort()

	// restore go test args
	os.Args = args

	return &acceptance{
		server: s,
		client: client.New(fmt.Sprintf("http://localhost:%d", port), http.DefaultClient),
	}
}

func (a *acceptance) waitForFinishedSession(t *testing.T, sessionID string) client.TestSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	for {
		ts, err := a.client.GetSession(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for session %s: %v", sessionID, err)
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if ts.Finished() {
			return ts
		}

		time.Sleep(50 * time.Millisecond)
	}
}

func TestSessionRunCompletes(t *testing.T) {
	ts, err := te.client.CreateSession(context.Background(), "Mia's Tacos", []string{"NoJSClicks", "FastClickRate"})
	require.NoError(t, err)
	require.NotEmpty(t, ts.ID)
	require.NotEmpty(t, ts.GUV)

	final := te.waitForFinishedSession(t, ts.ID)

	assert.Equal(t, model.StatusCompleted, final.Status)
	assert.Empty(t, final.Error)
	assert.Equal(t, []string{"NoJSClicks", "FastClickRate"}, final.Scenarios)

	noJS := final.ResultsByScenario("NoJSClicks")
	require.Len(t, noJS, 1)
	assert.Equal(t, "js_disabled_click", noJS[0].Action)

	rapid := final.ResultsByScenario("FastClickRate")
	assert.Len(t, rapid, 10)

	clicks, err := te.client.GetSessionClicks(context.Background(), ts.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, clicks)

	for _, ce := range clicks {
		assert.Equal(t, ts.GUV, ce.GUV)
	}
}

func TestFullScenarioSelectionRuns(t *testing.T) {
	ts, err := te.client.CreateSession(context.Background(), "Mia's Tacos", nil)
	require.NoError(t, err)

	// an empty selection expands to every registered scenario
	assert.Len(t, ts.Scenarios, 12)

	final := te.waitForFinishedSession(t, ts.ID)

	assert.Equal(t, model.StatusCompleted, final.Status)

	for _, name := range final.Scenarios {
		assert.NotEmpty(t, final.ResultsByScenario(name), "no results for scenario %s", name)
	}
}

func TestUnknownScenarioIsRejected(t *testing.T) {
	_, err := te.client.CreateSession(context.Background(), "Mia's Tacos", []string{"NotAScenario"})

	var reqErr client.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.ResponseCode)
}

func TestMissingBusinessIsRejected(t *testing.T) {
	_, err := te.client.CreateSession(context.Background(), "", []string{"NoJSClicks"})

	var reqErr client.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.ResponseCode)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	_, err := te.client.GetSession(context.Background(), "does-not-exist")

	var reqErr client.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.ResponseCode)
}

func TestListScenarios(t *testing.T) {
	names, err := te.client.GetScenarios(context.Background())
	require.NoError(t, err)

	assert.Len(t, names, 12)
	assert.Contains(t, names, "SessionPollution")
	assert.Contains(t, names, "UIOnlyInteraction")
}
