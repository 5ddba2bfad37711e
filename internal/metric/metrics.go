package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fraudsim_sessions_running",
		Help: "The number of simulation sessions currently running",
	}, []string{"business"})

	SessionsRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudsim_sessions_run_total",
		Help: "The number of simulation sessions run since the service was started",
	}, []string{"business", "status"})

	ScenariosRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudsim_scenarios_run_total",
		Help: "The number of scenarios run since the service was started",
	}, []string{"scenario", "result"})

	SimulatedClicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudsim_simulated_clicks_total",
		Help: "The number of simulated clicks by expected billing decision",
	}, []string{"scenario", "billable"})

	TelemetryWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudsim_telemetry_write_failures_total",
		Help: "The number of telemetry records dropped because the sink was unavailable",
	}, []string{"kind"})
)
