package main

import (
	"log/slog"
	"os"

	fraudsim "github.com/arturoroa/YelpYarnNew-sub001"
	"github.com/arturoroa/YelpYarnNew-sub001/internal/hook"
)

func main() {
	log := slog.Default()

	opts := []fraudsim.Option{
		fraudsim.WithScheduledSession(fraudsim.ScheduledSession{
			Business: "Mia's Tacos",
			Schedule: "0 0 3 * * *",
		}),
	}

	if addr := os.Getenv("FRAUDSIM_ELASTICSEARCH_ADDR"); addr != "" {
		es, err := hook.NewElasticSearchHook([]string{addr}, "filter-decisions", log)
		if err != nil {
			slog.Error(err.Error())
			os.Exit(-1)
		}

		opts = append(opts, fraudsim.WithHook(es))
	}

	if token := os.Getenv("FRAUDSIM_SLACK_TOKEN"); token != "" {
		opts = append(opts, fraudsim.WithHook(
			hook.NewSlackHook(os.Getenv("FRAUDSIM_SLACK_CHANNEL"), token, log),
		))
	}

	if err := fraudsim.New(opts...).Run(); err != nil {
		slog.Error(err.Error())
		os.Exit(-1)
	}
}
