// Package stats derives the behavioral signals used as test oracles,
// e.g. dwell-time variance over a scenario's page visits.
package stats

import (
	"errors"
	"math"
	"time"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// ErrEmptySequence is returned when statistics are requested over zero samples.
var ErrEmptySequence = errors.New("stats: empty duration sequence")

// DwellTimes computes {mean, stdDev, min, max} over an ordered duration
// sequence, millisecond-rounded. The standard deviation is the population
// form. The computation is pure: identical input yields identical output.
func DwellTimes(samples []time.Duration) (model.DwellTimeStatistics, error) {
	if len(samples) == 0 {
		return model.DwellTimeStatistics{}, ErrEmptySequence
	}

	min, max := samples[0], samples[0]
	sum := 0.0

	for _, s := range samples {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
		sum += float64(s.Milliseconds())
	}

	mean := sum / float64(len(samples))

	variance := 0.0
	for _, s := range samples {
		d := float64(s.Milliseconds()) - mean
		variance += d * d
	}
	variance /= float64(len(samples))

	return model.DwellTimeStatistics{
		MeanMS:   int64(math.Round(mean)),
		StdDevMS: int64(math.Round(math.Sqrt(variance))),
		MinMS:    min.Milliseconds(),
		MaxMS:    max.Milliseconds(),
	}, nil
}
