package fraudsim

import "github.com/robfig/cron/v3"

// ScheduledSession runs a fixed scenario selection against a business at
// intervals, e.g. a nightly full regression pass over the filter corpus.
type ScheduledSession struct {
	// Business is the target business descriptor.
	Business string
	// Scenarios are the scenario names to run, in order. Empty runs all
	// registered scenarios.
	Scenarios []string
	// Schedule defines how often a session run starts. For the format see
	// https://pkg.go.dev/github.com/robfig/cron#hdr-CRON_Expression_Format
	Schedule string
	// EntryID identifies the cronjob.
	EntryID cron.EntryID
}
