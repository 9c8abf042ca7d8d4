package domain

import "time"

// TimePeriod is the history window a user's recommendations are based on.
type TimePeriod string

const (
	Period1Day   TimePeriod = "1d"
	Period7Days  TimePeriod = "7d"
	Period30Days TimePeriod = "30d"
	Period90Days TimePeriod = "90d"
)

// Days returns the window length. Unknown values fall back to 30 days,
// matching the service default.
func (p TimePeriod) Days() int {
	switch p {
	case Period1Day:
		return 1
	case Period7Days:
		return 7
	case Period90Days:
		return 90
	default:
		return 30
	}
}

// Valid reports whether p is one of the supported windows.
func (p TimePeriod) Valid() bool {
	switch p {
	case Period1Day, Period7Days, Period30Days, Period90Days:
		return true
	}
	return false
}

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// UserConfiguration drives the nightly refresh for one user. Created on the
// first successful on-demand generation, mutated by every run after that.
type UserConfiguration struct {
	UserID        string     `json:"user_id"`
	TimePeriod    TimePeriod `json:"time_period"`
	GenreFilters  []string   `json:"genre_filters,omitempty"`
	ListName      string     `json:"list_name"`
	LastRunAt     time.Time  `json:"last_run_at"`
	LastRunStatus RunStatus  `json:"last_run_status,omitempty"`
}
