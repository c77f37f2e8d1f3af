package domain

import "time"

// Report is the outcome of one check run by the runner.
type Report struct {
	Name     string        `json:"name"`
	Host     string        `json:"host"`
	Kind     string        `json:"kind"`
	Severity string        `json:"severity"`
	Code     int           `json:"code"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the check itself could not produce a result.
func (r Report) Failed() bool {
	return r.Error != ""
}
