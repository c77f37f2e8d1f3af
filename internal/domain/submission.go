package domain

import (
	"time"

	"github.com/google/uuid"

	"ozzus/checkplugin/pkg/status"
)

// Submission is a passive check result on its way to the monitoring server.
type Submission struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Host        string    `json:"host"`
	Service     string    `json:"service,omitempty"`
	Severity    string    `json:"severity"`
	Code        int       `json:"code"`
	Line        string    `json:"line"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSubmission wraps an already formatted passive result. Line is the
// result message, i.e. the external command line.
func NewSubmission(host, service string, r status.Result, at time.Time) Submission {
	s := Submission{
		ID:          uuid.NewString(),
		Kind:        r.Kind().String(),
		Host:        host,
		Severity:    string(r.Severity()),
		Code:        r.Code(),
		Line:        r.Message(),
		SubmittedAt: at,
	}
	if r.Kind() == status.KindService {
		s.Service = service
	}
	return s
}
