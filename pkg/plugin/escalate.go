package plugin

import (
	"strconv"
	"time"

	"ozzus/checkplugin/pkg/status"
)

// Thresholds are elapsed-time limits in whole seconds. Escalation is off
// unless both are positive.
type Thresholds struct {
	Warning  int
	Critical int
}

func (t Thresholds) enabled() bool {
	return t.Warning > 0 && t.Critical > 0
}

// Escalate raises the severity of an active or service result that took
// too long to measure. It never lowers a severity and leaves host results
// alone. An UNKNOWN result is raised to CRITICAL past the critical limit
// and kept otherwise. It reports whether r was changed.
func Escalate(r status.Result, elapsed time.Duration, t Thresholds) bool {
	if r.Kind() == status.KindHost || !t.enabled() {
		return false
	}

	warn := time.Duration(t.Warning) * time.Second
	crit := time.Duration(t.Critical) * time.Second

	switch {
	case elapsed >= warn && elapsed < crit:
		return raise(r, status.WARNING, t.Warning)
	case elapsed >= crit:
		return raise(r, status.CRITICAL, t.Critical)
	default:
		return false
	}
}

// escalationRank orders severities for escalation. UNKNOWN sits between
// WARNING and CRITICAL: a slow check never turns it into WARNING, but the
// critical tier still applies.
var escalationRank = map[status.Severity]int{
	status.OK:       0,
	status.WARNING:  1,
	status.UNKNOWN:  2,
	status.CRITICAL: 3,
}

func raise(r status.Result, to status.Severity, limit int) bool {
	if escalationRank[r.Severity()] >= escalationRank[to] {
		return false
	}
	r.SetSeverity(to)
	r.SetMessage(r.Message() + "; check time >= " + strconv.Itoa(limit))
	return true
}
