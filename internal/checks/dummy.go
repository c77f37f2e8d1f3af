package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ozzus/checkplugin/pkg/plugin"
	"ozzus/checkplugin/pkg/status"
)

// Dummy reports a fixed state, optionally after a delay. It is handy for
// exercising thresholds and submission paths without touching a service.
type Dummy struct {
	kind    status.Kind
	state   status.Severity
	message string
	sleep   time.Duration
}

// NewDummy reads the params "state" (severity name or 0-3 code),
// "message" and "sleep" (duration string, or milliseconds).
func NewDummy(kind status.Kind, params map[string]any) (plugin.Measurer, error) {
	if len(status.Severities(kind)) == 0 {
		return nil, fmt.Errorf("dummy: unknown result kind %d", int(kind))
	}

	state, err := parseState(kind, stringParam(params, "state", string(status.DefaultSeverity(kind))))
	if err != nil {
		return nil, err
	}

	sleep := durationParam(params, "sleep", 0)
	if sleep < 0 {
		sleep = 0
	}

	return &Dummy{
		kind:    kind,
		state:   state,
		message: stringParam(params, "message", ""),
		sleep:   sleep,
	}, nil
}

func (d *Dummy) Measure(ctx context.Context) (status.Result, error) {
	if d.sleep > 0 {
		timer := time.NewTimer(d.sleep)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return newResult(d.kind, d.state, d.message), nil
}

func parseState(kind status.Kind, raw string) (status.Severity, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))

	sev := status.Severity(raw)
	if status.ValidSeverity(kind, sev) {
		return sev, nil
	}

	for _, candidate := range status.Severities(kind) {
		code, _ := status.CodeFor(kind, candidate)
		if fmt.Sprint(code) == raw {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("dummy: %q is not a %s state", raw, kind)
}
