// Package plugin runs a check measurement and turns its result into the
// line a monitoring server expects.
//
// A typical active plugin:
//
//	p, err := plugin.New(plugin.Config{Host: host, Name: "check_queue", Warning: 5, Critical: 10},
//		plugin.MeasureFunc(func(ctx context.Context) (status.Result, error) {
//			return status.NewActive(status.OK, "queue drained"), nil
//		}))
//	if err != nil { ... }
//	res, err := p.Check(ctx)
//	if err != nil { ... }
//	fmt.Println(res.Message())
//	os.Exit(plugin.ExitCode(res))
package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ozzus/checkplugin/pkg/status"
)

// Measurer measures a service and reports what it found. Errors are
// returned from Check unchanged; a measurement that can recover from a
// failure should return a result describing it instead.
type Measurer interface {
	Measure(ctx context.Context) (status.Result, error)
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(ctx context.Context) (status.Result, error)

func (f MeasureFunc) Measure(ctx context.Context) (status.Result, error) {
	return f(ctx)
}

type Plugin struct {
	cfg      Config
	measurer Measurer
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Plugin)

// WithClock replaces time.Now for timing and passive timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Plugin) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(p *Plugin) {
		if log != nil {
			p.log = log
		}
	}
}

// New returns a plugin for cfg. It fails with ErrConfiguration when no host
// is given. A nil measurer is accepted; Check then fails with
// ErrNotImplemented.
func New(cfg Config, m Measurer, opts ...Option) (*Plugin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	p := &Plugin{
		cfg:      cfg,
		measurer: m,
		now:      time.Now,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name is the normalized plugin name.
func (p *Plugin) Name() string {
	return p.cfg.Name
}

func (p *Plugin) Host() string {
	return p.cfg.Host
}

// Config returns a copy of the normalized configuration.
func (p *Plugin) Config() Config {
	return p.cfg
}

// Blob is the opaque configuration made available to the measurement.
func (p *Plugin) Blob() map[string]any {
	return p.cfg.Blob
}

// Check measures once, validates and escalates the result, and rewrites its
// message to the final output line.
func (p *Plugin) Check(ctx context.Context) (status.Result, error) {
	if p.measurer == nil {
		return nil, fmt.Errorf("%w: plugin %s has no measurement", ErrNotImplemented, p.cfg.Name)
	}

	start := p.now()
	res, err := p.measurer.Measure(ctx)
	end := p.now()
	if err != nil {
		return nil, err
	}
	elapsed := end.Sub(start)

	if err := status.Validate(res); err != nil {
		return nil, err
	}

	p.log.Debug("measurement finished",
		"plugin", p.cfg.Name,
		"kind", res.Kind().String(),
		"severity", string(res.Severity()),
		"elapsed", elapsed,
	)

	if res.Kind() != status.KindHost {
		if Escalate(res, elapsed, p.cfg.Thresholds()) {
			p.log.Debug("severity escalated",
				"plugin", p.cfg.Name,
				"severity", string(res.Severity()),
				"warning", p.cfg.Warning,
				"critical", p.cfg.Critical,
			)
		}
	}

	res.SetMessage(Format(Info{
		Name:       p.cfg.Name,
		Host:       p.cfg.Host,
		Elapsed:    elapsed,
		Thresholds: p.cfg.Thresholds(),
		At:         end,
	}, res))

	return res, nil
}

// ExitCode is the process exit code for r: the code of an active result,
// 0 for passive results, which are sent out of band.
func ExitCode(r status.Result) int {
	if r == nil || r.Kind() != status.KindActive {
		return 0
	}
	return r.Code()
}
