package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"ozzus/checkplugin/internal/checks"
	"ozzus/checkplugin/internal/config"
	"ozzus/checkplugin/internal/domain"
	"ozzus/checkplugin/internal/submit"
	"ozzus/checkplugin/pkg/plugin"
	"ozzus/checkplugin/pkg/status"
)

type RunnerConfig struct {
	Concurrency int
}

// Runner executes the checks of a checks file. Passive results go to the
// submitter; active ones only end up in the reports.
type Runner struct {
	submitter   submit.Submitter
	concurrency int
	log         *slog.Logger
	now         func() time.Time
}

func NewRunner(submitter submit.Submitter, cfg RunnerConfig, log *slog.Logger) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &Runner{
		submitter:   submitter,
		concurrency: cfg.Concurrency,
		log:         log,
		now:         time.Now,
	}
}

// Run executes every check and returns one report per check, in input order.
// A failing check becomes an UNKNOWN report and never stops the others.
func (r *Runner) Run(ctx context.Context, specs []config.CheckSpec) []domain.Report {
	reports := make([]domain.Report, len(specs))

	p := pool.New().WithMaxGoroutines(r.concurrency)
	for i, spec := range specs {
		i, spec := i, spec
		p.Go(func() {
			reports[i] = r.runOne(ctx, spec)
		})
	}
	p.Wait()

	var failed int
	for _, rep := range reports {
		if rep.Failed() {
			failed++
		}
	}
	r.log.Info("checks finished",
		"total", len(reports),
		"failed", failed,
	)

	return reports
}

func (r *Runner) runOne(ctx context.Context, spec config.CheckSpec) domain.Report {
	start := r.now()
	rep := domain.Report{
		Name: plugin.NormalizeName(spec.Name),
		Host: spec.Host,
		Kind: spec.Kind,
	}

	res, p, err := r.check(ctx, spec)
	rep.Duration = r.now().Sub(start)
	if err != nil {
		r.log.Error("check failed",
			"check", rep.Name,
			"host", spec.Host,
			"error", err,
		)
		return failure(rep, err)
	}

	rep.Name = p.Name()
	rep.Kind = res.Kind().String()
	rep.Severity = string(res.Severity())
	rep.Code = res.Code()
	rep.Output = res.Message()

	if !res.Kind().Passive() || r.submitter == nil {
		return rep
	}

	sub := domain.NewSubmission(p.Host(), p.Name(), res, r.now())
	if err := r.submitter.Submit(ctx, sub); err != nil {
		r.log.Error("failed to submit result",
			"check", rep.Name,
			"submission_id", sub.ID,
			"error", err,
		)
		return failure(rep, fmt.Errorf("submit %s result: %w", rep.Kind, err))
	}

	r.log.Debug("submitted result",
		"check", rep.Name,
		"submission_id", sub.ID,
		"severity", rep.Severity,
	)
	return rep
}

func (r *Runner) check(ctx context.Context, spec config.CheckSpec) (status.Result, *plugin.Plugin, error) {
	kind, ok := status.ParseKind(spec.Kind)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown result kind %q", plugin.ErrConfiguration, spec.Kind)
	}

	cfg := spec.PluginConfig()
	m, err := checks.New(spec.Measure, kind, cfg)
	if err != nil {
		return nil, nil, err
	}

	p, err := plugin.New(cfg, m, plugin.WithLogger(r.log))
	if err != nil {
		return nil, nil, err
	}

	res, err := p.Check(ctx)
	if err != nil {
		return nil, nil, err
	}
	return res, p, nil
}

// failure turns rep into an UNKNOWN report. Its code is the active UNKNOWN
// exit code whatever the kind, since a passive result that never left the
// process must still fail the run.
func failure(rep domain.Report, err error) domain.Report {
	rep.Severity = string(status.UNKNOWN)
	rep.Code, _ = status.CodeFor(status.KindActive, status.UNKNOWN)
	rep.Output = fmt.Sprintf("%s %s: %v", rep.Name, status.UNKNOWN, err)
	rep.Error = err.Error()
	return rep
}
