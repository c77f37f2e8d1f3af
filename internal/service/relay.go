package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ozzus/checkplugin/internal/domain"
	"ozzus/checkplugin/internal/repository"
	"ozzus/checkplugin/internal/submit"
)

type RelayConfig struct {
	RelayID      string
	PollInterval time.Duration
}

// Relay drains submissions published by remote runners and writes them to
// the local monitoring server.
type Relay struct {
	inbox        repository.InboxRepository
	sink         submit.Submitter
	relayID      string
	pollInterval time.Duration
	log          *slog.Logger

	isRunning atomic.Bool
	received  atomic.Int64
	written   atomic.Int64
	failed    atomic.Int64

	mu        sync.Mutex
	lastWrite time.Time
}

func NewRelay(inbox repository.InboxRepository, sink submit.Submitter, cfg RelayConfig, log *slog.Logger) *Relay {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}

	return &Relay{
		inbox:        inbox,
		sink:         sink,
		relayID:      cfg.RelayID,
		pollInterval: cfg.PollInterval,
		log:          log.With("relay_id", cfg.RelayID),
	}
}

func (s *Relay) Start(ctx context.Context) error {
	s.isRunning.Store(true)
	defer s.isRunning.Store(false)

	s.log.Info("relay started", "poll_interval", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.processBatch(ctx); err != nil {
				s.log.Error("failed to process submissions", "error", err)
			}
		case <-ctx.Done():
			s.log.Info("relay stopped")
			return nil
		}
	}
}

func (s *Relay) processBatch(ctx context.Context) error {
	subs, err := s.inbox.FetchSubmissions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch submissions: %w", err)
	}

	if len(subs) == 0 {
		return nil
	}
	s.received.Add(int64(len(subs)))

	var written, failed, deferred int
	for i, sub := range subs {
		err := s.sink.Submit(ctx, sub)
		if errors.Is(err, submit.ErrMultilineCommand) {
			s.log.Error("dropping invalid submission",
				"submission_id", sub.ID,
				"host", sub.Host,
				"error", err,
			)
			s.failed.Add(1)
			failed++
			s.ack(ctx, sub.ID)
			continue
		}
		if err != nil {
			// The rest of the batch comes back after the failed one.
			s.log.Error("failed to write submission",
				"submission_id", sub.ID,
				"host", sub.Host,
				"error", err,
			)
			s.failed.Add(1)
			failed++
			for _, rest := range subs[i:] {
				s.inbox.NackSubmission(rest.ID)
			}
			deferred = len(subs) - i - 1
			break
		}

		s.written.Add(1)
		s.mu.Lock()
		s.lastWrite = time.Now()
		s.mu.Unlock()
		written++

		s.ack(ctx, sub.ID)
	}

	s.log.Info("submissions processed",
		"total", len(subs),
		"written", written,
		"failed", failed,
		"deferred", deferred,
	)

	return nil
}

func (s *Relay) ack(ctx context.Context, id string) {
	if err := s.inbox.AckSubmission(ctx, id); err != nil {
		s.log.Error("failed to ack submission",
			"submission_id", id,
			"error", err,
		)
	}
}

func (s *Relay) HealthCheck(ctx context.Context) error {
	if !s.isRunning.Load() {
		return errors.New("relay is not running")
	}
	return nil
}

func (s *Relay) Stats() domain.RelayStats {
	s.mu.Lock()
	last := s.lastWrite
	s.mu.Unlock()

	return domain.RelayStats{
		Received:  s.received.Load(),
		Written:   s.written.Load(),
		Failed:    s.failed.Load(),
		LastWrite: last,
	}
}

func (s *Relay) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"relay_id":      s.relayID,
		"is_running":    s.isRunning.Load(),
		"poll_interval": s.pollInterval.String(),
		"stats":         s.Stats(),
	}
}
