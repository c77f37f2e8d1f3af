package repository

import (
	"context"
	"fmt"
	"log/slog"

	"ozzus/checkplugin/internal/domain"
)

type eventPublisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
	Topic() string
}

type SubmissionRepository interface {
	SendSubmission(ctx context.Context, s domain.Submission) error
}

type KafkaSubmissionRepository struct {
	producer eventPublisher
	log      *slog.Logger
}

func NewKafkaSubmissionRepository(producer eventPublisher, log *slog.Logger) *KafkaSubmissionRepository {
	return &KafkaSubmissionRepository{
		producer: producer,
		log:      log,
	}
}

// SendSubmission publishes s keyed by host, keeping each host's results in
// order on one partition.
func (r *KafkaSubmissionRepository) SendSubmission(ctx context.Context, s domain.Submission) error {
	if err := r.producer.PublishEvent(ctx, s.Host, s); err != nil {
		return fmt.Errorf("failed to publish submission: %w", err)
	}

	r.log.Debug("sent submission",
		"id", s.ID,
		"host", s.Host,
		"topic", r.producer.Topic(),
	)
	return nil
}
