package submit

import (
	"context"
	"fmt"

	"ozzus/checkplugin/internal/domain"
)

type commandSender interface {
	SubmitCommand(ctx context.Context, command string) error
}

// NRDP posts lines to an NRDP endpoint.
type NRDP struct {
	client commandSender
}

func NewNRDP(client commandSender) *NRDP {
	return &NRDP{client: client}
}

func (n *NRDP) Submit(ctx context.Context, sub domain.Submission) error {
	if err := checkLine(sub); err != nil {
		return err
	}
	if err := n.client.SubmitCommand(ctx, sub.Line); err != nil {
		return fmt.Errorf("nrdp submission %s: %w", sub.ID, err)
	}
	return nil
}

type submissionSender interface {
	SendSubmission(ctx context.Context, s domain.Submission) error
}

// Kafka publishes submissions for a relay to write out.
type Kafka struct {
	repo submissionSender
}

func NewKafka(repo submissionSender) *Kafka {
	return &Kafka{repo: repo}
}

func (k *Kafka) Submit(ctx context.Context, sub domain.Submission) error {
	if err := checkLine(sub); err != nil {
		return err
	}
	return k.repo.SendSubmission(ctx, sub)
}
