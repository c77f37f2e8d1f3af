package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"ozzus/checkplugin/internal/domain"
)

type eventReader interface {
	ReadEvent(ctx context.Context, v interface{}) (kafkago.Message, error)
	CommitMessage(ctx context.Context, msg kafkago.Message) error
	Rewind() error
}

// InboxRepository hands out submissions waiting to be written to the
// monitoring server.
type InboxRepository interface {
	FetchSubmissions(ctx context.Context) ([]domain.Submission, error)
	// AckSubmission marks a submission as written.
	AckSubmission(ctx context.Context, id string) error
	// NackSubmission gives a submission back. It is fetched again, together
	// with everything after it on its partition.
	NackSubmission(id string)
}

// inflight is a fetched message. Offsets are committed per partition up to
// the first message that is not done yet, so a nacked message holds back
// every later commit of its partition.
type inflight struct {
	msg  kafkago.Message
	done bool
}

type KafkaInboxRepository struct {
	consumer  eventReader
	batchSize int
	wait      time.Duration
	backoff   time.Duration

	mu         sync.Mutex
	partitions map[int][]*inflight
	pending    map[string]*inflight
	nacked     bool
}

func NewKafkaInboxRepository(consumer eventReader) *KafkaInboxRepository {
	return &KafkaInboxRepository{
		consumer:   consumer,
		batchSize:  100,
		wait:       5 * time.Second,
		backoff:    200 * time.Millisecond,
		partitions: make(map[int][]*inflight),
		pending:    make(map[string]*inflight),
	}
}

// FetchSubmissions reads up to one batch, waiting at most a few seconds.
// Undecodable and incomplete messages are skipped and committed along with
// their neighbours. After a nack the consumer is rewound first, so the
// nacked submissions come back.
func (r *KafkaInboxRepository) FetchSubmissions(ctx context.Context) ([]domain.Submission, error) {
	if err := r.rewindIfNacked(); err != nil {
		return nil, err
	}

	var subs []domain.Submission

	timeoutCtx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	for len(subs) < r.batchSize {
		var s domain.Submission
		msg, err := r.consumer.ReadEvent(timeoutCtx, &s)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			if msg.Value != nil {
				r.track(msg, "")
				continue
			}
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		if s.ID == "" || s.Line == "" {
			r.track(msg, "")
			continue
		}

		r.track(msg, s.ID)
		subs = append(subs, s)
	}

	if err := r.commitSkipped(ctx); err != nil {
		return nil, err
	}

	return subs, nil
}

// track records msg in fetch order. Messages without an id are done at once.
func (r *KafkaInboxRepository) track(msg kafkago.Message, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := &inflight{msg: msg, done: id == ""}
	r.partitions[msg.Partition] = append(r.partitions[msg.Partition], f)
	if id != "" {
		r.pending[id] = f
	}
}

func (r *KafkaInboxRepository) rewindIfNacked() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.nacked {
		return nil
	}

	if err := r.consumer.Rewind(); err != nil {
		return fmt.Errorf("failed to rewind consumer: %w", err)
	}

	r.partitions = make(map[int][]*inflight)
	r.pending = make(map[string]*inflight)
	r.nacked = false
	return nil
}

// commitSkipped commits partitions that start with skipped messages.
func (r *KafkaInboxRepository) commitSkipped(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for partition := range r.partitions {
		if err := r.commitReady(ctx, partition); err != nil {
			return err
		}
	}
	return nil
}

func (r *KafkaInboxRepository) AckSubmission(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.pending[id]
	if !ok {
		return nil
	}

	f.done = true
	if err := r.commitReady(ctx, f.msg.Partition); err != nil {
		f.done = false
		return err
	}

	delete(r.pending, id)
	return nil
}

// commitReady commits the longest run of done messages at the head of
// partition. The caller holds r.mu.
func (r *KafkaInboxRepository) commitReady(ctx context.Context, partition int) error {
	queue := r.partitions[partition]

	n := 0
	for n < len(queue) && queue[n].done {
		n++
	}
	if n == 0 {
		return nil
	}

	if err := r.commit(ctx, queue[n-1].msg); err != nil {
		return err
	}

	r.partitions[partition] = queue[n:]
	return nil
}

func (r *KafkaInboxRepository) commit(ctx context.Context, msg kafkago.Message) error {
	const maxRetries = 3

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return ctx.Err()
			}
			if remaining < timeout {
				timeout = remaining
			}
		}

		commitCtx, cancel := context.WithTimeout(context.Background(), timeout)
		err := r.consumer.CommitMessage(commitCtx, msg)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}

		time.Sleep(time.Duration(attempt+1) * r.backoff)
	}

	return fmt.Errorf("failed to commit message: %w", lastErr)
}

// NackSubmission leaves the submission uncommitted and schedules a rewind
// for the next fetch.
func (r *KafkaInboxRepository) NackSubmission(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[id]; !ok {
		return
	}
	delete(r.pending, id)
	r.nacked = true
}

// Pending is the number of fetched submissions neither acked nor nacked.
func (r *KafkaInboxRepository) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
