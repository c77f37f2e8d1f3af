package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader    messageReader
	newReader func() messageReader
	brokers   []string
	topic     string
	groupID   string
	log       *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *slog.Logger) *Consumer {
	newReader := func() messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			StartOffset: kafka.FirstOffset,
			Topic:       topic,
			GroupID:     groupID,
			MaxWait:     10 * time.Second,
		})
	}

	return &Consumer{
		reader:    newReader(),
		newReader: newReader,
		brokers:   brokers,
		topic:     topic,
		groupID:   groupID,
		log:       log,
	}
}

func (c *Consumer) CheckConnection(ctx context.Context) error {
	if len(c.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", c.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(c.topic)
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	c.log.Info("kafka connection ok", "topic", c.topic, "partitions", len(partitions))
	return nil
}

func (c *Consumer) ReadEvent(ctx context.Context, v interface{}) (kafka.Message, error) {
	c.log.Debug("attempting to fetch message from kafka",
		"topic", c.topic,
		"group", c.groupID)

	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return msg, err
	}

	c.log.Debug("received message",
		"key", string(msg.Key),
		"partition", msg.Partition,
		"offset", msg.Offset,
		"value_length", len(msg.Value))

	if err := json.Unmarshal(msg.Value, v); err != nil {
		return msg, fmt.Errorf("failed to decode message at offset %d: %w", msg.Offset, err)
	}

	return msg, nil
}

func (c *Consumer) CommitMessage(ctx context.Context, msg kafka.Message) error {
	return c.reader.CommitMessages(ctx, msg)
}

// Rewind replaces the reader so the group resumes from its last committed
// offsets. Fetched but uncommitted messages are delivered again.
func (c *Consumer) Rewind() error {
	if c.newReader == nil {
		return errors.New("consumer cannot be rewound")
	}

	if err := c.reader.Close(); err != nil {
		c.log.Warn("failed to close reader before rewind", "error", err)
	}
	c.reader = c.newReader()

	c.log.Info("consumer rewound to committed offsets",
		"topic", c.topic,
		"group", c.groupID)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) Topic() string {
	return c.topic
}
