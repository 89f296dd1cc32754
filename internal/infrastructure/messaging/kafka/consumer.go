package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/pkg/errors"
)

// Handler processes one decoded event. Returning an error sends the raw
// message to the dead letter topic when a producer is configured.
type Handler func(ctx context.Context, envelope *EventEnvelope) error

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	GroupID        string        `mapstructure:"group_id"`
	Topics         []string      `mapstructure:"topics"`
	MinBytes       int           `mapstructure:"min_bytes"`
	MaxBytes       int           `mapstructure:"max_bytes"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads enveloped events and dispatches them by event type.
type Consumer struct {
	reader     ReaderInterface
	deadLetter *Producer
	logger     logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	closeOnce sync.Once
}

// NewConsumer creates a Consumer for the configured topics and group.
func NewConsumer(cfg ConsumerConfig, deadLetter *Producer, logger logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka group id is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one topic is required")
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: cfg.CommitInterval,
	})
	return &Consumer{
		reader:     reader,
		deadLetter: deadLetter,
		logger:     logger,
		handlers:   make(map[string]Handler),
	}, nil
}

// NewConsumerWithReader builds a consumer around an injected reader, for
// tests.
func NewConsumerWithReader(r ReaderInterface, deadLetter *Producer, logger logging.Logger) *Consumer {
	return &Consumer{
		reader:     r,
		deadLetter: deadLetter,
		logger:     logger,
		handlers:   make(map[string]Handler),
	}
}

// Subscribe registers a handler for an event type. Later registrations
// replace earlier ones.
func (c *Consumer) Subscribe(eventType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = h
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Kafka consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Kafka consumer stopping")
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to fetch message")
		}

		c.processMessage(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to commit offset",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		c.logger.Error("Discarding undecodable message",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		c.sendToDeadLetter(ctx, msg, "undecodable payload")
		return
	}

	c.mu.RLock()
	handler, ok := c.handlers[envelope.EventType]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("No handler for event type",
			logging.String("event_type", envelope.EventType),
			logging.String("topic", msg.Topic))
		return
	}

	if err := handler(ctx, &envelope); err != nil {
		c.logger.Error("Event handler failed",
			logging.String("event_type", envelope.EventType),
			logging.String("event_id", envelope.EventID),
			logging.Err(err))
		c.sendToDeadLetter(ctx, msg, err.Error())
	}
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg kafka.Message, reason string) {
	if c.deadLetter == nil {
		return
	}
	envelope, err := NewEnvelope(EventDeadLetter, "consumer", map[string]any{
		"original_topic": msg.Topic,
		"offset":         msg.Offset,
		"reason":         reason,
		"payload":        string(msg.Value),
	})
	if err != nil {
		c.logger.Error("Failed to build dead letter", logging.Err(err))
		return
	}
	if err := c.deadLetter.Publish(ctx, TopicDeadLetter, string(msg.Key), envelope); err != nil {
		c.logger.Error("Failed to publish dead letter", logging.Err(err))
	}
}

// Close shuts the reader down.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
