package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shop-backoffice-ledger/internal/config"
)

// retryBackoff is the pause before a message whose handler failed is retried
const retryBackoff = time.Second

type MessageHandler func(ctx context.Context, msg kafka.Message) error

// ExhaustedHandler takes over a message whose handler failed on every allowed
// attempt. Returning nil commits the message; an error resumes retrying.
type ExhaustedHandler func(ctx context.Context, msg kafka.Message, cause error) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// messageReader is the subset of kafka.Reader used by the consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka
type KafkaConsumer struct {
	reader  messageReader
	logger  *slog.Logger
	topic   string
	groupID string
	done    chan struct{}

	maxAttempts int // zero retries forever
	exhausted   ExhaustedHandler
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset != kafka.LastOffset {
		startOffset = kafka.FirstOffset
	}

	return &KafkaConsumer{
		logger:      logger,
		topic:       cfg.OperationTopic,
		groupID:     cfg.ConsumerGroup,
		done:        make(chan struct{}),
		maxAttempts: cfg.MaxHandlerAttempts,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.OperationTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
	}
}

// OnExhausted installs the handler that receives messages still failing after
// the configured number of attempts. Without one the consumer retries forever.
// It must be called before Subscribe.
func (c *KafkaConsumer) OnExhausted(h ExhaustedHandler) {
	c.exhausted = h
}

// Subscribe starts consuming in the background. A message is committed only
// after its handler returned nil; a failing handler is retried on the same
// message, so the partition never skips past unprocessed work.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic",
		"topic", c.topic,
		"group_id", c.groupID,
	)

	go func() {
		defer close(c.done)
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
					return
				}
				c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "error", err)
				if !sleep(ctx, retryBackoff) {
					return
				}
				continue
			}

			c.logger.Debug("Received message from Kafka",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
			)

			if !c.handle(ctx, msg, handler) {
				return
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("Failed to commit message after successful processing",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
			}
		}
	}()

	return nil
}

// handle runs the handler until it succeeds or, once the attempts are used up,
// until the exhausted handler accepts the message. It returns false when ctx
// ends first.
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return true
		}
		c.logger.Error("Failed to process message, retrying",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempt", attempt,
			"error", err,
		)
		if c.exhausted != nil && c.maxAttempts > 0 && attempt >= c.maxAttempts {
			xerr := c.exhausted(ctx, msg, err)
			if xerr == nil {
				c.logger.Warn("Giving up on message after repeated failures",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"attempts", attempt,
				)
				return true
			}
			c.logger.Error("Exhausted handler failed, retrying message", "offset", msg.Offset, "error", xerr)
		}
		if !sleep(ctx, retryBackoff*time.Duration(min(attempt, 10))) {
			return false
		}
	}
}

// Done is closed once the consuming goroutine has stopped
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
