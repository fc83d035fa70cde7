package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type track func(ctx context.Context, event kafka.Event) error

const defaultRetryDelay = time.Second

type Consumer struct {
	trackHandler track
	log          *zap.Logger
	ready        chan bool
	retryDelay   time.Duration
}

type ConsumerOption func(*Consumer)

// WithRetryDelay sets the pause before a claim gives up on a failed message.
func WithRetryDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.retryDelay = d
	}
}

func NewConsumer(track track, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		trackHandler: track,
		log:          log.Named("consumer"),
		ready:        make(chan bool),
		retryDelay:   defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready is closed once the first session is set up.
func (consumer *Consumer) Ready() <-chan bool {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-consumer.ready:
	default:
		close(consumer.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var event kafka.Event
			if err := json.Unmarshal(message.Value, &event); err != nil {
				consumer.log.Error("unmarshal event", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			// Offsets commit cumulatively, so nothing after a failed message may be marked.
			// The next session resumes from the last marked offset.
			if err := consumer.trackHandler(session.Context(), event); err != nil {
				consumer.log.Error("consumer.trackHandler", zap.Int64("offset", message.Offset), zap.Error(err))
				select {
				case <-time.After(consumer.retryDelay):
				case <-session.Context().Done():
				}
				return errors.Wrapf(err, "track offset %d", message.Offset)
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
