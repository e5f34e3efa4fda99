package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/factory"
	"github.com/vibast-solutions/ms-go-upi-payments/config"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, message interface{}) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writers map[string]messageWriter
	retry   config.RetryConfig
	logger  logrus.FieldLogger
}

func NewKafkaPublisher(brokers []string, topics []string, retry config.RetryConfig) *KafkaPublisher {
	writers := make(map[string]messageWriter, len(topics))
	for _, topic := range topics {
		writers[topic] = &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		}
	}
	return newKafkaPublisher(writers, retry)
}

func newKafkaPublisher(writers map[string]messageWriter, retry config.RetryConfig) *KafkaPublisher {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 5
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = 100 * time.Millisecond
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = 10 * time.Second
	}
	return &KafkaPublisher{
		writers: writers,
		retry:   retry,
		logger:  factory.NewModuleLogger("kafka-publisher"),
	}
}

// Publish writes message as JSON. Messages sharing a key keep their order.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, key string, message interface{}) error {
	writer, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer configured for topic %s", topic)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.publishWithRetry(ctx, writer, kafka.Message{Key: []byte(key), Value: data}, topic)
}

func (p *KafkaPublisher) publishWithRetry(ctx context.Context, writer messageWriter, msg kafka.Message, topic string) error {
	var lastErr error

	for attempt := 0; attempt < p.retry.MaxAttempts; attempt++ {
		err := writer.WriteMessages(ctx, msg)
		if err == nil {
			if attempt > 0 {
				p.logger.WithField("topic", topic).WithField("attempts", attempt+1).Info("Message published after retry")
			}
			return nil
		}

		lastErr = err
		if attempt == p.retry.MaxAttempts-1 {
			break
		}

		delay := p.backoff(attempt)
		p.logger.WithError(err).WithFields(logrus.Fields{
			"topic":   topic,
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warn("Publish failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}

	return fmt.Errorf("publish to topic %s failed after %d attempts: %w", topic, p.retry.MaxAttempts, lastErr)
}

func (p *KafkaPublisher) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * p.retry.BaseDelay
	if delay > p.retry.MaxDelay {
		delay = p.retry.MaxDelay
	}

	if p.retry.Jitter {
		jitter := time.Duration(rand.Float64() * float64(delay) * 0.3)
		delay = delay + jitter - time.Duration(float64(delay)*0.15)
	}

	return delay
}

func (p *KafkaPublisher) Close() error {
	var errs []error
	for _, writer := range p.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

func (NoopPublisher) Close() error { return nil }
