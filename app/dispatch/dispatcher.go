package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/factory"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeNoConsumer Outcome = "no_consumer"
	OutcomeUnmatched  Outcome = "unmatched"

	// OutcomeConsumerFailed means the consumer errored or panicked. Its
	// registration is restored so another source can still resolve the id.
	OutcomeConsumerFailed Outcome = "consumer_failed"
)

var (
	ErrEmptyCorrelationID = errors.New("correlation id is required")
	ErrNilConsumer        = errors.New("consumer is required")
)

// Consumer receives the outcome of one payment attempt. Returned errors are
// logged and never reach the signal source.
type Consumer func(ctx context.Context, result upi.PaymentResult) error

// SignalRecorder audits every result that reaches the dispatcher.
type SignalRecorder interface {
	RecordSignal(ctx context.Context, result upi.PaymentResult, outcome Outcome)
}

type Option func(*Dispatcher)

func WithStore(store ResolutionStore) Option {
	return func(d *Dispatcher) {
		if store != nil {
			d.store = store
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = metrics }
}

func WithRecorder(recorder SignalRecorder) Option {
	return func(d *Dispatcher) { d.recorder = recorder }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher routes payment results to the consumer registered for their
// correlation id. A consumer is taken out of the registry before it runs,
// so each registration is delivered at most once.
type Dispatcher struct {
	mu        sync.Mutex
	consumers map[string]Consumer

	store    ResolutionStore
	metrics  *Metrics
	recorder SignalRecorder
	logger   logrus.FieldLogger
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		consumers: map[string]Consumer{},
		store:     NewMemoryStore(),
		logger:    factory.NewModuleLogger("upi-dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register installs consumer for correlationID, replacing any previous one
// for the same id, and forgets an earlier resolution of that id.
func (d *Dispatcher) Register(ctx context.Context, correlationID string, consumer Consumer) error {
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return ErrEmptyCorrelationID
	}
	if consumer == nil {
		return ErrNilConsumer
	}

	if err := d.store.Reset(ctx, correlationID); err != nil {
		return fmt.Errorf("reset resolution token: %w", err)
	}

	d.mu.Lock()
	d.consumers[correlationID] = consumer
	d.mu.Unlock()
	return nil
}

// Clear removes the consumer for correlationID. It reports whether one was
// registered.
func (d *Dispatcher) Clear(correlationID string) bool {
	correlationID = strings.TrimSpace(correlationID)
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.consumers[correlationID]
	delete(d.consumers, correlationID)
	return ok
}

func (d *Dispatcher) Registered(correlationID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.consumers[strings.TrimSpace(correlationID)]
	return ok
}

// CorrelationIDs returns a sorted snapshot of the registered ids.
func (d *Dispatcher) CorrelationIDs() []string {
	d.mu.Lock()
	ids := make([]string, 0, len(d.consumers))
	for id := range d.consumers {
		ids = append(ids, id)
	}
	d.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.consumers)
}

// Dispatch delivers result to its consumer, or drops it with a warning.
// It never returns an error and never panics because of a consumer.
func (d *Dispatcher) Dispatch(ctx context.Context, result upi.PaymentResult) Outcome {
	correlationID, consumer := d.take(strings.TrimSpace(result.CorrelationID))
	if correlationID != "" && result.CorrelationID == "" {
		result.CorrelationID = correlationID
	}

	if consumer == nil {
		outcome := OutcomeUnmatched
		if correlationID != "" {
			outcome = OutcomeNoConsumer
			if resolved, err := d.store.IsResolved(ctx, correlationID); err != nil {
				d.logger.WithError(err).WithField("correlation_id", correlationID).Warn("Resolution token lookup failed")
			} else if resolved {
				outcome = OutcomeDuplicate
			}
		}
		d.drop(ctx, result, outcome)
		return outcome
	}

	first, err := d.store.MarkResolved(ctx, correlationID)
	if err != nil {
		d.logger.WithError(err).WithField("correlation_id", correlationID).Warn("Resolution token write failed")
	} else if !first {
		d.drop(ctx, result, OutcomeDuplicate)
		return OutcomeDuplicate
	}

	if !d.deliver(ctx, consumer, result) {
		d.restore(ctx, correlationID, consumer)
		d.record(ctx, result, OutcomeConsumerFailed)
		return OutcomeConsumerFailed
	}
	if d.metrics != nil {
		d.metrics.Dispatched.WithLabelValues(string(result.Source)).Inc()
	}
	d.record(ctx, result, OutcomeDelivered)
	return OutcomeDelivered
}

// take removes and returns the consumer a result belongs to. Without a
// correlation id, a lone registered consumer is used.
func (d *Dispatcher) take(correlationID string) (string, Consumer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if correlationID == "" {
		if len(d.consumers) != 1 {
			return "", nil
		}
		for id := range d.consumers {
			correlationID = id
		}
	}

	consumer, ok := d.consumers[correlationID]
	if !ok {
		return correlationID, nil
	}
	delete(d.consumers, correlationID)
	return correlationID, consumer
}

func (d *Dispatcher) deliver(ctx context.Context, consumer Consumer, result upi.PaymentResult) (ok bool) {
	l := d.logger.WithFields(logrus.Fields{
		"correlation_id": result.CorrelationID,
		"source":         result.Source,
		"status":         result.Status,
	})

	defer func() {
		if recovered := recover(); recovered != nil {
			if d.metrics != nil {
				d.metrics.ConsumerErrors.Inc()
			}
			l.WithField("panic", recovered).Error("Payment consumer panicked")
			ok = false
		}
	}()

	if err := consumer(ctx, result); err != nil {
		if d.metrics != nil {
			d.metrics.ConsumerErrors.Inc()
		}
		l.WithError(err).Error("Payment consumer failed")
		return false
	}
	l.Info("Payment result delivered")
	return true
}

// restore undoes the take for a consumer that failed. A registration made
// while the consumer ran wins.
func (d *Dispatcher) restore(ctx context.Context, correlationID string, consumer Consumer) {
	if err := d.store.Reset(ctx, correlationID); err != nil {
		d.logger.WithError(err).WithField("correlation_id", correlationID).Warn("Resolution token reset failed")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.consumers[correlationID]; !ok {
		d.consumers[correlationID] = consumer
	}
}

func (d *Dispatcher) drop(ctx context.Context, result upi.PaymentResult, outcome Outcome) {
	if d.metrics != nil {
		d.metrics.Dropped.WithLabelValues(string(outcome)).Inc()
	}
	d.logger.WithFields(logrus.Fields{
		"correlation_id": result.CorrelationID,
		"source":         result.Source,
		"status":         result.Status,
		"reason":         string(outcome),
	}).Warn("Payment result dropped")
	d.record(ctx, result, outcome)
}

// SetRecorder installs the audit hook after construction, for recorders
// that themselves depend on the dispatcher.
func (d *Dispatcher) SetRecorder(recorder SignalRecorder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recorder = recorder
}

func (d *Dispatcher) record(ctx context.Context, result upi.PaymentResult, outcome Outcome) {
	d.mu.Lock()
	recorder := d.recorder
	d.mu.Unlock()
	if recorder == nil {
		return
	}
	recorder.RecordSignal(ctx, result, outcome)
}
