package listener

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/factory"
	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

const PaymentResponseEvent = "UPIPaymentResponse"

// NativeBridge turns structured native payment events into results. They
// skip the response parser.
type NativeBridge struct {
	events     platform.EventSource
	dispatcher resultDispatcher
	logger     logrus.FieldLogger

	mu          sync.Mutex
	unsubscribe func()
}

func NewNativeBridge(events platform.EventSource, dispatcher resultDispatcher) *NativeBridge {
	return &NativeBridge{
		events:     events,
		dispatcher: dispatcher,
		logger:     factory.NewModuleLogger("upi-native-bridge"),
	}
}

func (b *NativeBridge) SetLogger(logger logrus.FieldLogger) {
	if logger != nil {
		b.logger = logger
	}
}

func (b *NativeBridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		return
	}
	b.unsubscribe = b.events.SubscribeEvent(PaymentResponseEvent, b.handle)
}

func (b *NativeBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *NativeBridge) handle(ctx context.Context, payload map[string]interface{}) {
	result, err := upi.ResultFromEvent(payload)
	if err != nil {
		b.logger.WithError(err).WithField("source", upi.SourceNativeEvent).Warn("Native payment event rejected")
		return
	}
	result.Source = upi.SourceNativeEvent

	b.logger.WithFields(logrus.Fields{
		"source":         result.Source,
		"correlation_id": result.CorrelationID,
		"status":         result.Status,
	}).Info("Native payment event received")

	b.dispatcher.Dispatch(ctx, result)
}
