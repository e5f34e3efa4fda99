package listener

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/factory"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

type resultDispatcher interface {
	Dispatch(ctx context.Context, result upi.PaymentResult) dispatch.Outcome
}

// URLHandler is the classification path shared by deep links and resumed
// pending intents: classify, extract, parse, dispatch.
type URLHandler struct {
	classifier *upi.Classifier
	dispatcher resultDispatcher
	logger     logrus.FieldLogger
}

func NewURLHandler(classifier *upi.Classifier, dispatcher resultDispatcher) *URLHandler {
	return &URLHandler{
		classifier: classifier,
		dispatcher: dispatcher,
		logger:     factory.NewModuleLogger("upi-url-handler"),
	}
}

func (h *URLHandler) SetLogger(logger logrus.FieldLogger) {
	if logger != nil {
		h.logger = logger
	}
}

// Handle reports false when rawURL was not dispatched: it is unrelated to
// payments or carries no response data.
func (h *URLHandler) Handle(ctx context.Context, rawURL string, source upi.Source) (dispatch.Outcome, bool) {
	callback, err := h.classifier.Classify(rawURL)
	if err != nil {
		l := h.logger.WithField("source", source)
		switch {
		case errors.Is(err, upi.ErrNotPaymentCallback):
			l.WithField("url", rawURL).Debug("Ignoring non-payment URL")
		case errors.Is(err, upi.ErrEmptyCallback):
			l.WithField("url", rawURL).Warn("Payment callback URL carries no response data")
		default:
			l.WithError(err).Warn("Payment callback URL could not be classified")
		}
		return "", false
	}

	result := upi.ParseResponse(callback.Payload)
	if callback.CorrelationID != "" {
		result.CorrelationID = callback.CorrelationID
	}
	result.Source = source

	h.logger.WithFields(logrus.Fields{
		"source":         source,
		"rule":           callback.Rule,
		"correlation_id": result.CorrelationID,
		"status":         result.Status,
	}).Info("Payment callback received")

	return h.dispatcher.Dispatch(ctx, result), true
}
