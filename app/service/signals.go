package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

// RecordSignal stores the audit row for a dispatched or dropped result.
// Audit failures are logged and never interrupt dispatch.
func (s *PaymentService) RecordSignal(ctx context.Context, result upi.PaymentResult, outcome dispatch.Outcome) {
	if s.signalRepo == nil {
		return
	}

	var attemptID *uint64
	if result.CorrelationID != "" {
		if attempt, err := s.attemptRepo.FindByCorrelationID(ctx, result.CorrelationID); err == nil && attempt != nil {
			id := attempt.ID
			attemptID = &id
		}
	}

	err := s.signalRepo.Create(ctx, &entity.PaymentSignal{
		AttemptID:     attemptID,
		CorrelationID: result.CorrelationID,
		Source:        string(result.Source),
		Status:        string(result.Status),
		Outcome:       string(outcome),
		TransactionID: normalizeOptionalString(result.TransactionID),
		RawResponse:   normalizeOptionalString(truncate(result.RawResponse, 2048)),
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("correlation_id", result.CorrelationID).Warn("Storing payment signal failed")
	}
}
