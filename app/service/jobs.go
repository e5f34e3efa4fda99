package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-upi-payments/app/backend"
	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
)

// RunDispatchRecordsBatch submits successful attempts to the backend
// subscription API, retrying failures on the configured interval.
func (s *PaymentService) RunDispatchRecordsBatch(ctx context.Context) error {
	now := time.Now().UTC()
	items, err := s.attemptRepo.ListDueRecordDispatch(ctx, now, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, attempt := range items {
		if attempt == nil {
			continue
		}
		if err := s.dispatchRecord(ctx, attempt, now); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

// RunExpirePendingBatch expires attempts that never got a signal or a
// manual reference within the pending timeout.
func (s *PaymentService) RunExpirePendingBatch(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.Add(-s.paymentsCfg.PendingTimeout)
	items, err := s.attemptRepo.ListExpiredPending(ctx, cutoff, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, attempt := range items {
		if attempt == nil || !attempt.Open() {
			continue
		}

		s.dispatcher.Clear(attempt.CorrelationID)

		oldStatus := attempt.Status
		attempt.Status = entity.AttemptStatusExpired
		attempt.UpdatedAt = now

		if err := s.attemptRepo.Update(ctx, attempt); err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}

		_ = s.eventRepo.Create(ctx, &entity.AttemptEvent{
			AttemptID:     attempt.ID,
			CorrelationID: attempt.CorrelationID,
			EventType:     entity.EventAttemptExpired,
			OldStatus:     &oldStatus,
			NewStatus:     attempt.Status,
			CreatedAt:     now,
		})
	}

	return firstErr
}

// PruneRegistrations drops consumers whose attempts were closed by another
// process, such as the expire job, so the registry only holds open attempts.
func (s *PaymentService) PruneRegistrations(ctx context.Context) (int, error) {
	pruned := 0
	var firstErr error
	for _, correlationID := range s.dispatcher.CorrelationIDs() {
		attempt, err := s.attemptRepo.FindByCorrelationID(ctx, correlationID)
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if attempt != nil && attempt.Open() {
			continue
		}
		if s.dispatcher.Clear(correlationID) {
			pruned++
		}
	}
	return pruned, firstErr
}

func (s *PaymentService) dispatchRecord(ctx context.Context, attempt *entity.PaymentAttempt, now time.Time) error {
	if attempt.Status != entity.AttemptStatusSucceeded {
		errMsg := "attempt is not successful"
		attempt.RecordDeliveryStatus = entity.RecordDeliveryFailed
		attempt.RecordDeliveryNextAt = nil
		attempt.RecordDeliveryLastErr = &errMsg
		attempt.UpdatedAt = now
		return s.attemptRepo.Update(ctx, attempt)
	}

	record := backend.SubscriptionRecord{
		UserID:    attempt.UserID,
		PackageID: attempt.PackageID,
		Details: backend.PayDetails{
			TransactionID: firstNonEmpty(valueOrEmpty(attempt.TransactionID), attempt.CorrelationID),
			ResponseCode:  valueOrEmpty(attempt.ResponseCode),
			ApprovalRefNo: valueOrEmpty(attempt.ApprovalRefNo),
			Amount:        attempt.Amount.StringFixed(2),
			PaymentMethod: attempt.PaymentMethod,
			Timestamp:     resolvedTimestamp(attempt, now),
		},
	}

	if err := s.records.SaveSubscription(ctx, record); err != nil {
		return s.recordDispatchFailure(ctx, attempt, now, err)
	}

	attempt.RecordDeliveryStatus = entity.RecordDeliverySuccess
	attempt.RecordDeliveryNextAt = nil
	attempt.RecordDeliveryLastErr = nil
	attempt.UpdatedAt = now

	if err := s.attemptRepo.Update(ctx, attempt); err != nil {
		return err
	}

	_ = s.eventRepo.Create(ctx, &entity.AttemptEvent{
		AttemptID:     attempt.ID,
		CorrelationID: attempt.CorrelationID,
		EventType:     entity.EventRecordDispatched,
		NewStatus:     attempt.Status,
		CreatedAt:     now,
	})

	return nil
}

func (s *PaymentService) recordDispatchFailure(ctx context.Context, attempt *entity.PaymentAttempt, now time.Time, dispatchErr error) error {
	attempt.RecordDeliveryAttempts++
	trimmed := truncate(dispatchErr.Error(), 1024)
	attempt.RecordDeliveryLastErr = &trimmed

	maxAttempts := s.paymentsCfg.RecordMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	if attempt.RecordDeliveryAttempts >= maxAttempts {
		attempt.RecordDeliveryStatus = entity.RecordDeliveryFailed
		attempt.RecordDeliveryNextAt = nil
	} else {
		retryInterval := s.paymentsCfg.RecordRetryInterval
		if retryInterval <= 0 {
			retryInterval = 5 * time.Minute
		}
		next := now.Add(retryInterval)
		attempt.RecordDeliveryStatus = entity.RecordDeliveryPending
		attempt.RecordDeliveryNextAt = &next
	}
	attempt.UpdatedAt = now

	if err := s.attemptRepo.Update(ctx, attempt); err != nil {
		return err
	}

	_ = s.eventRepo.Create(ctx, &entity.AttemptEvent{
		AttemptID:     attempt.ID,
		CorrelationID: attempt.CorrelationID,
		EventType:     entity.EventRecordDispatchFailed,
		NewStatus:     attempt.Status,
		CreatedAt:     now,
	})

	return fmt.Errorf("record dispatch for %s: %w", attempt.CorrelationID, dispatchErr)
}

func resolvedTimestamp(attempt *entity.PaymentAttempt, now time.Time) string {
	if attempt.ResolvedAt != nil {
		return attempt.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return now.Format(time.RFC3339)
}

func valueOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
