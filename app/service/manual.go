package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

type submitManualVerificationRequest interface {
	GetCorrelationID() string
	GetReference() string
}

// PromptManualVerification moves an open attempt to waiting on the user's
// transaction reference.
func (s *PaymentService) PromptManualVerification(ctx context.Context, correlationID string) (*entity.PaymentAttempt, error) {
	attempt, err := s.GetAttempt(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == entity.AttemptStatusAwaitingReference {
		return attempt, nil
	}

	verification := manualVerificationFor(attempt)
	if err := verification.Prompt(); err != nil || !attempt.Open() {
		return nil, fmt.Errorf("%w: attempt is already resolved", ErrInvalidStatus)
	}

	now := time.Now().UTC()
	oldStatus := attempt.Status
	attempt.Status = entity.AttemptStatusAwaitingReference
	attempt.UpdatedAt = now
	if err := s.attemptRepo.Update(ctx, attempt); err != nil {
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.AttemptEvent{
		AttemptID:     attempt.ID,
		CorrelationID: attempt.CorrelationID,
		EventType:     entity.EventManualVerificationPrompted,
		OldStatus:     &oldStatus,
		NewStatus:     attempt.Status,
		CreatedAt:     now,
	})

	return attempt, nil
}

// SubmitManualVerification resolves the attempt with the user's reference.
// The outcome is always success and goes to backend review marked as a
// manual payment. The automatic consumer is cleared first, so late signals
// for the attempt are dropped.
func (s *PaymentService) SubmitManualVerification(ctx context.Context, req submitManualVerificationRequest) (*entity.PaymentAttempt, error) {
	attempt, err := s.GetAttempt(ctx, req.GetCorrelationID())
	if err != nil {
		return nil, err
	}
	if attempt.Status == entity.AttemptStatusSucceeded && attempt.PaymentMethod == entity.PaymentMethodUPIManual {
		return attempt, nil
	}
	if !attempt.Open() {
		return nil, fmt.Errorf("%w: attempt is already resolved", ErrInvalidStatus)
	}

	s.dispatcher.Clear(attempt.CorrelationID)

	result := manualVerificationFor(attempt).Submit(req.GetReference())
	if err := s.resolve(ctx, attempt, result, entity.PaymentMethodUPIManual); err != nil {
		return nil, err
	}
	return attempt, nil
}

func manualVerificationFor(attempt *entity.PaymentAttempt) *upi.ManualVerification {
	verification := upi.NewManualVerification(attempt.CorrelationID)
	switch attempt.Status {
	case entity.AttemptStatusPending:
	case entity.AttemptStatusAwaitingReference:
		verification.State = upi.StateAwaitingUserReference
	default:
		verification.State = upi.StateResolved
	}
	return verification
}
