package entity

import "time"

type AttemptEventType string

const (
	EventAttemptCreated             AttemptEventType = "attempt_created"
	EventAttemptCanceled            AttemptEventType = "attempt_canceled"
	EventAttemptExpired             AttemptEventType = "attempt_expired"
	EventAttemptResolved            AttemptEventType = "attempt_resolved"
	EventManualVerificationPrompted AttemptEventType = "manual_verification_prompted"
	EventRecordDispatched           AttemptEventType = "record_dispatched"
	EventRecordDispatchFailed       AttemptEventType = "record_dispatch_failed"
)

// AttemptEvent is one row of an attempt's lifecycle history.
type AttemptEvent struct {
	ID uint64

	AttemptID     uint64
	CorrelationID string

	EventType                       AttemptEventType
	OldStatus *int32
	NewStatus int32

	PayloadJSON *string

	CreatedAt time.Time
}
