package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AttemptStatusPending           int32 = 1
	AttemptStatusAwaitingReference int32 = 2
	AttemptStatusSucceeded         int32 = 10
	AttemptStatusFailed            int32 = 20
	AttemptStatusCanceled          int32 = 30
	AttemptStatusExpired           int32 = 40
)

const (
	RecordDeliveryNone    int32 = 0
	RecordDeliveryPending int32 = 1
	RecordDeliverySuccess int32 = 10
	RecordDeliveryFailed  int32 = 20
)

const (
	PaymentMethodUPI       = "UPI"
	PaymentMethodUPIManual = "UPI_MANUAL"
)

type PaymentAttempt struct {
	ID uint64

	CorrelationID string

	UserID    string
	PackageID string

	PayeeID   string
	PayeeName string
	Amount    decimal.Decimal
	Currency  string
	Note      *string
	IntentURI string

	Status        int32
	PaymentMethod string

	ResultSource  *string
	TransactionID *string
	ResponseCode  *string
	ApprovalRefNo *string
	ResultMessage *string
	RawResponse   *string
	ResolvedAt    *time.Time

	Metadata map[string]string

	RecordDeliveryStatus   int32
	RecordDeliveryAttempts int32
	RecordDeliveryNextAt   *time.Time
	RecordDeliveryLastErr  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the attempt still waits for a signal or a manual
// reference.
func (a *PaymentAttempt) Open() bool {
	return a.Status == AttemptStatusPending || a.Status == AttemptStatusAwaitingReference
}
