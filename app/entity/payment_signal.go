package entity

import "time"

// PaymentSignal is the audit row for one result that reached the
// dispatcher, delivered or not.
type PaymentSignal struct {
	ID uint64

	AttemptID *uint64

	CorrelationID string
	Source        string
	Status        string
	Outcome       string
	TransactionID *string
	RawResponse   *string

	CreatedAt time.Time
}
