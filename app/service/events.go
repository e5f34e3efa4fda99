package service

import (
	"encoding/json"
	"time"

	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

// ResolvedAttemptEvent is published once per resolved attempt.
type ResolvedAttemptEvent struct {
	CorrelationID string    `json:"correlation_id"`
	UserID        string    `json:"user_id"`
	PackageID     string    `json:"package_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	Source        string    `json:"source"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id,omitempty"`
	ResponseCode  string    `json:"response_code,omitempty"`
	ApprovalRefNo string    `json:"approval_ref_no,omitempty"`
	Message       string    `json:"message,omitempty"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

func newResolvedEvent(attempt *entity.PaymentAttempt, result upi.PaymentResult, resolvedAt time.Time) ResolvedAttemptEvent {
	return ResolvedAttemptEvent{
		CorrelationID: attempt.CorrelationID,
		UserID:        attempt.UserID,
		PackageID:     attempt.PackageID,
		Amount:        attempt.Amount.StringFixed(2),
		Currency:      attempt.Currency,
		Status:        string(result.Status),
		Source:        string(result.Source),
		PaymentMethod: attempt.PaymentMethod,
		TransactionID: result.TransactionID,
		ResponseCode:  result.ResponseCode,
		ApprovalRefNo: result.ApprovalRefNo,
		Message:       result.Message,
		ResolvedAt:    resolvedAt,
	}
}

func (e ResolvedAttemptEvent) JSON() string {
	payload, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(payload)
}
