package upi

import (
	"errors"
	"strings"
)

type VerificationState int32

const (
	StateAwaitingAutomaticSignal VerificationState = 1
	StateAwaitingUserReference   VerificationState = 2
	StateResolved                VerificationState = 10
)

const MessageManualVerification = "Payment verification submitted"

var ErrAlreadyResolved = errors.New("verification already resolved")

func (s VerificationState) String() string {
	switch s {
	case StateAwaitingAutomaticSignal:
		return "awaiting_automatic_signal"
	case StateAwaitingUserReference:
		return "awaiting_user_reference"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// ManualVerification is the user-driven fallback for an attempt that got no
// automatic signal. Submitting always resolves the attempt as success: the
// client cannot confirm settlement, so the claim is recorded and left to
// backend admin review.
type ManualVerification struct {
	CorrelationID string
	State         VerificationState
	Result        *PaymentResult
}

func NewManualVerification(correlationID string) *ManualVerification {
	return &ManualVerification{
		CorrelationID: strings.TrimSpace(correlationID),
		State:         StateAwaitingAutomaticSignal,
	}
}

// Prompt moves the attempt to waiting on the user's transaction reference.
func (m *ManualVerification) Prompt() error {
	switch m.State {
	case StateResolved:
		return ErrAlreadyResolved
	default:
		m.State = StateAwaitingUserReference
		return nil
	}
}

// Submit resolves with the user's reference, defaulting to the correlation
// id when blank. Once resolved, later submissions return the first result.
func (m *ManualVerification) Submit(reference string) PaymentResult {
	if m.State == StateResolved && m.Result != nil {
		return *m.Result
	}

	reference = strings.TrimSpace(reference)
	if reference == "" {
		reference = m.CorrelationID
	}

	result := PaymentResult{
		Status:        StatusSuccess,
		TransactionID: reference,
		ApprovalRefNo: reference,
		Message:       MessageManualVerification,
		CorrelationID: m.CorrelationID,
		Source:        SourceManual,
	}
	m.State = StateResolved
	m.Result = &result
	return result
}
