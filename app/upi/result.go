package upi

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Source identifies which signal path produced a result.
type Source string

const (
	SourceDeepLink    Source = "deep_link"
	SourceAppResume   Source = "app_resume"
	SourceNativeEvent Source = "native_event"
	SourceManual      Source = "manual"
)

const (
	MessagePaymentSuccessful = "Payment successful"
	MessagePaymentFailed     = "Payment failed"
)

var ErrInvalidPayload = errors.New("invalid payment payload")

// PaymentResult is the canonical outcome handed to a registered consumer.
type PaymentResult struct {
	Status        Status `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	ResponseCode  string `json:"response_code,omitempty"`
	ApprovalRefNo string `json:"approval_ref_no,omitempty"`
	Message       string `json:"message"`
	RawResponse   string `json:"raw_response,omitempty"`

	// CorrelationID is empty when the signal carried no attempt reference.
	CorrelationID string `json:"correlation_id,omitempty"`
	Source        Source `json:"source,omitempty"`
}

func (r PaymentResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

func (r PaymentResult) Validate() error {
	switch r.Status {
	case StatusSuccess, StatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPayload, r.Status)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidPayload)
	}
	return nil
}

// ResultFromEvent converts a structured native event payload into a result.
// The payload arrives as an untyped bag, so every recognized field is checked
// for shape before use.
func ResultFromEvent(payload map[string]interface{}) (PaymentResult, error) {
	if payload == nil {
		return PaymentResult{}, fmt.Errorf("%w: empty event payload", ErrInvalidPayload)
	}

	rawStatus, ok := payload["status"]
	if !ok {
		return PaymentResult{}, fmt.Errorf("%w: status is required", ErrInvalidPayload)
	}
	status, ok := rawStatus.(string)
	if !ok {
		return PaymentResult{}, fmt.Errorf("%w: status must be a string", ErrInvalidPayload)
	}

	result := PaymentResult{Status: StatusFailed, Source: SourceNativeEvent}
	if status == string(StatusSuccess) {
		result.Status = StatusSuccess
	}

	fields := []struct {
		key  string
		dest *string
	}{
		{"transactionId", &result.TransactionID},
		{"responseCode", &result.ResponseCode},
		{"approvalRefNo", &result.ApprovalRefNo},
		{"message", &result.Message},
		{"rawResponse", &result.RawResponse},
		{"correlationId", &result.CorrelationID},
	}
	for _, f := range fields {
		value, present := payload[f.key]
		if !present || value == nil {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return PaymentResult{}, fmt.Errorf("%w: %s must be a string", ErrInvalidPayload, f.key)
		}
		*f.dest = strings.TrimSpace(s)
	}

	if result.Message == "" {
		if result.Succeeded() {
			result.Message = MessagePaymentSuccessful
		} else if status != "" {
			result.Message = status
		} else {
			result.Message = MessagePaymentFailed
		}
	}

	return result, nil
}
