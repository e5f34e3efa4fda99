package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

type CreateAttemptRequest struct {
	CorrelationID string            `json:"correlation_id"`
	UserID        string            `json:"user_id"`
	PackageID     string            `json:"package_id"`
	Amount        string            `json:"amount"`
	Note          string            `json:"note"`
	PayeeID       string            `json:"payee_id"`
	PayeeName     string            `json:"payee_name"`
	Metadata      map[string]string `json:"metadata"`
}

func NewCreateAttemptRequestFromContext(ctx echo.Context) (*CreateAttemptRequest, error) {
	req := &CreateAttemptRequest{}
	if err := ctx.Bind(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *CreateAttemptRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if strings.TrimSpace(r.PackageID) == "" {
		return errors.New("package_id is required")
	}
	if strings.TrimSpace(r.Amount) == "" {
		return errors.New("amount is required")
	}
	return nil
}

func (r *CreateAttemptRequest) GetCorrelationID() string       { return r.CorrelationID }
func (r *CreateAttemptRequest) GetUserID() string              { return r.UserID }
func (r *CreateAttemptRequest) GetPackageID() string           { return r.PackageID }
func (r *CreateAttemptRequest) GetAmount() string              { return r.Amount }
func (r *CreateAttemptRequest) GetNote() string                { return r.Note }
func (r *CreateAttemptRequest) GetPayeeID() string             { return r.PayeeID }
func (r *CreateAttemptRequest) GetPayeeName() string           { return r.PayeeName }
func (r *CreateAttemptRequest) GetMetadata() map[string]string { return r.Metadata }

// AttemptRequest addresses one attempt by its correlation id.
type AttemptRequest struct {
	CorrelationID string `json:"correlation_id"`
}

func NewAttemptRequestFromContext(ctx echo.Context) (*AttemptRequest, error) {
	return &AttemptRequest{CorrelationID: strings.TrimSpace(ctx.Param("correlation_id"))}, nil
}

func (r *AttemptRequest) Validate() error {
	return validateCorrelationID(r.CorrelationID)
}

func (r *AttemptRequest) GetCorrelationID() string { return r.CorrelationID }

type CancelAttemptRequest struct {
	CorrelationID string `json:"correlation_id"`
	Reason        string `json:"reason"`
}

func NewCancelAttemptRequestFromContext(ctx echo.Context) (*CancelAttemptRequest, error) {
	req := &CancelAttemptRequest{}
	if err := ctx.Bind(req); err != nil {
		return nil, err
	}
	req.CorrelationID = strings.TrimSpace(ctx.Param("correlation_id"))
	return req, nil
}

func (r *CancelAttemptRequest) Validate() error {
	return validateCorrelationID(r.CorrelationID)
}

func (r *CancelAttemptRequest) GetCorrelationID() string { return r.CorrelationID }
func (r *CancelAttemptRequest) GetReason() string        { return r.Reason }

type SubmitManualVerificationRequest struct {
	CorrelationID string `json:"correlation_id"`
	Reference     string `json:"reference"`
}

func NewSubmitManualVerificationRequestFromContext(ctx echo.Context) (*SubmitManualVerificationRequest, error) {
	req := &SubmitManualVerificationRequest{}
	if err := ctx.Bind(req); err != nil {
		return nil, err
	}
	req.CorrelationID = strings.TrimSpace(ctx.Param("correlation_id"))
	return req, nil
}

func (r *SubmitManualVerificationRequest) Validate() error {
	if err := validateCorrelationID(r.CorrelationID); err != nil {
		return err
	}
	if len(r.Reference) > 128 {
		return errors.New("reference must be at most 128 characters")
	}
	return nil
}

func (r *SubmitManualVerificationRequest) GetCorrelationID() string { return r.CorrelationID }
func (r *SubmitManualVerificationRequest) GetReference() string     { return r.Reference }

type PaymentResult struct {
	Status        string `json:"status"`
	Source        string `json:"source,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	ResponseCode  string `json:"response_code,omitempty"`
	ApprovalRefNo string `json:"approval_ref_no,omitempty"`
	Message       string `json:"message,omitempty"`
	RawResponse   string `json:"raw_response,omitempty"`
	ResolvedAt    string `json:"resolved_at,omitempty"`
}

type Attempt struct {
	CorrelationID        string            `json:"correlation_id"`
	UserID               string            `json:"user_id"`
	PackageID            string            `json:"package_id"`
	PayeeID              string            `json:"payee_id"`
	PayeeName            string            `json:"payee_name"`
	Amount               string            `json:"amount"`
	Currency             string            `json:"currency"`
	Note                 string            `json:"note,omitempty"`
	IntentURI            string            `json:"intent_uri"`
	Status               string            `json:"status"`
	PaymentMethod        string            `json:"payment_method"`
	Result               *PaymentResult    `json:"result,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	RecordDeliveryStatus string            `json:"record_delivery_status"`
	CreatedAt            string            `json:"created_at"`
	UpdatedAt            string            `json:"updated_at"`
}

type AttemptEnvelopeResponse struct {
	Attempt *Attempt `json:"attempt"`
}

func (r *AttemptEnvelopeResponse) GetAttempt() *Attempt {
	if r == nil {
		return nil
	}
	return r.Attempt
}

func validateCorrelationID(correlationID string) error {
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return errors.New("correlation_id is required")
	}
	if len(correlationID) > 64 {
		return errors.New("correlation_id must be at most 64 characters")
	}
	return nil
}
