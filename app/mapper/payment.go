package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
	"github.com/vibast-solutions/ms-go-upi-payments/app/types"
)

func AttemptStatusName(status int32) string {
	switch status {
	case entity.AttemptStatusPending:
		return "pending"
	case entity.AttemptStatusAwaitingReference:
		return "awaiting_reference"
	case entity.AttemptStatusSucceeded:
		return "succeeded"
	case entity.AttemptStatusFailed:
		return "failed"
	case entity.AttemptStatusCanceled:
		return "canceled"
	case entity.AttemptStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

func RecordDeliveryStatusName(status int32) string {
	switch status {
	case entity.RecordDeliveryNone:
		return "none"
	case entity.RecordDeliveryPending:
		return "pending"
	case entity.RecordDeliverySuccess:
		return "delivered"
	case entity.RecordDeliveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func AttemptToDTO(attempt *entity.PaymentAttempt) *types.Attempt {
	if attempt == nil {
		return nil
	}

	out := &types.Attempt{
		CorrelationID:        attempt.CorrelationID,
		UserID:               attempt.UserID,
		PackageID:            attempt.PackageID,
		PayeeID:              attempt.PayeeID,
		PayeeName:            attempt.PayeeName,
		Amount:               attempt.Amount.StringFixed(2),
		Currency:             attempt.Currency,
		Note:                 valueOrEmpty(attempt.Note),
		IntentURI:            attempt.IntentURI,
		Status:               AttemptStatusName(attempt.Status),
		PaymentMethod:        attempt.PaymentMethod,
		Metadata:             attempt.Metadata,
		RecordDeliveryStatus: RecordDeliveryStatusName(attempt.RecordDeliveryStatus),
		CreatedAt:            attempt.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            attempt.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if attempt.ResultSource != nil {
		result := &types.PaymentResult{
			Status:        "failed",
			Source:        *attempt.ResultSource,
			TransactionID: valueOrEmpty(attempt.TransactionID),
			ResponseCode:  valueOrEmpty(attempt.ResponseCode),
			ApprovalRefNo: valueOrEmpty(attempt.ApprovalRefNo),
			Message:       valueOrEmpty(attempt.ResultMessage),
			RawResponse:   valueOrEmpty(attempt.RawResponse),
		}
		if attempt.Status == entity.AttemptStatusSucceeded {
			result.Status = "success"
		}
		if attempt.ResolvedAt != nil {
			result.ResolvedAt = attempt.ResolvedAt.UTC().Format(time.RFC3339)
		}
		out.Result = result
	}

	return out
}

func valueOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
