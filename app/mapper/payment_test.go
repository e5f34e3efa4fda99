package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
)

func TestAttemptToDTOPendingHasNoResult(t *testing.T) {
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	dto := AttemptToDTO(&entity.PaymentAttempt{
		CorrelationID: "attempt-1",
		Amount:        decimal.RequireFromString("499.5"),
		Status:        entity.AttemptStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})

	if dto.Amount != "499.50" {
		t.Fatalf("expected two-place amount, got %q", dto.Amount)
	}
	if dto.Status != "pending" || dto.Result != nil {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.RecordDeliveryStatus != "none" {
		t.Fatalf("unexpected record delivery status: %q", dto.RecordDeliveryStatus)
	}
	if dto.CreatedAt != "2026-10-16T10:00:00Z" {
		t.Fatalf("unexpected created_at: %q", dto.CreatedAt)
	}
}

func TestAttemptToDTOResolved(t *testing.T) {
	source := "manual"
	ref := "UTR123"
	resolved := time.Date(2026, 10, 16, 10, 5, 0, 0, time.UTC)
	dto := AttemptToDTO(&entity.PaymentAttempt{
		Amount:        decimal.NewFromInt(10),
		Status:        entity.AttemptStatusSucceeded,
		PaymentMethod: entity.PaymentMethodUPIManual,
		ResultSource:  &source,
		TransactionID: &ref,
		ResolvedAt:    &resolved,
	})

	if dto.Result == nil || dto.Result.Status != "success" || dto.Result.TransactionID != "UTR123" {
		t.Fatalf("unexpected result: %+v", dto.Result)
	}
	if dto.Result.ResolvedAt != "2026-10-16T10:05:00Z" {
		t.Fatalf("unexpected resolved_at: %q", dto.Result.ResolvedAt)
	}
	if dto.PaymentMethod != "UPI_MANUAL" {
		t.Fatalf("unexpected payment method: %q", dto.PaymentMethod)
	}
}

func TestAttemptToDTONil(t *testing.T) {
	if AttemptToDTO(nil) != nil {
		t.Fatal("expected nil dto")
	}
}
