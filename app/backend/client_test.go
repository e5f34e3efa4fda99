package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSaveSubscriptionSendsRecord(t *testing.T) {
	var received saveSubscriptionRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/subscription-packages/save" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		apiKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","msg":"saved"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "backend-key"})
	err := client.SaveSubscription(context.Background(), SubscriptionRecord{
		UserID:    "42",
		PackageID: "pkg-gold",
		Details: PayDetails{
			TransactionID: "T1",
			ResponseCode:  "00",
			Amount:        "499.00",
			PaymentMethod: "UPI",
			Timestamp:     "2026-10-16T10:00:00Z",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if apiKey != "backend-key" {
		t.Fatalf("expected api-key header, got %q", apiKey)
	}
	if received.UserID != "42" || received.PackageID != "pkg-gold" {
		t.Fatalf("unexpected identifiers: %+v", received)
	}
	if received.PaymentMojID != "T1" || received.PaymentReqID != "T1" {
		t.Fatalf("expected transaction id fallback for payment_req_id, got %+v", received)
	}

	var details PayDetails
	if err := json.Unmarshal([]byte(received.PayDetails), &details); err != nil {
		t.Fatalf("pay_details must be a JSON string: %v", err)
	}
	if details.Amount != "499.00" || details.PaymentMethod != "UPI" {
		t.Fatalf("unexpected pay details: %+v", details)
	}
}

func TestSaveSubscriptionPrefersApprovalRef(t *testing.T) {
	var received saveSubscriptionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	err := client.SaveSubscription(context.Background(), SubscriptionRecord{
		Details: PayDetails{TransactionID: "T1", ApprovalRefNo: "A1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.PaymentReqID != "A1" {
		t.Fatalf("expected approval ref, got %q", received.PaymentReqID)
	}
}

func TestSaveSubscriptionSurfacesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status":"error","msg":"package not found"}`))
	}))
	defer srv.Close()

	err := NewClient(Config{BaseURL: srv.URL}).SaveSubscription(context.Background(), SubscriptionRecord{})
	if err == nil || !strings.Contains(err.Error(), "package not found") {
		t.Fatalf("expected backend message in error, got %v", err)
	}
}

func TestSaveSubscriptionRejectsErrorStatusBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","msg":"duplicate payment"}`))
	}))
	defer srv.Close()

	err := NewClient(Config{BaseURL: srv.URL}).SaveSubscription(context.Background(), SubscriptionRecord{})
	if err == nil || !strings.Contains(err.Error(), "duplicate payment") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}

func TestSaveSubscriptionRequiresBaseURL(t *testing.T) {
	err := NewClient(Config{}).SaveSubscription(context.Background(), SubscriptionRecord{})
	if err != ErrBackendNotConfigured {
		t.Fatalf("expected ErrBackendNotConfigured, got %v", err)
	}
}
