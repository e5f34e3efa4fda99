package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const saveSubscriptionPath = "/v2/subscription-packages/save"

var ErrBackendNotConfigured = errors.New("backend base url is not configured")

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PayDetails is serialized into the pay_details string field.
type PayDetails struct {
	TransactionID string `json:"transactionId"`
	ResponseCode  string `json:"responseCode,omitempty"`
	ApprovalRefNo string `json:"approvalRefNo,omitempty"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
	Timestamp     string `json:"timestamp"`
}

type SubscriptionRecord struct {
	UserID    string
	PackageID string
	Details   PayDetails
}

type saveSubscriptionRequest struct {
	UserID       string `json:"user_id"`
	PackageID    string `json:"package_id"`
	PaymentMojID string `json:"payment_moj_id"`
	PaymentReqID string `json:"payment_req_id"`
	PayDetails   string `json:"pay_details"`
}

type apiResponse struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New()
	httpClient.SetTimeout(timeout)
	httpClient.SetHeader("Content-Type", "application/json")
	if apiKey := strings.TrimSpace(cfg.APIKey); apiKey != "" {
		httpClient.SetHeader("api-key", apiKey)
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}
}

// SaveSubscription records a paid subscription for admin review.
// payment_req_id prefers the approval reference over the transaction id.
func (c *Client) SaveSubscription(ctx context.Context, record SubscriptionRecord) error {
	if c.baseURL == "" {
		return ErrBackendNotConfigured
	}

	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("marshal pay details: %w", err)
	}

	requestID := record.Details.ApprovalRefNo
	if requestID == "" {
		requestID = record.Details.TransactionID
	}

	body := saveSubscriptionRequest{
		UserID:       record.UserID,
		PackageID:    record.PackageID,
		PaymentMojID: record.Details.TransactionID,
		PaymentReqID: requestID,
		PayDetails:   string(details),
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.baseURL + saveSubscriptionPath)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	var parsed apiResponse
	_ = json.Unmarshal(resp.Body(), &parsed)

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		msg := strings.TrimSpace(parsed.Msg)
		if msg == "" {
			msg = "failed to save subscription"
		}
		return fmt.Errorf("backend returned status=%d: %s", resp.StatusCode(), msg)
	}
	if strings.EqualFold(parsed.Status, "error") {
		return fmt.Errorf("backend rejected subscription: %s", parsed.Msg)
	}

	return nil
}
