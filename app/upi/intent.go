package upi

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Scheme          = "upi"
	DefaultCurrency = "INR"

	callbackURLParam = "url"
	callbackPath     = "payment/callback"
	correlationParam = "cid"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPayee  = errors.New("invalid payee")
)

type IntentParams struct {
	PayeeID   string
	PayeeName string
	Amount    string
	Currency  string

	// CorrelationID is sent as the UPI transaction reference (tr), which
	// payment apps echo back as TxnRef.
	CorrelationID string
	Note          string

	// CallbackURL is appended as the url parameter when set.
	CallbackURL string
}

// MaxAmount is the UPI per-transaction limit in rupees.
var MaxAmount = decimal.NewFromInt(100000)

// Plain digits with an optional fraction. Exponents and signs are refused so
// a short input cannot expand into a huge number.
var plainAmountPattern = regexp.MustCompile(`^[0-9]{1,9}(\.[0-9]{1,6})?$`)

// ParseAmount accepts a positive decimal amount up to MaxAmount and rounds
// it to two places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if !plainAmountPattern.MatchString(raw) {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	amount = amount.Round(2)
	if !amount.IsPositive() || amount.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func BuildIntent(params IntentParams) (string, error) {
	payeeID := strings.TrimSpace(params.PayeeID)
	payeeName := strings.TrimSpace(params.PayeeName)
	if payeeID == "" || payeeName == "" {
		return "", ErrInvalidPayee
	}

	amount, err := ParseAmount(params.Amount)
	if err != nil {
		return "", err
	}

	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	pairs := []string{
		"pa=" + escape(payeeID),
		"pn=" + escape(payeeName),
		"am=" + amount.StringFixed(2),
		"cu=" + escape(currency),
	}
	if ref := strings.TrimSpace(params.CorrelationID); ref != "" {
		pairs = append(pairs, "tr="+escape(ref))
	}
	if note := strings.TrimSpace(params.Note); note != "" {
		pairs = append(pairs, "tn="+escape(note))
	}

	intent := Scheme + "://pay?" + strings.Join(pairs, "&")
	return AppendCallbackURL(intent, params.CallbackURL), nil
}

// AppendCallbackURL adds the url parameter unless the intent already
// declares one.
func AppendCallbackURL(intentURI, callbackURL string) string {
	callbackURL = strings.TrimSpace(callbackURL)
	if intentURI == "" || callbackURL == "" || hasQueryParam(intentURI, callbackURLParam) {
		return intentURI
	}
	separator := "?"
	if strings.Contains(intentURI, "?") {
		separator = "&"
	}
	return intentURI + separator + callbackURLParam + "=" + escape(callbackURL)
}

// CallbackURL is the return address a payment app redirects to. It carries
// the correlation id so the redirect can be matched to its attempt.
func CallbackURL(scheme, correlationID string) string {
	scheme = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(scheme)), "://")
	if scheme == "" {
		return ""
	}
	callback := scheme + "://" + callbackPath
	if ref := strings.TrimSpace(correlationID); ref != "" {
		callback += "?" + correlationParam + "=" + escape(ref)
	}
	return callback
}

func hasQueryParam(rawURL, name string) bool {
	_, query, found := strings.Cut(rawURL, "?")
	if !found {
		return false
	}
	for _, segment := range strings.Split(query, "&") {
		key, _, _ := strings.Cut(segment, "=")
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
