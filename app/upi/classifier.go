package upi

import (
	"errors"
	"net/url"
	"strings"
)

// Extraction rules, in order of preference.
const (
	RuleResponseParam = "response_param"
	RuleStatusQuery   = "status_query"
	RuleQuery         = "query"
)

var (
	ErrNotPaymentCallback = errors.New("url is not a payment callback")
	ErrEmptyCallback      = errors.New("payment callback carries no response data")
)

// Callback is a payment redirect URL reduced to its response payload.
type Callback struct {
	URL           string
	Payload       string
	Rule          string
	CorrelationID string
}

// Classifier recognizes payment callback URLs: the generic upi scheme and
// the app's own callback scheme.
type Classifier struct {
	prefixes []string
}

func NewClassifier(callbackScheme string) *Classifier {
	prefixes := []string{Scheme + "://"}
	scheme := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(callbackScheme)), "://")
	if scheme != "" && scheme != Scheme {
		prefixes = append(prefixes, scheme+"://")
	}
	return &Classifier{prefixes: prefixes}
}

func (c *Classifier) Matches(rawURL string) bool {
	lowered := strings.ToLower(strings.TrimSpace(rawURL))
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

// Classify returns ErrNotPaymentCallback for unrelated URLs and
// ErrEmptyCallback when no extraction rule yields data.
func (c *Classifier) Classify(rawURL string) (Callback, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !c.Matches(rawURL) {
		return Callback{}, ErrNotPaymentCallback
	}

	callback := Callback{URL: rawURL}
	query := queryString(rawURL)
	if query == "" {
		return callback, ErrEmptyCallback
	}

	if ref, ok := queryValue(query, correlationParam); ok {
		callback.CorrelationID = ref
	}

	if response, ok := queryValue(query, "response"); ok && response != "" {
		callback.Payload = response
		callback.Rule = RuleResponseParam
		return callback, nil
	}

	if strings.Contains(query, "Status=") || strings.Contains(query, "status=") {
		callback.Payload = query
		callback.Rule = RuleStatusQuery
		return callback, nil
	}

	callback.Payload = query
	callback.Rule = RuleQuery
	return callback, nil
}

func queryString(rawURL string) string {
	_, query, found := strings.Cut(rawURL, "?")
	if !found {
		return ""
	}
	query, _, _ = strings.Cut(query, "#")
	return query
}

func queryValue(query, name string) (string, bool) {
	for _, segment := range strings.Split(query, "&") {
		key, value, found := strings.Cut(segment, "=")
		if !found || !strings.EqualFold(key, name) {
			continue
		}
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		return strings.TrimSpace(value), true
	}
	return "", false
}
