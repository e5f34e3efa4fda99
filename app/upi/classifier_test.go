package upi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIgnoresUnrelatedURL(t *testing.T) {
	c := NewClassifier("scrapmatepartner")

	_, err := c.Classify("https://example.com/foo")
	assert.ErrorIs(t, err, ErrNotPaymentCallback)
}

func TestClassifyResponseParameter(t *testing.T) {
	c := NewClassifier("scrapmatepartner")

	callback, err := c.Classify("scrapmatepartner://payment/callback?response=Status%3DSUCCESS%26TxnId%3DT3")
	require.NoError(t, err)

	assert.Equal(t, RuleResponseParam, callback.Rule)
	assert.Equal(t, "Status=SUCCESS&TxnId=T3", callback.Payload)

	result := ParseResponse(callback.Payload)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "T3", result.TransactionID)
}

func TestClassifyStatusQuery(t *testing.T) {
	c := NewClassifier("scrapmatepartner")

	callback, err := c.Classify("upi://pay?Status=FAILURE&TxnId=T4")
	require.NoError(t, err)

	assert.Equal(t, RuleStatusQuery, callback.Rule)
	assert.Equal(t, "Status=FAILURE&TxnId=T4", callback.Payload)
}

func TestClassifyFallsBackToQuery(t *testing.T) {
	c := NewClassifier("scrapmatepartner")

	callback, err := c.Classify("upi://pay?txnId=T6&responseCode=00#frag")
	require.NoError(t, err)

	assert.Equal(t, RuleQuery, callback.Rule)
	assert.Equal(t, "txnId=T6&responseCode=00", callback.Payload)
}

func TestClassifyWithoutQueryIsEmpty(t *testing.T) {
	c := NewClassifier("scrapmatepartner")

	_, err := c.Classify("scrapmatepartner://payment/callback")
	assert.ErrorIs(t, err, ErrEmptyCallback)
}

func TestClassifyCarriesCorrelationParameter(t *testing.T) {
	c := NewClassifier("scrapmatepartner")

	callback, err := c.Classify("scrapmatepartner://payment/callback?cid=attempt-7&response=Status%3DSUCCESS")
	require.NoError(t, err)

	assert.Equal(t, "attempt-7", callback.CorrelationID)
	assert.Equal(t, RuleResponseParam, callback.Rule)
}

func TestClassifierMatchesSchemeCaseInsensitively(t *testing.T) {
	c := NewClassifier("scrapmatepartner://")

	assert.True(t, c.Matches("UPI://pay?x=1"))
	assert.True(t, c.Matches("ScrapMatePartner://payment/callback"))
	assert.False(t, c.Matches("upipay://x"))
}
