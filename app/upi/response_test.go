package upi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponseWellFormed(t *testing.T) {
	result := ParseResponse("Status=SUCCESS&TxnId=T1&ResponseCode=00&ApprovalRefNo=A1")

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "T1", result.TransactionID)
	assert.Equal(t, "00", result.ResponseCode)
	assert.Equal(t, "A1", result.ApprovalRefNo)
	assert.Equal(t, MessagePaymentSuccessful, result.Message)
	assert.Equal(t, "Status=SUCCESS&TxnId=T1&ResponseCode=00&ApprovalRefNo=A1", result.RawResponse)
}

func TestParseResponseCaseInsensitiveKeys(t *testing.T) {
	result := ParseResponse("status=success&txnId=T2")

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "T2", result.TransactionID)
}

func TestParseResponseMalformedInput(t *testing.T) {
	result := ParseResponse("garbage;;;")

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, MessagePaymentFailed, result.Message)
	assert.Equal(t, "garbage;;;", result.RawResponse)
}

func TestParseResponseFailureUsesStatusToken(t *testing.T) {
	result := ParseResponse("Status=FAILURE&ResponseCode=ZD")

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "FAILURE", result.Message)
	assert.Equal(t, "ZD", result.ResponseCode)
}

func TestParseResponseSkipsIncompleteSegments(t *testing.T) {
	result := ParseResponse("=x&TxnId=&Status=SUCCESS&&ApprovalRefNo")

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.TransactionID)
	assert.Empty(t, result.ApprovalRefNo)
}

func TestParseResponseSplitsOnFirstEquals(t *testing.T) {
	result := ParseResponse("Status=SUCCESS&TxnId=abc=def")

	assert.Equal(t, "abc=def", result.TransactionID)
}

func TestParseResponseDecodesValues(t *testing.T) {
	result := ParseResponse("Status=SUCCESS&TxnId=T%2040")

	assert.Equal(t, "T 40", result.TransactionID)
}

func TestParseResponseBadEscapeBecomesFailure(t *testing.T) {
	result := ParseResponse("Status=SUCCESS&TxnId=%zz")

	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Message, "invalid URL escape")
	assert.Equal(t, "Status=SUCCESS&TxnId=%zz", result.RawResponse)
}

func TestParseResponseTxnRefFallbackAndCorrelation(t *testing.T) {
	result := ParseResponse("Status=SUCCESS&txnRef=attempt-9")

	assert.Equal(t, "attempt-9", result.TransactionID)
	assert.Equal(t, "attempt-9", result.CorrelationID)

	result = ParseResponse("Status=SUCCESS&TxnId=T5&TxnRef=attempt-9")
	assert.Equal(t, "T5", result.TransactionID)
	assert.Equal(t, "attempt-9", result.CorrelationID)
}
