package upi

import (
	"net/url"
	"strings"
)

// ParseResponse decodes an ampersand-delimited UPI response such as
// "Status=SUCCESS&TxnId=123&ResponseCode=00&ApprovalRefNo=ABC".
//
// It never fails: segments missing a key or a value are skipped, and a
// decoding error yields a failed result that carries the error text.
func ParseResponse(raw string) PaymentResult {
	result := PaymentResult{
		Status:      StatusFailed,
		Message:     MessagePaymentFailed,
		RawResponse: raw,
	}

	params := make(map[string]string)
	for _, segment := range strings.Split(raw, "&") {
		key, value, found := strings.Cut(segment, "=")
		if !found || key == "" || value == "" {
			continue
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			result.Message = err.Error()
			return result
		}
		params[strings.ToLower(strings.TrimSpace(key))] = decoded
	}

	status := params["status"]
	if strings.ToUpper(strings.TrimSpace(status)) == "SUCCESS" {
		result.Status = StatusSuccess
		result.Message = MessagePaymentSuccessful
	} else if status != "" {
		result.Message = status
	}

	result.TransactionID = firstNonEmpty(params["txnid"], params["txnref"])
	result.ResponseCode = params["responsecode"]
	result.ApprovalRefNo = params["approvalrefno"]
	result.CorrelationID = firstNonEmpty(params["txnref"], params["tr"])

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
