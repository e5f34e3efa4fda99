package upi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIntentIncludesPayeeAmountAndCallback(t *testing.T) {
	intent, err := BuildIntent(IntentParams{
		PayeeID:       "merchant@upi",
		PayeeName:     "Scrap Mate",
		Amount:        "100",
		Currency:      "inr",
		CorrelationID: "attempt-1",
		CallbackURL:   CallbackURL("scrapmatepartner", "attempt-1"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(intent, "upi://pay?pa=merchant%40upi&pn=Scrap%20Mate&am=100.00&cu=INR&tr=attempt-1"))
	assert.Contains(t, intent, "&url=scrapmatepartner%3A%2F%2Fpayment%2Fcallback%3Fcid%3Dattempt-1")
}

func TestBuildIntentRejectsInvalidAmount(t *testing.T) {
	for _, amount := range []string{"", "abc", "0", "-5", "0.001", "+5", "1e5", "1e5000000", "1E2", "100000.01", "999999999", "12.", ".5", "0x10"} {
		_, err := BuildIntent(IntentParams{PayeeID: "merchant@upi", PayeeName: "Scrap Mate", Amount: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %q", amount)
	}
}

func TestParseAmountBounds(t *testing.T) {
	amount, err := ParseAmount(" 100000 ")
	require.NoError(t, err)
	assert.Equal(t, "100000.00", amount.StringFixed(2))

	amount, err = ParseAmount("0.005")
	require.NoError(t, err)
	assert.Equal(t, "0.01", amount.StringFixed(2))

	_, err = ParseAmount("1" + strings.Repeat("0", 40))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestBuildIntentRequiresPayee(t *testing.T) {
	_, err := BuildIntent(IntentParams{PayeeName: "Scrap Mate", Amount: "10"})
	assert.ErrorIs(t, err, ErrInvalidPayee)
}

func TestBuildIntentDefaultsCurrency(t *testing.T) {
	intent, err := BuildIntent(IntentParams{PayeeID: "m@upi", PayeeName: "M", Amount: "1.5"})
	require.NoError(t, err)

	assert.Equal(t, "upi://pay?pa=m%40upi&pn=M&am=1.50&cu=INR", intent)
}

func TestAppendCallbackURLIsIdempotent(t *testing.T) {
	intent := "upi://pay?pa=m%40upi&url=https%3A%2F%2Fexample.com"

	assert.Equal(t, intent, AppendCallbackURL(intent, "scrapmatepartner://payment/callback"))
	assert.Equal(t, "upi://pay?url=x%3A%2F%2Fy", AppendCallbackURL("upi://pay", "x://y"))

	once := AppendCallbackURL("upi://pay?pa=m", "x://y")
	assert.Equal(t, once, AppendCallbackURL(once, "x://y"))
}

func TestCallbackURL(t *testing.T) {
	assert.Equal(t, "scrapmatepartner://payment/callback", CallbackURL("scrapmatepartner://", ""))
	assert.Equal(t, "scrapmatepartner://payment/callback?cid=a%20b", CallbackURL("ScrapMatePartner", "a b"))
	assert.Empty(t, CallbackURL("", "x"))
}
