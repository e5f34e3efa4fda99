package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/config"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUPIIntentCommand(t *testing.T) {
	out, err := executeRoot(t, "upi", "intent", "--payee-id", "merchant@upi", "--payee-name", "Scrapmate", "--amount", "10", "--correlation-id", "attempt-1", "--callback-scheme", "scrapmatepartner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	intent := strings.TrimSpace(out)
	if !strings.HasPrefix(intent, "upi://pay?pa=merchant%40upi&pn=Scrapmate&am=10.00&cu=INR&tr=attempt-1") {
		t.Fatalf("unexpected intent %q", intent)
	}
	if !strings.Contains(intent, "url=scrapmatepartner%3A%2F%2Fpayment%2Fcallback%3Fcid%3Dattempt-1") {
		t.Fatalf("expected callback url in %q", intent)
	}
}

func TestUPIParseCommand(t *testing.T) {
	out, err := executeRoot(t, "upi", "parse", "Status=SUCCESS&TxnId=T3&ApprovalRefNo=A3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if parsed["status"] != "success" || parsed["transaction_id"] != "T3" || parsed["approval_ref_no"] != "A3" {
		t.Fatalf("unexpected parse output %v", parsed)
	}
}

func TestUPIClassifyCommandRejectsUnrelatedURL(t *testing.T) {
	_, err := executeRoot(t, "upi", "classify", "https://example.com/foo")
	if err == nil {
		t.Fatalf("expected classification error")
	}
}

func TestUPIClassifyCommandReportsRule(t *testing.T) {
	out, err := executeRoot(t, "upi", "classify", "scrapmatepartner://payment/callback?cid=attempt-2&response=Status%3DFAILURE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if parsed["rule"] != "response_param" || parsed["correlation_id"] != "attempt-2" {
		t.Fatalf("unexpected classify output %v", parsed)
	}
}

func TestConfigureLogging(t *testing.T) {
	previous := logrus.GetLevel()
	defer logrus.SetLevel(previous)

	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "debug"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logrus.GetLevel())
	}
	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "loud"}}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
