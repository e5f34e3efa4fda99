package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

var (
	intentPayeeID       string
	intentPayeeName     string
	intentAmount        string
	intentCurrency      string
	intentCorrelationID string
	intentNote          string
	callbackScheme      string
)

var upiCmd = &cobra.Command{
	Use:   "upi",
	Short: "Inspect UPI intents and payment responses offline",
}

var upiIntentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Print the UPI intent URI for a payment",
	RunE: func(cmd *cobra.Command, _ []string) error {
		correlationID := intentCorrelationID
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		intent, err := upi.BuildIntent(upi.IntentParams{
			PayeeID:       intentPayeeID,
			PayeeName:     intentPayeeName,
			Amount:        intentAmount,
			Currency:      intentCurrency,
			CorrelationID: correlationID,
			Note:          intentNote,
			CallbackURL:   upi.CallbackURL(callbackScheme, correlationID),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), intent)
		return nil
	},
}

var upiParseCmd = &cobra.Command{
	Use:   "parse <raw-response>",
	Short: "Parse an ampersand-delimited UPI response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd, upi.ParseResponse(args[0]))
	},
}

var upiClassifyCmd = &cobra.Command{
	Use:   "classify <url>",
	Short: "Show whether a URL is a payment callback and what it carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		callback, err := upi.NewClassifier(callbackScheme).Classify(args[0])
		if err != nil {
			return err
		}

		result := upi.ParseResponse(callback.Payload)
		if callback.CorrelationID != "" {
			result.CorrelationID = callback.CorrelationID
		}
		return printJSON(cmd, map[string]interface{}{
			"rule":           callback.Rule,
			"payload":        callback.Payload,
			"correlation_id": result.CorrelationID,
			"result":         result,
		})
	},
}

func init() {
	rootCmd.AddCommand(upiCmd)
	upiCmd.AddCommand(upiIntentCmd, upiParseCmd, upiClassifyCmd)

	upiCmd.PersistentFlags().StringVar(&callbackScheme, "callback-scheme", envOrDefault("UPI_CALLBACK_SCHEME", "scrapmatepartner"), "App scheme payment apps redirect to")

	upiIntentCmd.Flags().StringVar(&intentPayeeID, "payee-id", "", "Payee VPA")
	upiIntentCmd.Flags().StringVar(&intentPayeeName, "payee-name", "", "Payee display name")
	upiIntentCmd.Flags().StringVar(&intentAmount, "amount", "", "Amount in rupees")
	upiIntentCmd.Flags().StringVar(&intentCurrency, "currency", upi.DefaultCurrency, "Currency code")
	upiIntentCmd.Flags().StringVar(&intentCorrelationID, "correlation-id", "", "Correlation id, generated when empty")
	upiIntentCmd.Flags().StringVar(&intentNote, "note", "", "Transaction note")
	_ = upiIntentCmd.MarkFlagRequired("payee-id")
	_ = upiIntentCmd.MarkFlagRequired("payee-name")
	_ = upiIntentCmd.MarkFlagRequired("amount")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
