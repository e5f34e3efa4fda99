package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
)

type PaymentSignalRepository struct {
	db DBTX
}

func NewPaymentSignalRepository(db DBTX) *PaymentSignalRepository {
	return &PaymentSignalRepository{db: db}
}

func (r *PaymentSignalRepository) Create(ctx context.Context, signal *entity.PaymentSignal) error {
	query := `
		INSERT INTO payment_signals (
			attempt_id, correlation_id, source, status, outcome, transaction_id, raw_response, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullable(signal.AttemptID),
		signal.CorrelationID,
		signal.Source,
		signal.Status,
		signal.Outcome,
		nullable(signal.TransactionID),
		nullable(signal.RawResponse),
		signal.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	signal.ID = uint64(id)

	return nil
}
