package repository

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
)

type AttemptEventRepository struct {
	db DBTX
}

func NewAttemptEventRepository(db DBTX) *AttemptEventRepository {
	return &AttemptEventRepository{db: db}
}

// Create appends a history row; the attempt row itself is never touched.
func (r *AttemptEventRepository) Create(ctx context.Context, event *entity.AttemptEvent) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_attempt_events (
			attempt_id, correlation_id, event_type, old_status, new_status, payload_json, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.AttemptID,
		event.CorrelationID,
		string(event.EventType),
		nullable(event.OldStatus),
		event.NewStatus,
		nullable(event.PayloadJSON),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s event for %s: %w", event.EventType, event.CorrelationID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)
	return nil
}
