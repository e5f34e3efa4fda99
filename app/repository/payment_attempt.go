package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
)

var (
	ErrAttemptNotFound      = errors.New("payment attempt not found")
	ErrAttemptAlreadyExists = errors.New("payment attempt already exists")
)

const attemptColumns = `
	id, correlation_id, user_id, package_id,
	payee_id, payee_name, amount, currency, note, intent_uri,
	status, payment_method,
	result_source, transaction_id, response_code, approval_ref_no, result_message, raw_response, resolved_at,
	metadata_json,
	record_delivery_status, record_delivery_attempts, record_delivery_next_at, record_delivery_last_error,
	created_at, updated_at
`

type PaymentAttemptRepository struct {
	db DBTX
}

func NewPaymentAttemptRepository(db DBTX) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{db: db}
}

func (r *PaymentAttemptRepository) Create(ctx context.Context, attempt *entity.PaymentAttempt) error {
	metadataJSON, err := serializeMetadata(attempt.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payment_attempts (
			correlation_id, user_id, package_id,
			payee_id, payee_name, amount, currency, note, intent_uri,
			status, payment_method,
			result_source, transaction_id, response_code, approval_ref_no, result_message, raw_response, resolved_at,
			metadata_json,
			record_delivery_status, record_delivery_attempts, record_delivery_next_at, record_delivery_last_error,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		attempt.CorrelationID,
		attempt.UserID,
		attempt.PackageID,
		attempt.PayeeID,
		attempt.PayeeName,
		attempt.Amount,
		attempt.Currency,
		nullable(attempt.Note),
		attempt.IntentURI,
		attempt.Status,
		attempt.PaymentMethod,
		nullable(attempt.ResultSource),
		nullable(attempt.TransactionID),
		nullable(attempt.ResponseCode),
		nullable(attempt.ApprovalRefNo),
		nullable(attempt.ResultMessage),
		nullable(attempt.RawResponse),
		nullable(attempt.ResolvedAt),
		metadataJSON,
		attempt.RecordDeliveryStatus,
		attempt.RecordDeliveryAttempts,
		nullable(attempt.RecordDeliveryNextAt),
		nullable(attempt.RecordDeliveryLastErr),
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrAttemptAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	attempt.ID = uint64(id)
	return nil
}

func (r *PaymentAttemptRepository) Update(ctx context.Context, attempt *entity.PaymentAttempt) error {
	metadataJSON, err := serializeMetadata(attempt.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE payment_attempts SET
			status = ?,
			payment_method = ?,
			result_source = ?,
			transaction_id = ?,
			response_code = ?,
			approval_ref_no = ?,
			result_message = ?,
			raw_response = ?,
			resolved_at = ?,
			metadata_json = ?,
			record_delivery_status = ?,
			record_delivery_attempts = ?,
			record_delivery_next_at = ?,
			record_delivery_last_error = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		attempt.Status,
		attempt.PaymentMethod,
		nullable(attempt.ResultSource),
		nullable(attempt.TransactionID),
		nullable(attempt.ResponseCode),
		nullable(attempt.ApprovalRefNo),
		nullable(attempt.ResultMessage),
		nullable(attempt.RawResponse),
		nullable(attempt.ResolvedAt),
		metadataJSON,
		attempt.RecordDeliveryStatus,
		attempt.RecordDeliveryAttempts,
		nullable(attempt.RecordDeliveryNextAt),
		nullable(attempt.RecordDeliveryLastErr),
		attempt.UpdatedAt,
		attempt.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAttemptNotFound
	}

	return nil
}

func (r *PaymentAttemptRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*entity.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE correlation_id = ? LIMIT 1`

	attempt := &entity.PaymentAttempt{}
	if err := scanAttempt(r.db.QueryRowContext(ctx, query, correlationID), attempt); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return attempt, nil
}

// ListOpen pages through attempts still waiting for a result, ordered by id.
func (r *PaymentAttemptRepository) ListOpen(ctx context.Context, afterID uint64, limit int32) ([]*entity.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE status IN (?, ?)
		  AND id > ?
		ORDER BY id ASC
		LIMIT ?
	`

	return r.list(ctx, query, entity.AttemptStatusPending, entity.AttemptStatusAwaitingReference, afterID, limit)
}

func (r *PaymentAttemptRepository) ListDueRecordDispatch(ctx context.Context, now time.Time, limit int32) ([]*entity.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE record_delivery_status = ?
		  AND record_delivery_next_at IS NOT NULL
		  AND record_delivery_next_at <= ?
		ORDER BY record_delivery_next_at ASC
		LIMIT ?
	`

	return r.list(ctx, query, entity.RecordDeliveryPending, now, limit)
}

func (r *PaymentAttemptRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE status IN (?, ?)
		  AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	return r.list(ctx, query, entity.AttemptStatusPending, entity.AttemptStatusAwaitingReference, cutoff, limit)
}

func (r *PaymentAttemptRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.PaymentAttempt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]*entity.PaymentAttempt, 0)
	for rows.Next() {
		item := &entity.PaymentAttempt{}
		if err := scanAttempt(rows, item); err != nil {
			return nil, err
		}
		attempts = append(attempts, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return attempts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(scan rowScanner, attempt *entity.PaymentAttempt) error {
	var note sql.NullString
	var resultSource sql.NullString
	var transactionID sql.NullString
	var responseCode sql.NullString
	var approvalRefNo sql.NullString
	var resultMessage sql.NullString
	var rawResponse sql.NullString
	var resolvedAt sql.NullTime
	var metadataJSON string
	var recordNextAt sql.NullTime
	var recordLastErr sql.NullString

	err := scan.Scan(
		&attempt.ID,
		&attempt.CorrelationID,
		&attempt.UserID,
		&attempt.PackageID,
		&attempt.PayeeID,
		&attempt.PayeeName,
		&attempt.Amount,
		&attempt.Currency,
		&note,
		&attempt.IntentURI,
		&attempt.Status,
		&attempt.PaymentMethod,
		&resultSource,
		&transactionID,
		&responseCode,
		&approvalRefNo,
		&resultMessage,
		&rawResponse,
		&resolvedAt,
		&metadataJSON,
		&attempt.RecordDeliveryStatus,
		&attempt.RecordDeliveryAttempts,
		&recordNextAt,
		&recordLastErr,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)
	if err != nil {
		return err
	}

	attempt.Note = stringPtrFromNull(note)
	attempt.ResultSource = stringPtrFromNull(resultSource)
	attempt.TransactionID = stringPtrFromNull(transactionID)
	attempt.ResponseCode = stringPtrFromNull(responseCode)
	attempt.ApprovalRefNo = stringPtrFromNull(approvalRefNo)
	attempt.ResultMessage = stringPtrFromNull(resultMessage)
	attempt.RawResponse = stringPtrFromNull(rawResponse)
	attempt.ResolvedAt = timePtrFromNull(resolvedAt)
	attempt.RecordDeliveryNextAt = timePtrFromNull(recordNextAt)
	attempt.RecordDeliveryLastErr = stringPtrFromNull(recordLastErr)

	metadata, err := parseMetadata(metadataJSON)
	if err != nil {
		return err
	}
	attempt.Metadata = metadata

	return nil
}
