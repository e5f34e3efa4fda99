package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/backend"
	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
	"github.com/vibast-solutions/ms-go-upi-payments/app/factory"
	"github.com/vibast-solutions/ms-go-upi-payments/app/repository"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
	"github.com/vibast-solutions/ms-go-upi-payments/config"
)

const defaultBatchSize = int32(100)

type createAttemptRequest interface {
	GetCorrelationID() string
	GetUserID() string
	GetPackageID() string
	GetAmount() string
	GetNote() string
	GetPayeeID() string
	GetPayeeName() string
	GetMetadata() map[string]string
}

type cancelAttemptRequest interface {
	GetCorrelationID() string
	GetReason() string
}

type attemptRepository interface {
	Create(ctx context.Context, attempt *entity.PaymentAttempt) error
	Update(ctx context.Context, attempt *entity.PaymentAttempt) error
	FindByCorrelationID(ctx context.Context, correlationID string) (*entity.PaymentAttempt, error)
	ListOpen(ctx context.Context, afterID uint64, limit int32) ([]*entity.PaymentAttempt, error)
	ListDueRecordDispatch(ctx context.Context, now time.Time, limit int32) ([]*entity.PaymentAttempt, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.PaymentAttempt, error)
}

type attemptEventRepository interface {
	Create(ctx context.Context, event *entity.AttemptEvent) error
}

type paymentSignalRepository interface {
	Create(ctx context.Context, signal *entity.PaymentSignal) error
}

type attemptDispatcher interface {
	Register(ctx context.Context, correlationID string, consumer dispatch.Consumer) error
	Clear(correlationID string) bool
	Registered(correlationID string) bool
	CorrelationIDs() []string
}

type recordSubmitter interface {
	SaveSubscription(ctx context.Context, record backend.SubscriptionRecord) error
}

type eventPublisher interface {
	Publish(ctx context.Context, topic string, key string, message interface{}) error
}

type PaymentService struct {
	attemptRepo   attemptRepository
	eventRepo     attemptEventRepository
	signalRepo    paymentSignalRepository
	dispatcher    attemptDispatcher
	records       recordSubmitter
	publisher     eventPublisher
	upiCfg        config.UPIConfig
	paymentsCfg   config.PaymentsConfig
	resolvedTopic string
	logger        logrus.FieldLogger
}

func NewPaymentService(
	attemptRepo attemptRepository,
	eventRepo attemptEventRepository,
	signalRepo paymentSignalRepository,
	dispatcher attemptDispatcher,
	records recordSubmitter,
	publisher eventPublisher,
	upiCfg config.UPIConfig,
	paymentsCfg config.PaymentsConfig,
	resolvedTopic string,
) *PaymentService {
	return &PaymentService{
		attemptRepo:   attemptRepo,
		eventRepo:     eventRepo,
		signalRepo:    signalRepo,
		dispatcher:    dispatcher,
		records:       records,
		publisher:     publisher,
		upiCfg:        upiCfg,
		paymentsCfg:   paymentsCfg,
		resolvedTopic: strings.TrimSpace(resolvedTopic),
		logger:        factory.NewModuleLogger("upi-payment-service"),
	}
}

// CreateAttempt builds the intent for a new attempt and registers its
// consumer. Repeating a request with the same correlation id, user and
// package returns the stored attempt.
func (s *PaymentService) CreateAttempt(ctx context.Context, req createAttemptRequest) (*entity.PaymentAttempt, error) {
	userID := strings.TrimSpace(req.GetUserID())
	packageID := strings.TrimSpace(req.GetPackageID())
	if userID == "" || packageID == "" {
		return nil, ErrInvalidRequest
	}

	correlationID := strings.TrimSpace(req.GetCorrelationID())
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	existing, err := s.attemptRepo.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID != userID || existing.PackageID != packageID {
			return nil, ErrAttemptAlreadyExists
		}
		// A previous create may have stored the row and then failed to
		// register; the retry finishes that.
		if existing.Open() && !s.dispatcher.Registered(existing.CorrelationID) {
			if err := s.dispatcher.Register(ctx, existing.CorrelationID, s.HandleResult); err != nil {
				return nil, fmt.Errorf("register attempt consumer: %w", err)
			}
		}
		return existing, nil
	}

	amount, err := upi.ParseAmount(req.GetAmount())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	payeeID := firstNonEmpty(req.GetPayeeID(), s.upiCfg.PayeeID)
	payeeName := firstNonEmpty(req.GetPayeeName(), s.upiCfg.PayeeName)
	currency := strings.ToUpper(firstNonEmpty(s.upiCfg.Currency, upi.DefaultCurrency))
	note := strings.TrimSpace(req.GetNote())

	intentURI, err := upi.BuildIntent(upi.IntentParams{
		PayeeID:       payeeID,
		PayeeName:     payeeName,
		Amount:        amount.StringFixed(2),
		Currency:      currency,
		CorrelationID: correlationID,
		Note:          note,
		CallbackURL:   upi.CallbackURL(s.upiCfg.CallbackScheme, correlationID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	now := time.Now().UTC()
	attempt := &entity.PaymentAttempt{
		CorrelationID:        correlationID,
		UserID:               userID,
		PackageID:            packageID,
		PayeeID:              payeeID,
		PayeeName:            payeeName,
		Amount:               amount,
		Currency:             currency,
		Note:                 normalizeOptionalString(note),
		IntentURI:            intentURI,
		Status:               entity.AttemptStatusPending,
		PaymentMethod:        entity.PaymentMethodUPI,
		Metadata:             cloneMetadata(req.GetMetadata()),
		RecordDeliveryStatus: entity.RecordDeliveryNone,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrAttemptAlreadyExists) {
			return nil, ErrAttemptAlreadyExists
		}
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.AttemptEvent{
		AttemptID:     attempt.ID,
		CorrelationID: attempt.CorrelationID,
		EventType:     entity.EventAttemptCreated,
		NewStatus:     attempt.Status,
		CreatedAt:     now,
	})

	if err := s.dispatcher.Register(ctx, correlationID, s.HandleResult); err != nil {
		return nil, fmt.Errorf("register attempt consumer: %w", err)
	}

	return attempt, nil
}

func (s *PaymentService) GetAttempt(ctx context.Context, correlationID string) (*entity.PaymentAttempt, error) {
	attempt, err := s.attemptRepo.FindByCorrelationID(ctx, strings.TrimSpace(correlationID))
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

// CancelAttempt abandons an open attempt. Later signals for it are dropped.
func (s *PaymentService) CancelAttempt(ctx context.Context, req cancelAttemptRequest) (*entity.PaymentAttempt, error) {
	attempt, err := s.GetAttempt(ctx, req.GetCorrelationID())
	if err != nil {
		return nil, err
	}
	if !attempt.Open() {
		return nil, fmt.Errorf("%w: only open attempts can be canceled", ErrInvalidStatus)
	}

	s.dispatcher.Clear(attempt.CorrelationID)

	now := time.Now().UTC()
	oldStatus := attempt.Status
	attempt.Status = entity.AttemptStatusCanceled
	if reason := strings.TrimSpace(req.GetReason()); reason != "" {
		attempt.ResultMessage = &reason
	}
	attempt.UpdatedAt = now

	if err := s.attemptRepo.Update(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.AttemptEvent{
		AttemptID:     attempt.ID,
		CorrelationID: attempt.CorrelationID,
		EventType:     entity.EventAttemptCanceled,
		OldStatus:     &oldStatus,
		NewStatus:     attempt.Status,
		CreatedAt:     now,
	})

	return attempt, nil
}

// HandleResult is the consumer registered for every open attempt. Results
// for attempts that are already terminal are ignored.
func (s *PaymentService) HandleResult(ctx context.Context, result upi.PaymentResult) error {
	if strings.TrimSpace(result.Message) == "" {
		result.Message = upi.MessagePaymentFailed
		if result.Succeeded() {
			result.Message = upi.MessagePaymentSuccessful
		}
	}
	if err := result.Validate(); err != nil {
		return err
	}

	attempt, err := s.GetAttempt(ctx, result.CorrelationID)
	if err != nil {
		return err
	}
	if !attempt.Open() {
		s.logger.WithFields(logrus.Fields{
			"correlation_id": attempt.CorrelationID,
			"source":         result.Source,
			"status":         result.Status,
		}).Info("Ignoring result for resolved attempt")
		return nil
	}

	return s.resolve(ctx, attempt, result, entity.PaymentMethodUPI)
}

// RestorePending registers consumers for every open attempt, so signals
// arriving after a restart still resolve them.
func (s *PaymentService) RestorePending(ctx context.Context) (int, error) {
	restored := 0
	afterID := uint64(0)
	for {
		items, err := s.attemptRepo.ListOpen(ctx, afterID, s.batchSize())
		if err != nil {
			return restored, err
		}
		for _, attempt := range items {
			if err := s.dispatcher.Register(ctx, attempt.CorrelationID, s.HandleResult); err != nil {
				return restored, err
			}
			restored++
			afterID = attempt.ID
		}
		if int32(len(items)) < s.batchSize() {
			return restored, nil
		}
	}
}

func (s *PaymentService) resolve(ctx context.Context, attempt *entity.PaymentAttempt, result upi.PaymentResult, paymentMethod string) error {
	now := time.Now().UTC()
	oldStatus := attempt.Status

	attempt.Status = entity.AttemptStatusFailed
	if result.Succeeded() {
		attempt.Status = entity.AttemptStatusSucceeded
		s.markForRecordDelivery(attempt, now)
	}
	source := string(result.Source)
	attempt.PaymentMethod = paymentMethod
	attempt.ResultSource = &source
	attempt.TransactionID = normalizeOptionalString(result.TransactionID)
	attempt.ResponseCode = normalizeOptionalString(result.ResponseCode)
	attempt.ApprovalRefNo = normalizeOptionalString(result.ApprovalRefNo)
	attempt.ResultMessage = normalizeOptionalString(result.Message)
	attempt.RawResponse = normalizeOptionalString(truncate(result.RawResponse, 2048))
	attempt.ResolvedAt = &now
	attempt.UpdatedAt = now

	if err := s.attemptRepo.Update(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			return ErrAttemptNotFound
		}
		return err
	}

	event := newResolvedEvent(attempt, result, now)
	payload := event.JSON()
	_ = s.eventRepo.Create(ctx, &entity.AttemptEvent{
		AttemptID:     attempt.ID,
		CorrelationID: attempt.CorrelationID,
		EventType:     entity.EventAttemptResolved,
		OldStatus:     &oldStatus,
		NewStatus:     attempt.Status,
		PayloadJSON:   &payload,
		CreatedAt:     now,
	})

	if s.publisher != nil && s.resolvedTopic != "" {
		if err := s.publisher.Publish(ctx, s.resolvedTopic, attempt.CorrelationID, event); err != nil {
			s.logger.WithError(err).WithField("correlation_id", attempt.CorrelationID).Warn("Publishing resolved attempt failed")
		}
	}

	return nil
}

func (s *PaymentService) markForRecordDelivery(attempt *entity.PaymentAttempt, now time.Time) {
	attempt.RecordDeliveryStatus = entity.RecordDeliveryPending
	attempt.RecordDeliveryAttempts = 0
	attempt.RecordDeliveryNextAt = &now
	attempt.RecordDeliveryLastErr = nil
}

func (s *PaymentService) batchSize() int32 {
	if s.paymentsCfg.JobBatchSize > 0 {
		return s.paymentsCfg.JobBatchSize
	}
	return defaultBatchSize
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func normalizeOptionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return map[string]string{}
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// truncate caps value at max bytes without splitting a rune. Invalid UTF-8
// is replaced first so the result always fits a utf8mb4 column.
func truncate(value string, max int) string {
	value = strings.ToValidUTF8(value, "\uFFFD")
	if len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
