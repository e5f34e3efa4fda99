package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-upi-payments/app/backend"
	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/entity"
	"github.com/vibast-solutions/ms-go-upi-payments/app/listener"
	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
	"github.com/vibast-solutions/ms-go-upi-payments/app/service"
	"github.com/vibast-solutions/ms-go-upi-payments/app/types"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
	"github.com/vibast-solutions/ms-go-upi-payments/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type grpcAttemptRepo struct {
	attempts map[string]*entity.PaymentAttempt
	nextID   uint64
}

func newGRPCAttemptRepo() *grpcAttemptRepo {
	return &grpcAttemptRepo{attempts: map[string]*entity.PaymentAttempt{}, nextID: 1}
}

func (r *grpcAttemptRepo) Create(_ context.Context, attempt *entity.PaymentAttempt) error {
	attempt.ID = r.nextID
	r.nextID++
	copyItem := *attempt
	r.attempts[attempt.CorrelationID] = &copyItem
	return nil
}

func (r *grpcAttemptRepo) Update(_ context.Context, attempt *entity.PaymentAttempt) error {
	copyItem := *attempt
	r.attempts[attempt.CorrelationID] = &copyItem
	return nil
}

func (r *grpcAttemptRepo) FindByCorrelationID(_ context.Context, correlationID string) (*entity.PaymentAttempt, error) {
	item, ok := r.attempts[correlationID]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *grpcAttemptRepo) ListOpen(context.Context, uint64, int32) ([]*entity.PaymentAttempt, error) {
	return []*entity.PaymentAttempt{}, nil
}

func (r *grpcAttemptRepo) ListDueRecordDispatch(context.Context, time.Time, int32) ([]*entity.PaymentAttempt, error) {
	return []*entity.PaymentAttempt{}, nil
}

func (r *grpcAttemptRepo) ListExpiredPending(context.Context, time.Time, int32) ([]*entity.PaymentAttempt, error) {
	return []*entity.PaymentAttempt{}, nil
}

type grpcEventRepo struct{}

func (r *grpcEventRepo) Create(context.Context, *entity.AttemptEvent) error { return nil }

type grpcSignalRepo struct{}

func (r *grpcSignalRepo) Create(context.Context, *entity.PaymentSignal) error { return nil }

type grpcRecords struct{}

func (r *grpcRecords) SaveSubscription(context.Context, backend.SubscriptionRecord) error { return nil }

type grpcPublisher struct{}

func (p *grpcPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

type grpcFixture struct {
	server *Server
	repo   *grpcAttemptRepo
	bus    *platform.Bus
	stop   func()
}

func newGRPCFixture(t *testing.T) *grpcFixture {
	t.Helper()
	repo := newGRPCAttemptRepo()
	dispatcher := dispatch.NewDispatcher()
	paymentService := service.NewPaymentService(
		repo,
		&grpcEventRepo{},
		&grpcSignalRepo{},
		dispatcher,
		&grpcRecords{},
		&grpcPublisher{},
		config.UPIConfig{CallbackScheme: "scrapmatepartner", PayeeID: "merchant@upi", PayeeName: "Scrapmate", Currency: "INR"},
		config.PaymentsConfig{RecordMaxAttempts: 3, RecordRetryInterval: time.Minute, PendingTimeout: time.Hour, JobBatchSize: 100},
		"upi.payments.resolved",
	)

	bus := platform.NewBus("")
	handler := listener.NewURLHandler(upi.NewClassifier("scrapmatepartner"), dispatcher)
	deepLinks := listener.NewDeepLinkListener(bus, handler)
	if err := deepLinks.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	monitor := listener.NewLifecycleMonitor(bus, bus, handler)
	monitor.Start()
	bridge := listener.NewNativeBridge(bus, dispatcher)
	bridge.Start()

	return &grpcFixture{
		server: NewServer(paymentService, bus, monitor),
		repo:   repo,
		bus:    bus,
		stop: func() {
			deepLinks.Stop()
			monitor.Stop()
			bridge.Stop()
		},
	}
}

func mustStruct(t *testing.T, v interface{}) *structpb.Struct {
	t.Helper()
	out, err := toStruct(v)
	if err != nil {
		t.Fatalf("to struct failed: %v", err)
	}
	return out
}

func TestCreateAttemptInvalidArgument(t *testing.T) {
	f := newGRPCFixture(t)
	defer f.stop()

	_, err := f.server.CreateAttempt(context.Background(), mustStruct(t, &types.CreateAttemptRequest{UserID: "user-1"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestCreateAttemptSuccess(t *testing.T) {
	f := newGRPCFixture(t)
	defer f.stop()

	resp, err := f.server.CreateAttempt(context.Background(), mustStruct(t, &types.CreateAttemptRequest{
		CorrelationID: "attempt-1",
		UserID:        "user-1",
		PackageID:     "pkg-1",
		Amount:        "250.5",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload types.AttemptEnvelopeResponse
	if err := fromStruct(resp, &payload); err != nil {
		t.Fatalf("from struct failed: %v", err)
	}
	if payload.GetAttempt().Amount != "250.50" || payload.GetAttempt().Status != "pending" {
		t.Fatalf("unexpected attempt payload: %+v", payload.GetAttempt())
	}
}

func TestGetAttemptNotFound(t *testing.T) {
	f := newGRPCFixture(t)
	defer f.stop()

	_, err := f.server.GetAttempt(context.Background(), mustStruct(t, &types.AttemptRequest{CorrelationID: "missing"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCancelResolvedAttemptInvalidArgument(t *testing.T) {
	f := newGRPCFixture(t)
	defer f.stop()
	f.repo.attempts["attempt-1"] = &entity.PaymentAttempt{
		ID:            1,
		CorrelationID: "attempt-1",
		Amount:        decimal.RequireFromString("10"),
		Status:        entity.AttemptStatusSucceeded,
	}

	_, err := f.server.CancelAttempt(context.Background(), mustStruct(t, &types.CancelAttemptRequest{CorrelationID: "attempt-1"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestOpenURLResolvesCreatedAttempt(t *testing.T) {
	f := newGRPCFixture(t)
	defer f.stop()
	ctx := context.Background()

	if _, err := f.server.CreateAttempt(ctx, mustStruct(t, &types.CreateAttemptRequest{CorrelationID: "attempt-1", UserID: "user-1", PackageID: "pkg-1", Amount: "99"})); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.server.OpenURL(ctx, mustStruct(t, &types.OpenURLRequest{URL: "scrapmatepartner://payment/callback?cid=attempt-1&Status=SUCCESS&txnId=T7"})); err != nil {
		t.Fatalf("open url failed: %v", err)
	}

	stored := f.repo.attempts["attempt-1"]
	if stored.Status != entity.AttemptStatusSucceeded {
		t.Fatalf("expected succeeded, got %d", stored.Status)
	}
	if stored.TransactionID == nil || *stored.TransactionID != "T7" {
		t.Fatalf("unexpected transaction id %v", stored.TransactionID)
	}
}

func TestEmitNativeEventRequiresName(t *testing.T) {
	f := newGRPCFixture(t)
	defer f.stop()

	_, err := f.server.EmitNativeEvent(context.Background(), mustStruct(t, map[string]interface{}{"payload": map[string]interface{}{"status": "success"}}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestServiceDescriptorRoundTrip(t *testing.T) {
	f := newGRPCFixture(t)
	defer f.stop()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(RecoveryInterceptor(), RequestIDInterceptor(), LoggingInterceptor()))
	RegisterPaymentSignalServiceServer(srv, f.server)
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	client := NewPaymentSignalServiceClient(conn)
	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDHeader, "req-grpc-1")

	var health types.HealthResponse
	if err := client.Call(ctx, "Health", nil, &health); err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("unexpected health %+v", health)
	}

	var created types.AttemptEnvelopeResponse
	if err := client.Call(ctx, "CreateAttempt", &types.CreateAttemptRequest{CorrelationID: "attempt-9", UserID: "user-1", PackageID: "pkg-1", Amount: "10"}, &created); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var emitted types.EmitNativeEventResponse
	err = client.Call(ctx, "EmitNativeEvent", &types.EmitNativeEventRequest{
		Name:    listener.PaymentResponseEvent,
		Payload: map[string]interface{}{"status": "failure", "correlationId": "attempt-9"},
	}, &emitted)
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if emitted.Subscribers != 1 {
		t.Fatalf("expected one subscriber, got %d", emitted.Subscribers)
	}
	if f.repo.attempts["attempt-9"].Status != entity.AttemptStatusFailed {
		t.Fatalf("expected failed attempt, got %d", f.repo.attempts["attempt-9"].Status)
	}

	err = client.Call(context.Background(), "Health", nil, &health)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument without request id, got %v", err)
	}
}
