package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/mapper"
	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
	"github.com/vibast-solutions/ms-go-upi-payments/app/service"
	"github.com/vibast-solutions/ms-go-upi-payments/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type signalIngress interface {
	OpenURL(ctx context.Context, url string)
	SetAppState(ctx context.Context, state platform.AppState)
	SetPendingIntent(url string)
	Emit(ctx context.Context, name string, payload map[string]interface{}) int
}

type pendingIntentChecker interface {
	CheckPendingIntent(ctx context.Context) (dispatch.Outcome, bool)
}

type Server struct {
	paymentService *service.PaymentService
	ingress        signalIngress
	checker        pendingIntentChecker
}

func NewServer(paymentService *service.PaymentService, ingress signalIngress, checker pendingIntentChecker) *Server {
	return &Server{paymentService: paymentService, ingress: ingress, checker: checker}
}

func (s *Server) Health(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return respond(&types.HealthResponse{Status: "ok"})
}

func (s *Server) CreateAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	l := loggerWithContext(ctx)
	req := &types.CreateAttemptRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		l.WithError(err).Debug("Create attempt validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.CreateAttempt(ctx, req)
	if err != nil {
		return nil, serviceError(ctx, err, "Create attempt failed")
	}

	return respond(&types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (s *Server) GetAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.AttemptRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.GetAttempt(ctx, req.GetCorrelationID())
	if err != nil {
		return nil, serviceError(ctx, err, "Get attempt failed")
	}

	return respond(&types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (s *Server) CancelAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.CancelAttemptRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.CancelAttempt(ctx, req)
	if err != nil {
		return nil, serviceError(ctx, err, "Cancel attempt failed")
	}

	return respond(&types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (s *Server) PromptManualVerification(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.AttemptRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.PromptManualVerification(ctx, req.GetCorrelationID())
	if err != nil {
		return nil, serviceError(ctx, err, "Prompt manual verification failed")
	}

	return respond(&types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (s *Server) SubmitManualVerification(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.SubmitManualVerificationRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.SubmitManualVerification(ctx, req)
	if err != nil {
		return nil, serviceError(ctx, err, "Submit manual verification failed")
	}

	return respond(&types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (s *Server) CheckPaymentCallback(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	outcome, handled := s.checker.CheckPendingIntent(ctx)
	return respond(&types.SignalResponse{Handled: handled, Outcome: string(outcome)})
}

func (s *Server) OpenURL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.OpenURLRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.ingress.OpenURL(ctx, req.URL)
	return respond(&types.MessageResponse{Message: "URL open delivered"})
}

func (s *Server) ChangeAppState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.ChangeAppStateRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.ingress.SetAppState(ctx, req.AppState())
	return respond(&types.MessageResponse{Message: "App state delivered"})
}

func (s *Server) SetPendingIntent(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.SetPendingIntentRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}

	s.ingress.SetPendingIntent(req.URL)
	return respond(&types.MessageResponse{Message: "Pending intent stored"})
}

func (s *Server) EmitNativeEvent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.EmitNativeEventRequest{}
	if err := decode(in, req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	subscribers := s.ingress.Emit(ctx, req.Name, req.Payload)
	return respond(&types.EmitNativeEventResponse{Subscribers: subscribers})
}

func serviceError(ctx context.Context, err error, logMessage string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidStatus):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrAttemptNotFound):
		return status.Error(codes.NotFound, "payment attempt not found")
	case errors.Is(err, service.ErrAttemptAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		loggerWithContext(ctx).WithError(err).Error(logMessage)
		return status.Error(codes.Internal, "internal server error")
	}
}

func decode(in *structpb.Struct, out interface{}) error {
	if err := fromStruct(in, out); err != nil {
		return status.Error(codes.InvalidArgument, "invalid request payload")
	}
	return nil
}

func respond(v interface{}) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}
