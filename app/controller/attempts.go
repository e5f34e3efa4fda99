package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/factory"
	"github.com/vibast-solutions/ms-go-upi-payments/app/mapper"
	"github.com/vibast-solutions/ms-go-upi-payments/app/service"
	"github.com/vibast-solutions/ms-go-upi-payments/app/types"
)

type AttemptController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewAttemptController(paymentService *service.PaymentService) *AttemptController {
	return &AttemptController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("upi-attempts-controller"),
	}
}

func (c *AttemptController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *AttemptController) CreateAttempt(ctx echo.Context) error {
	req, err := types.NewCreateAttemptRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.CreateAttempt(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Create attempt failed")
	}

	return ctx.JSON(http.StatusCreated, &types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (c *AttemptController) GetAttempt(ctx echo.Context) error {
	req, err := types.NewAttemptRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.GetAttempt(ctx.Request().Context(), req.GetCorrelationID())
	if err != nil {
		return c.writeServiceError(ctx, err, "Get attempt failed")
	}

	return ctx.JSON(http.StatusOK, &types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (c *AttemptController) CancelAttempt(ctx echo.Context) error {
	req, err := types.NewCancelAttemptRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.CancelAttempt(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Cancel attempt failed")
	}

	return ctx.JSON(http.StatusOK, &types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (c *AttemptController) PromptManualVerification(ctx echo.Context) error {
	req, err := types.NewAttemptRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.PromptManualVerification(ctx.Request().Context(), req.GetCorrelationID())
	if err != nil {
		return c.writeServiceError(ctx, err, "Prompt manual verification failed")
	}

	return ctx.JSON(http.StatusOK, &types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (c *AttemptController) SubmitManualVerification(ctx echo.Context) error {
	req, err := types.NewSubmitManualVerificationRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.SubmitManualVerification(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Submit manual verification failed")
	}

	factory.LoggerWithContext(c.logger, ctx).WithField("correlation_id", item.CorrelationID).Info("Manual verification submitted")
	return ctx.JSON(http.StatusOK, &types.AttemptEnvelopeResponse{Attempt: mapper.AttemptToDTO(item)})
}

func (c *AttemptController) writeServiceError(ctx echo.Context, err error, logMessage string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidStatus):
		return writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAttemptNotFound):
		return writeError(ctx, http.StatusNotFound, "payment attempt not found")
	case errors.Is(err, service.ErrAttemptAlreadyExists):
		return writeError(ctx, http.StatusConflict, err.Error())
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(logMessage)
		return writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
