package controller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/factory"
	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
	"github.com/vibast-solutions/ms-go-upi-payments/app/types"
)

// signalIngress is the side of the platform bus the mobile shell drives.
type signalIngress interface {
	OpenURL(ctx context.Context, url string)
	SetAppState(ctx context.Context, state platform.AppState)
	SetPendingIntent(url string)
	Emit(ctx context.Context, name string, payload map[string]interface{}) int
}

type pendingIntentChecker interface {
	CheckPendingIntent(ctx context.Context) (dispatch.Outcome, bool)
}

// PlatformController forwards shell signals into the listener pipeline.
type PlatformController struct {
	ingress signalIngress
	checker pendingIntentChecker
	logger  logrus.FieldLogger
}

func NewPlatformController(ingress signalIngress, checker pendingIntentChecker) *PlatformController {
	return &PlatformController{
		ingress: ingress,
		checker: checker,
		logger:  factory.NewModuleLogger("upi-platform-controller"),
	}
}

func (c *PlatformController) OpenURL(ctx echo.Context) error {
	req, err := types.NewOpenURLRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	c.ingress.OpenURL(ctx.Request().Context(), req.URL)
	return ctx.JSON(http.StatusAccepted, &types.MessageResponse{Message: "URL open delivered"})
}

func (c *PlatformController) ChangeAppState(ctx echo.Context) error {
	req, err := types.NewChangeAppStateRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	c.ingress.SetAppState(ctx.Request().Context(), req.AppState())
	return ctx.JSON(http.StatusAccepted, &types.MessageResponse{Message: "App state delivered"})
}

func (c *PlatformController) SetPendingIntent(ctx echo.Context) error {
	req, err := types.NewSetPendingIntentRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	c.ingress.SetPendingIntent(req.URL)
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Pending intent stored"})
}

func (c *PlatformController) EmitNativeEvent(ctx echo.Context) error {
	req, err := types.NewEmitNativeEventRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	subscribers := c.ingress.Emit(ctx.Request().Context(), req.Name, req.Payload)
	if subscribers == 0 {
		factory.LoggerWithContext(c.logger, ctx).WithField("event", req.Name).Debug("Native event has no subscribers")
	}
	return ctx.JSON(http.StatusAccepted, &types.EmitNativeEventResponse{Subscribers: subscribers})
}

// CheckCallback runs the pending-intent check as if the app had just
// returned to the foreground.
func (c *PlatformController) CheckCallback(ctx echo.Context) error {
	outcome, handled := c.checker.CheckPendingIntent(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, &types.SignalResponse{Handled: handled, Outcome: string(outcome)})
}
