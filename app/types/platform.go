package types

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
)

type OpenURLRequest struct {
	URL string `json:"url"`
}

func NewOpenURLRequestFromContext(ctx echo.Context) (*OpenURLRequest, error) {
	req := &OpenURLRequest{}
	if err := ctx.Bind(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *OpenURLRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	return nil
}

type ChangeAppStateRequest struct {
	State string `json:"state"`
}

func NewChangeAppStateRequestFromContext(ctx echo.Context) (*ChangeAppStateRequest, error) {
	req := &ChangeAppStateRequest{}
	if err := ctx.Bind(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *ChangeAppStateRequest) Validate() error {
	if _, ok := platform.ParseAppState(r.State); !ok {
		return errors.New("state must be one of active, inactive, background")
	}
	return nil
}

func (r *ChangeAppStateRequest) AppState() platform.AppState {
	state, _ := platform.ParseAppState(r.State)
	return state
}

// SetPendingIntentRequest replaces the pending redirect. An empty url clears it.
type SetPendingIntentRequest struct {
	URL string `json:"url"`
}

func NewSetPendingIntentRequestFromContext(ctx echo.Context) (*SetPendingIntentRequest, error) {
	req := &SetPendingIntentRequest{}
	if err := ctx.Bind(req); err != nil {
		return nil, err
	}
	return req, nil
}

type EmitNativeEventRequest struct {
	Name    string                 `json:"name"`
	Payload map[string]interface{} `json:"payload"`
}

func NewEmitNativeEventRequestFromContext(ctx echo.Context) (*EmitNativeEventRequest, error) {
	payload := map[string]interface{}{}
	if err := json.NewDecoder(ctx.Request().Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &EmitNativeEventRequest{Name: strings.TrimSpace(ctx.Param("name")), Payload: payload}, nil
}

func (r *EmitNativeEventRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Payload == nil {
		return errors.New("payload is required")
	}
	return nil
}

type SignalResponse struct {
	Handled bool   `json:"handled"`
	Outcome string `json:"outcome,omitempty"`
}

type EmitNativeEventResponse struct {
	Subscribers int `json:"subscribers"`
}
