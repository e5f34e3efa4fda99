package platform

import (
	"context"
	"strings"
)

type AppState string

const (
	AppStateActive     AppState = "active"
	AppStateInactive   AppState = "inactive"
	AppStateBackground AppState = "background"
)

func ParseAppState(raw string) (AppState, bool) {
	switch AppState(strings.ToLower(strings.TrimSpace(raw))) {
	case AppStateActive:
		return AppStateActive, true
	case AppStateInactive:
		return AppStateInactive, true
	case AppStateBackground:
		return AppStateBackground, true
	default:
		return "", false
	}
}

func (s AppState) IsActive() bool {
	return s == AppStateActive
}

// URLSource delivers "app opened via URL" notifications.
type URLSource interface {
	InitialURL(ctx context.Context) (string, error)
	SubscribeURL(handler func(ctx context.Context, url string)) (unsubscribe func())
}

// AppStateSource delivers foreground/background transitions.
type AppStateSource interface {
	CurrentAppState() AppState
	SubscribeAppState(handler func(ctx context.Context, state AppState)) (unsubscribe func())
}

// PendingIntentSource answers whether an external-app redirect is waiting
// right now. An empty url with a nil error means nothing is pending.
type PendingIntentSource interface {
	PendingIntentURL(ctx context.Context) (string, error)
}

// EventSource delivers named structured events from the native layer.
type EventSource interface {
	SubscribeEvent(name string, handler func(ctx context.Context, payload map[string]interface{})) (unsubscribe func())
}
