package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPendingIntentIsTaken(t *testing.T) {
	bus := NewBus("")
	bus.SetPendingIntent(" upi://pay?Status=SUCCESS ")

	first, err := bus.PendingIntentURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "upi://pay?Status=SUCCESS", first)

	second, _ := bus.PendingIntentURL(context.Background())
	assert.Empty(t, second)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus("")
	calls := 0
	unsubscribe := bus.SubscribeURL(func(context.Context, string) { calls++ })

	bus.OpenURL(context.Background(), "upi://pay")
	unsubscribe()
	bus.OpenURL(context.Background(), "upi://pay")

	assert.Equal(t, 1, calls)
}

func TestBusAppStateHandlersSeePreviousState(t *testing.T) {
	bus := NewBus("")
	bus.SetAppState(context.Background(), AppStateBackground)

	var seenPrevious AppState
	bus.SubscribeAppState(func(_ context.Context, _ AppState) {
		seenPrevious = bus.CurrentAppState()
	})
	bus.SetAppState(context.Background(), AppStateActive)

	assert.Equal(t, AppStateBackground, seenPrevious)
	assert.Equal(t, AppStateActive, bus.CurrentAppState())
}

func TestBusEmitRoutesByName(t *testing.T) {
	bus := NewBus("")
	var got map[string]interface{}
	bus.SubscribeEvent("UPIPaymentResponse", func(_ context.Context, payload map[string]interface{}) { got = payload })

	assert.Equal(t, 0, bus.Emit(context.Background(), "Other", map[string]interface{}{"status": "success"}))
	assert.Equal(t, 1, bus.Emit(context.Background(), "UPIPaymentResponse", map[string]interface{}{"status": "success"}))
	assert.Equal(t, "success", got["status"])
}

func TestParseAppState(t *testing.T) {
	s, ok := ParseAppState(" Background ")
	assert.True(t, ok)
	assert.Equal(t, AppStateBackground, s)

	_, ok = ParseAppState("suspended")
	assert.False(t, ok)
}
