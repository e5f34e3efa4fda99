package platform

import (
	"context"
	"strings"
	"sync"
)

// Bus is the in-process platform the transports feed. It fans signals out
// to subscribers synchronously, on the caller's goroutine.
type Bus struct {
	mu sync.Mutex

	initialURL    string
	pendingIntent string
	appState      AppState

	nextID        uint64
	urlHandlers   map[uint64]func(ctx context.Context, url string)
	stateHandlers map[uint64]func(ctx context.Context, state AppState)
	eventHandlers map[string]map[uint64]func(ctx context.Context, payload map[string]interface{})
}

func NewBus(initialURL string) *Bus {
	return &Bus{
		initialURL:    strings.TrimSpace(initialURL),
		appState:      AppStateActive,
		urlHandlers:   map[uint64]func(ctx context.Context, url string){},
		stateHandlers: map[uint64]func(ctx context.Context, state AppState){},
		eventHandlers: map[string]map[uint64]func(ctx context.Context, payload map[string]interface{}){},
	}
}

func (b *Bus) InitialURL(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialURL, nil
}

func (b *Bus) SubscribeURL(handler func(ctx context.Context, url string)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	b.urlHandlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.urlHandlers, id)
	}
}

func (b *Bus) CurrentAppState() AppState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appState
}

func (b *Bus) SubscribeAppState(handler func(ctx context.Context, state AppState)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	b.stateHandlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.stateHandlers, id)
	}
}

// PendingIntentURL takes the pending redirect: once read, it is cleared so
// the same redirect is not handled on every resume.
func (b *Bus) PendingIntentURL(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	url := b.pendingIntent
	b.pendingIntent = ""
	return url, nil
}

func (b *Bus) SubscribeEvent(name string, handler func(ctx context.Context, payload map[string]interface{})) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	if b.eventHandlers[name] == nil {
		b.eventHandlers[name] = map[uint64]func(ctx context.Context, payload map[string]interface{}){}
	}
	b.eventHandlers[name][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.eventHandlers[name], id)
	}
}

// OpenURL publishes a URL-open notification.
func (b *Bus) OpenURL(ctx context.Context, url string) {
	b.mu.Lock()
	handlers := make([]func(ctx context.Context, url string), 0, len(b.urlHandlers))
	for _, h := range b.urlHandlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, url)
	}
}

// SetAppState records the new state and notifies subscribers. Subscribers
// see the transition before the bus state moves, so CurrentAppState still
// reports the previous state while they run.
func (b *Bus) SetAppState(ctx context.Context, state AppState) {
	b.mu.Lock()
	handlers := make([]func(ctx context.Context, state AppState), 0, len(b.stateHandlers))
	for _, h := range b.stateHandlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, state)
	}

	b.mu.Lock()
	b.appState = state
	b.mu.Unlock()
}

// SetPendingIntent stores the redirect the OS handed to the app without
// raising a URL-open notification.
func (b *Bus) SetPendingIntent(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingIntent = strings.TrimSpace(url)
}

func (b *Bus) Emit(ctx context.Context, name string, payload map[string]interface{}) int {
	b.mu.Lock()
	handlers := make([]func(ctx context.Context, payload map[string]interface{}), 0, len(b.eventHandlers[name]))
	for _, h := range b.eventHandlers[name] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, payload)
	}
	return len(handlers)
}

func (b *Bus) allocID() uint64 {
	b.nextID++
	return b.nextID
}
