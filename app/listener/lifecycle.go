package listener

import (
	"context"
	"sync"

	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

// LifecycleMonitor asks for the pending intent once per return to the
// foreground. Some payment apps return through an intent that never raises
// a URL-open event.
type LifecycleMonitor struct {
	states  platform.AppStateSource
	intents platform.PendingIntentSource
	handler *URLHandler

	mu          sync.Mutex
	last        platform.AppState
	unsubscribe func()
}

func NewLifecycleMonitor(states platform.AppStateSource, intents platform.PendingIntentSource, handler *URLHandler) *LifecycleMonitor {
	return &LifecycleMonitor{states: states, intents: intents, handler: handler}
}

func (m *LifecycleMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.last = m.states.CurrentAppState()
	m.unsubscribe = m.states.SubscribeAppState(m.onStateChange)
}

func (m *LifecycleMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *LifecycleMonitor) onStateChange(ctx context.Context, state platform.AppState) {
	m.mu.Lock()
	previous := m.last
	m.last = state
	m.mu.Unlock()

	if previous.IsActive() || !state.IsActive() {
		return
	}
	m.CheckPendingIntent(ctx)
}

// CheckPendingIntent runs the resume check on demand. It reports false when
// nothing was dispatched.
func (m *LifecycleMonitor) CheckPendingIntent(ctx context.Context) (dispatch.Outcome, bool) {
	url, err := m.intents.PendingIntentURL(ctx)
	if err != nil {
		m.handler.logger.WithError(err).Warn("Pending intent lookup failed")
		return "", false
	}
	if url == "" {
		m.handler.logger.Debug("No pending intent on resume")
		return "", false
	}
	return m.handler.Handle(ctx, url, upi.SourceAppResume)
}
