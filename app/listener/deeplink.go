package listener

import (
	"context"
	"sync"

	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

// DeepLinkListener handles the launch URL and every later URL-open event.
type DeepLinkListener struct {
	source  platform.URLSource
	handler *URLHandler

	mu          sync.Mutex
	unsubscribe func()
}

func NewDeepLinkListener(source platform.URLSource, handler *URLHandler) *DeepLinkListener {
	return &DeepLinkListener{source: source, handler: handler}
}

// Start checks the initial URL, for an app launched by the payment app's
// redirect, then subscribes to URL-open events. Calling it twice is a no-op.
func (l *DeepLinkListener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unsubscribe != nil {
		return nil
	}

	initialURL, err := l.source.InitialURL(ctx)
	if err != nil {
		l.handler.logger.WithError(err).Warn("Initial URL lookup failed")
	} else if initialURL != "" {
		l.handler.Handle(ctx, initialURL, upi.SourceDeepLink)
	}

	l.unsubscribe = l.source.SubscribeURL(func(ctx context.Context, url string) {
		l.handler.Handle(ctx, url, upi.SourceDeepLink)
	})
	return nil
}

func (l *DeepLinkListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
}
