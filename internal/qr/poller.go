// Package qr polls the platform for a session's pairing code while the
// pairing screen is open. Pushed qr-code events cover the common path; the
// poller covers sessions whose codes rotate while the event stream is down.
package qr

import (
	"context"
	"sync"
	"time"

	"github.com/waconsole/waconsole/internal/bus"
	"github.com/waconsole/waconsole/internal/platform"
	"go.uber.org/zap"
)

// KindUpdated is published whenever a fresh code lands. Each event replaces
// the previous code wholesale.
const KindUpdated = "qr.updated"

// Fetcher fetches the current pairing code for a session. Satisfied by
// *platform.Client.
type Fetcher interface {
	SessionQR(ctx context.Context, sessionName string) (*platform.QRCode, error)
}

// Poller re-fetches a session's pairing code on an interval.
type Poller struct {
	fetcher  Fetcher
	bus      *bus.Bus
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPoller creates a poller fetching every interval.
func NewPoller(f Fetcher, b *bus.Bus, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		fetcher:  f,
		bus:      b,
		interval: interval,
		logger:   logger,
	}
}

// Watch starts polling for sessionName, replacing any previous watch. The
// first fetch happens immediately.
func (p *Poller) Watch(ctx context.Context, sessionName string) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(ctx, sessionName)
}

// Stop stops the current watch, if any.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) loop(ctx context.Context, sessionName string) {
	p.fetch(ctx, sessionName)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.fetch(ctx, sessionName)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) fetch(ctx context.Context, sessionName string) {
	code, err := p.fetcher.SessionQR(ctx, sessionName)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("qr fetch failed", zap.String("session", sessionName), zap.Error(err))
		}
		return
	}
	if code == nil || (code.QR == "" && code.QRString == "") {
		// Session already paired, nothing to show.
		return
	}
	p.bus.Publish(bus.Event{
		Kind:      KindUpdated,
		Timestamp: time.Now(),
		Payload:   *code,
	})
}
