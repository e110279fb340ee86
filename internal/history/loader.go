package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/waconsole/waconsole/internal/platform"
	"go.uber.org/zap"
)

// Fetcher fetches one page of chat history, newest-first. Satisfied by
// *platform.Client.
type Fetcher interface {
	ChatMessages(ctx context.Context, sessionName, chatID string, page, limit int) (*platform.MessagePage, error)
}

// PageHook observes every page that lands, after it has been merged. The
// application uses it to mirror fetched history into the local cache.
type PageHook func(sessionName, chatID string, msgs []platform.Message)

// Loader drives paged history for the open chat. Page 1 is the newest; older
// pages are pulled on demand when the user scrolls toward the top. At most
// one page fetch is in flight at a time, and results that arrive after the
// target chat changed are discarded.
type Loader struct {
	fetcher  Fetcher
	pageSize int
	logger   *zap.Logger
	onPage   PageHook

	mu       sync.Mutex
	session  string
	chatID   string
	gen      int
	page     int
	hasMore  bool
	total    int
	inflight bool
	window   *Window
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithPageHook installs a hook invoked for every fetched page.
func WithPageHook(h PageHook) LoaderOption {
	return func(l *Loader) { l.onPage = h }
}

// NewLoader creates a loader fetching pages of pageSize messages.
func NewLoader(f Fetcher, pageSize int, logger *zap.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	l := &Loader{
		fetcher:  f,
		pageSize: pageSize,
		logger:   logger,
		window:   NewWindow(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadInitial targets a chat and loads its newest page. Any previous window
// is discarded, and results from fetches started before this call are
// invalidated.
func (l *Loader) LoadInitial(ctx context.Context, sessionName, chatID string) error {
	l.mu.Lock()
	l.session = sessionName
	l.chatID = chatID
	l.gen++
	l.page = 0
	l.hasMore = false
	l.total = 0
	l.inflight = false
	l.window = NewWindow()
	gen := l.gen
	l.mu.Unlock()

	page, err := l.fetcher.ChatMessages(ctx, sessionName, chatID, 1, l.pageSize)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	msgs := reversed(page.Messages)

	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		return nil
	}
	l.window.Replace(msgs)
	l.page = 1
	l.hasMore = page.Pagination.HasNextPage
	l.total = page.Pagination.TotalItems
	l.mu.Unlock()

	l.firePageHook(sessionName, chatID, msgs)
	return nil
}

// LoadOlder fetches the next older page and prepends it. Returns false
// without fetching when a fetch is already in flight or no older pages
// remain; the in-flight slot is the only throttle, there is no queue.
func (l *Loader) LoadOlder(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if l.inflight || !l.hasMore || l.page == 0 {
		l.mu.Unlock()
		return false, nil
	}
	l.inflight = true
	gen := l.gen
	session, chatID := l.session, l.chatID
	next := l.page + 1
	l.mu.Unlock()

	page, err := l.fetcher.ChatMessages(ctx, session, chatID, next, l.pageSize)

	l.mu.Lock()
	if l.gen != gen {
		// The chat changed while the fetch was out; the new target owns
		// the inflight slot bookkeeping now.
		l.mu.Unlock()
		return false, nil
	}
	l.inflight = false
	if err != nil {
		l.mu.Unlock()
		return false, fmt.Errorf("load older history: %w", err)
	}
	msgs := reversed(page.Messages)
	l.window.PrependUnique(msgs)
	l.page = next
	l.hasMore = page.Pagination.HasNextPage
	l.total = page.Pagination.TotalItems
	l.mu.Unlock()

	l.firePageHook(session, chatID, msgs)
	return true, nil
}

// RefreshHead re-fetches the newest page and unions it into the window,
// keeping existing rows in place. Used after a send, when the server has
// rows the live stream may not have pushed yet.
func (l *Loader) RefreshHead(ctx context.Context) error {
	l.mu.Lock()
	if l.page == 0 {
		l.mu.Unlock()
		return nil
	}
	gen := l.gen
	session, chatID := l.session, l.chatID
	l.mu.Unlock()

	page, err := l.fetcher.ChatMessages(ctx, session, chatID, 1, l.pageSize)
	if err != nil {
		return fmt.Errorf("refresh history head: %w", err)
	}
	msgs := reversed(page.Messages)

	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		return nil
	}
	for _, m := range msgs {
		l.window.Append(m)
	}
	l.mu.Unlock()

	l.firePageHook(session, chatID, msgs)
	return nil
}

// MergeLive appends a pushed message when it belongs to the open chat and is
// not already present. Returns whether the window changed.
func (l *Loader) MergeLive(msg platform.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.page == 0 || msg.ChatID != l.chatID {
		return false
	}
	return l.window.Append(msg)
}

// ApplyStatus forwards a status update to the window.
func (l *Loader) ApplyStatus(messageID, status string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window.ApplyStatus(messageID, status)
}

// Reset clears the loader so no chat is targeted.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.session = ""
	l.chatID = ""
	l.page = 0
	l.hasMore = false
	l.total = 0
	l.inflight = false
	l.window = NewWindow()
}

// Snapshot returns the window contents, oldest first.
func (l *Loader) Snapshot() []platform.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window.Messages()
}

// Total returns the server-reported total message count for the chat, as of
// the last fetched page.
func (l *Loader) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// HasMore reports whether older pages remain.
func (l *Loader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// Loading reports whether a page fetch is in flight.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}

// ChatID returns the currently targeted chat, empty when none.
func (l *Loader) ChatID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chatID
}

func (l *Loader) firePageHook(sessionName, chatID string, msgs []platform.Message) {
	if l.onPage != nil && len(msgs) > 0 {
		l.onPage(sessionName, chatID, msgs)
	}
}

// reversed returns a copy of msgs in opposite order, turning the server's
// newest-first pages into chronological slices.
func reversed(msgs []platform.Message) []platform.Message {
	out := make([]platform.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
