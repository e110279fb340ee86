package model

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/waconsole/waconsole/internal/history"
	"github.com/waconsole/waconsole/internal/outbox"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/store"
)

// ViewModel holds the console's display state. Reads prefer the platform
// API and fall back to the local cache when it is unreachable; everything
// fetched is mirrored into the cache on the way through.
type ViewModel struct {
	mu sync.RWMutex

	api    *platform.Client
	db     *store.DB
	loader *history.Loader
	sender *outbox.Sender

	Sessions      []store.Session
	Chats         []store.Chat
	Stats         *platform.Stats
	ActiveSession string
	ActiveChat    string
	ActiveName    string
	Flash         Flash
}

// NewViewModel creates a view model.
func NewViewModel(api *platform.Client, db *store.DB, loader *history.Loader, sender *outbox.Sender) *ViewModel {
	return &ViewModel{
		api:    api,
		db:     db,
		loader: loader,
		sender: sender,
	}
}

// RefreshSessions reloads the session list from the platform, mirroring it
// into the cache. Offline, the cached list is served instead.
func (vm *ViewModel) RefreshSessions(ctx context.Context) error {
	sessions, err := vm.api.ListSessions(ctx)
	if err == nil {
		for _, s := range sessions {
			_ = vm.db.UpsertSession(&store.Session{
				SessionName:   s.SessionName,
				AgentName:     s.AgentName,
				Status:        s.Status,
				LastConnected: int64(s.LastConnected),
				TotalMessages: s.TotalMessages,
				TotalChats:    s.TotalChats,
			})
		}
	}

	cached, dbErr := vm.db.ListSessions()
	if dbErr != nil {
		return dbErr
	}
	vm.mu.Lock()
	vm.Sessions = cached
	vm.mu.Unlock()
	return err
}

// RefreshChats reloads a session's chat list, mirroring it into the cache.
func (vm *ViewModel) RefreshChats(ctx context.Context, sessionName string) error {
	chats, err := vm.api.ListChats(ctx, sessionName)
	if err == nil {
		for _, c := range chats {
			_ = vm.db.UpsertChat(&store.Chat{
				SessionName:        sessionName,
				ChatID:             c.ChatID,
				Name:               c.Name,
				IsGroup:            c.IsGroup(),
				UnreadCount:        c.UnreadCount,
				LastMessageAt:      int64(c.LastMessageTime),
				LastMessagePreview: c.LastMessageText,
			})
		}
	}

	cached, dbErr := vm.db.ListChats(sessionName, 200, 0)
	if dbErr != nil {
		return dbErr
	}
	vm.mu.Lock()
	vm.ActiveSession = sessionName
	vm.Chats = cached
	vm.mu.Unlock()
	return err
}

// RefreshStats reloads the aggregate realtime counters.
func (vm *ViewModel) RefreshStats(ctx context.Context) error {
	stats, err := vm.api.RealtimeStats(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Stats = stats
	vm.mu.Unlock()
	return nil
}

// OpenChat targets a chat and loads its newest history page.
func (vm *ViewModel) OpenChat(ctx context.Context, sessionName, chatID, name string) error {
	if err := vm.loader.LoadInitial(ctx, sessionName, chatID); err != nil {
		return err
	}
	vm.mu.Lock()
	vm.ActiveChat = chatID
	vm.ActiveName = name
	vm.mu.Unlock()
	return nil
}

// CloseChat clears the open chat.
func (vm *ViewModel) CloseChat() {
	vm.loader.Reset()
	vm.mu.Lock()
	vm.ActiveChat = ""
	vm.ActiveName = ""
	vm.mu.Unlock()
}

// Messages returns the open chat's window, oldest first.
func (vm *ViewModel) Messages() []platform.Message {
	return vm.loader.Snapshot()
}

// LoadOlder extends the open window with the next older page. Returns false
// without fetching when a fetch is already in flight or history is exhausted.
func (vm *ViewModel) LoadOlder(ctx context.Context) (bool, error) {
	return vm.loader.LoadOlder(ctx)
}

// RefreshHead re-fetches the newest page and unions it into the window.
func (vm *ViewModel) RefreshHead(ctx context.Context) error {
	return vm.loader.RefreshHead(ctx)
}

// MergeLive appends a pushed message to the open window when it targets the
// open chat and is not already present.
func (vm *ViewModel) MergeLive(msg platform.Message) bool {
	return vm.loader.MergeLive(msg)
}

// ApplyStatus advances a message's delivery status in the open window.
func (vm *ViewModel) ApplyStatus(messageID, status string) bool {
	return vm.loader.ApplyStatus(messageID, status)
}

// Send queues text for the open chat and refreshes the window head once the
// outbox reports delivery (via the bus, handled by the app shell).
func (vm *ViewModel) Send(text string) error {
	vm.mu.RLock()
	session, chatID := vm.ActiveSession, vm.ActiveChat
	vm.mu.RUnlock()

	// Chat ids carry the recipient number up front: 5511999@c.us.
	phone, _, _ := strings.Cut(chatID, "@")
	if _, err := vm.sender.Queue(session, chatID, phone, text); err != nil {
		return err
	}
	vm.Flash.Set("Message queued", 3*time.Second)
	return nil
}

// Search runs a full-text search over the cached messages of the active
// session.
func (vm *ViewModel) Search(query string) ([]store.SearchResult, error) {
	vm.mu.RLock()
	session := vm.ActiveSession
	vm.mu.RUnlock()
	return vm.db.SearchMessages(query, session, "", 50)
}

// RefreshSessionsCached reloads the session list from the cache only. Used
// when a bus event says the cache moved; no network round-trip.
func (vm *ViewModel) RefreshSessionsCached() error {
	cached, err := vm.db.ListSessions()
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Sessions = cached
	vm.mu.Unlock()
	return nil
}

// RefreshChatsCached reloads the active session's chat list from the cache.
func (vm *ViewModel) RefreshChatsCached() error {
	vm.mu.RLock()
	session := vm.ActiveSession
	vm.mu.RUnlock()
	if session == "" {
		return nil
	}
	cached, err := vm.db.ListChats(session, 200, 0)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Chats = cached
	vm.mu.Unlock()
	return nil
}

// GetSessions returns a snapshot of the session list.
func (vm *ViewModel) GetSessions() []store.Session {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Sessions
}

// GetChats returns a snapshot of the chat list.
func (vm *ViewModel) GetChats() []store.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Chats
}

// GetStats returns a snapshot of the realtime counters.
func (vm *ViewModel) GetStats() *platform.Stats {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Stats
}

// Active returns the active session, chat id and chat display name.
func (vm *ViewModel) Active() (sessionName, chatID, name string) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.ActiveSession, vm.ActiveChat, vm.ActiveName
}
