// Package sync mirrors the realtime event stream into the local cache, so
// every view and the scripting CLI can read from SQLite without waiting on
// the network.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/waconsole/waconsole/internal/bus"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/realtime"
	"github.com/waconsole/waconsole/internal/store"
	"go.uber.org/zap"
)

// Bus kinds published after cache writes.
const (
	KindMessageUpserted = "cache.message_upserted"
	KindMessageUpdated  = "cache.message_updated"
	KindSessionUpdated  = "cache.session_updated"
	KindHistoryIngested = "cache.history_ingested"
)

// Engine handles idempotent ingestion of realtime events into the store.
// It subscribes to "realtime." events on the bus and processes them.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to realtime events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("realtime.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case realtime.KindMessage:
		msg, ok := evt.Payload.(platform.Message)
		if !ok {
			return
		}
		if err := e.IngestMessage(msg); err != nil {
			e.logger.Error("failed to ingest message", zap.Error(err), zap.String("msg_id", msg.MessageID))
		}
	case realtime.KindMessageStatus:
		upd, ok := evt.Payload.(realtime.StatusUpdate)
		if !ok {
			return
		}
		changed, err := e.db.UpdateMessageStatus(upd.MessageID, upd.Status)
		if err != nil {
			e.logger.Error("failed to update message status", zap.Error(err), zap.String("msg_id", upd.MessageID))
			return
		}
		// Updates for messages the cache has never seen are dropped.
		if changed {
			e.bus.Publish(bus.Event{
				Kind:      KindMessageUpdated,
				Timestamp: time.Now(),
				Payload:   upd,
			})
		}
	case realtime.KindSessionStatus:
		upd, ok := evt.Payload.(realtime.SessionUpdate)
		if !ok {
			return
		}
		if err := e.IngestSessionStatus(upd); err != nil {
			e.logger.Error("failed to ingest session status", zap.Error(err), zap.String("session", upd.SessionName))
		}
	case realtime.KindHistoryPage:
		page, ok := evt.Payload.(realtime.HistoryPage)
		if !ok {
			return
		}
		if err := e.IngestHistoryPage(page); err != nil {
			e.logger.Error("failed to ingest history page", zap.Error(err), zap.Int("count", len(page.Messages)))
		}
	}
}

// IngestMessage processes a single message into the store (idempotent).
func (e *Engine) IngestMessage(msg platform.Message) error {
	if err := e.db.UpsertChat(&store.Chat{
		SessionName:        msg.SessionName,
		ChatID:             msg.ChatID,
		LastMessageAt:      int64(msg.Timestamp),
		LastMessagePreview: truncate(msg.Body, 100),
	}); err != nil {
		return fmt.Errorf("upsert chat: %w", err)
	}

	sm := toStoreMessage(msg)
	if err := e.db.UpsertMessage(&sm); err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}

	e.bus.Publish(bus.Event{
		Kind:      KindMessageUpserted,
		Timestamp: time.Now(),
		Payload: map[string]string{
			"session": msg.SessionName,
			"chat_id": msg.ChatID,
			"msg_id":  msg.MessageID,
		},
	})

	return nil
}

// IngestSessionStatus mirrors a session status push into the store.
func (e *Engine) IngestSessionStatus(upd realtime.SessionUpdate) error {
	s := store.Session{
		SessionName: upd.SessionName,
		Status:      upd.Status,
	}
	if upd.Status == platform.SessionReady || upd.Status == platform.SessionAuthed {
		s.LastConnected = time.Now().UnixMilli()
	}
	if err := e.db.UpsertSession(&s); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	e.bus.Publish(bus.Event{
		Kind:      KindSessionUpdated,
		Timestamp: time.Now(),
		Payload:   upd,
	})
	return nil
}

// IngestHistoryPage processes a fetched page of chat history in one
// transaction.
func (e *Engine) IngestHistoryPage(page realtime.HistoryPage) error {
	if len(page.Messages) == 0 {
		return nil
	}

	msgs := make([]store.Message, 0, len(page.Messages))
	var newest platform.Message
	for _, m := range page.Messages {
		// Paged rows may omit the routing fields the page itself carries.
		if m.SessionName == "" {
			m.SessionName = page.SessionName
		}
		if m.ChatID == "" {
			m.ChatID = page.ChatID
		}
		msgs = append(msgs, toStoreMessage(m))
		if m.Timestamp >= newest.Timestamp {
			newest = m
		}
	}

	if err := e.db.UpsertMessages(msgs); err != nil {
		return fmt.Errorf("upsert history page: %w", err)
	}
	if err := e.db.UpsertChat(&store.Chat{
		SessionName:        page.SessionName,
		ChatID:             page.ChatID,
		LastMessageAt:      int64(newest.Timestamp),
		LastMessagePreview: truncate(newest.Body, 100),
	}); err != nil {
		return fmt.Errorf("upsert chat: %w", err)
	}

	e.bus.Publish(bus.Event{
		Kind:      KindHistoryIngested,
		Timestamp: time.Now(),
		Payload: map[string]int{
			"messages_count": len(msgs),
		},
	})
	return nil
}

func toStoreMessage(m platform.Message) store.Message {
	return store.Message{
		SessionName: m.SessionName,
		ChatID:      m.ChatID,
		MsgID:       m.MessageID,
		SenderName:  m.SenderName,
		Body:        m.Body,
		MessageType: m.MessageType,
		FromMe:      m.FromMe,
		Status:      m.Status,
		MediaURL:    m.MediaURL,
		Timestamp:   int64(m.Timestamp),
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
