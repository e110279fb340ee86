// Package outbox queues outgoing messages locally and drains them to the
// platform, so a send survives the process between keypress and REST ack.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/waconsole/waconsole/internal/bus"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/store"
	"go.uber.org/zap"
)

// Bus kinds published as entries move through the outbox.
const (
	KindQueued = "outbox.queued"
	KindSent   = "outbox.sent"
	KindFailed = "outbox.failed"
)

// TextSender is the interface for sending text messages through the
// platform. Satisfied by *platform.Client.
type TextSender interface {
	SendMessage(ctx context.Context, sessionName, phoneNumber, text string) (string, error)
}

// Sender drains the outbox and sends messages via the platform API.
type Sender struct {
	db     *store.DB
	sender TextSender
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewSender creates a new outbox sender.
func NewSender(db *store.DB, sender TextSender, b *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		db:     db,
		sender: sender,
		bus:    b,
		logger: logger,
	}
}

// Queue stores an outgoing message for delivery and returns its client id.
func (s *Sender) Queue(sessionName, chatID, phoneNumber, body string) (string, error) {
	clientMsgID := uuid.NewString()
	if err := s.db.QueueOutbox(&store.OutboxEntry{
		ClientMsgID: clientMsgID,
		SessionName: sessionName,
		ChatID:      chatID,
		PhoneNumber: phoneNumber,
		Body:        body,
	}); err != nil {
		return "", err
	}
	s.bus.Publish(bus.Event{
		Kind:      KindQueued,
		Timestamp: time.Now(),
		Payload:   map[string]string{"client_msg_id": clientMsgID, "chat_id": chatID},
	})
	return clientMsgID, nil
}

// Start begins polling the outbox for pending messages.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			continue
		}

		// Optimistic insert: show the message in the UI immediately.
		now := time.Now().UnixMilli()
		_ = s.db.UpsertMessage(&store.Message{
			SessionName: entry.SessionName,
			ChatID:      entry.ChatID,
			MsgID:       entry.ClientMsgID,
			Body:        entry.Body,
			MessageType: "text",
			FromMe:      true,
			Status:      platform.StatusPending,
			Timestamp:   now,
		})

		serverMsgID, err := s.sender.SendMessage(ctx, entry.SessionName, entry.PhoneNumber, entry.Body)
		if err != nil {
			s.logger.Error("failed to send message", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
			_ = s.db.UpsertMessage(&store.Message{
				SessionName: entry.SessionName, ChatID: entry.ChatID,
				MsgID: entry.ClientMsgID, Body: entry.Body,
				MessageType: "text", FromMe: true,
				Status: "failed", Timestamp: now,
			})
			s.bus.Publish(bus.Event{
				Kind:      KindFailed,
				Timestamp: time.Now(),
				Payload: map[string]string{
					"client_msg_id": entry.ClientMsgID,
					"chat_id":       entry.ChatID,
					"error":         err.Error(),
				},
			})
			continue
		}

		if err := s.db.MarkOutboxSent(entry.ClientMsgID, serverMsgID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
		}
		_ = s.db.UpsertMessage(&store.Message{
			SessionName: entry.SessionName, ChatID: entry.ChatID,
			MsgID: entry.ClientMsgID, Body: entry.Body,
			MessageType: "text", FromMe: true,
			Status: platform.StatusSent, Timestamp: now,
		})

		s.logger.Info("message sent", zap.String("client_msg_id", entry.ClientMsgID), zap.String("server_msg_id", serverMsgID))
		s.bus.Publish(bus.Event{
			Kind:      KindSent,
			Timestamp: time.Now(),
			Payload: map[string]string{
				"client_msg_id": entry.ClientMsgID,
				"server_msg_id": serverMsgID,
				"chat_id":       entry.ChatID,
			},
		})
	}
}
