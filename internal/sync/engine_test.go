package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/waconsole/waconsole/internal/bus"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/realtime"
	"github.com/waconsole/waconsole/internal/store"
	"go.uber.org/zap"
)

func testEngine(t *testing.T) (*Engine, *store.DB, *bus.Bus) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New()
	e := NewEngine(db, b, zap.NewNop())
	return e, db, b
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestEngineIngestsPushedMessage(t *testing.T) {
	e, db, b := testEngine(t)
	e.Start(context.Background())
	defer e.Stop()

	b.Publish(bus.Event{
		Kind: realtime.KindMessage,
		Payload: platform.Message{
			MessageID:   "m1",
			SessionName: "work",
			ChatID:      "c1@g.us",
			Body:        "hello",
			Timestamp:   platform.UnixMS(1000),
		},
	})

	waitFor(t, func() bool {
		msgs, _ := db.ListMessages("work", "c1@g.us", 0, 10)
		return len(msgs) == 1
	}, "message never reached the cache")

	chats, err := db.ListChats("work", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 {
		t.Fatalf("got %d chats, want 1", len(chats))
	}
	if chats[0].LastMessagePreview != "hello" {
		t.Errorf("preview = %q, want hello", chats[0].LastMessagePreview)
	}
}

func TestEngineStatusUpdate(t *testing.T) {
	e, db, b := testEngine(t)
	if err := db.UpsertMessage(&store.Message{SessionName: "work", ChatID: "c1", MsgID: "m1", Status: "sent", Timestamp: 1000}); err != nil {
		t.Fatal(err)
	}

	updated, unsub := b.Subscribe(KindMessageUpdated, 10)
	defer unsub()

	e.Start(context.Background())
	defer e.Stop()

	b.Publish(bus.Event{
		Kind:    realtime.KindMessageStatus,
		Payload: realtime.StatusUpdate{MessageID: "m1", Status: "read"},
	})

	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("no cache.message_updated event")
	}

	msgs, err := db.ListMessages("work", "c1", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].Status != "read" {
		t.Errorf("status = %q, want read", msgs[0].Status)
	}
}

func TestEngineDropsStatusForUnknownMessage(t *testing.T) {
	e, _, b := testEngine(t)

	updated, unsub := b.Subscribe(KindMessageUpdated, 10)
	defer unsub()

	e.Start(context.Background())
	defer e.Stop()

	b.Publish(bus.Event{
		Kind:    realtime.KindMessageStatus,
		Payload: realtime.StatusUpdate{MessageID: "ghost", Status: "read"},
	})

	select {
	case evt := <-updated:
		t.Errorf("unexpected event for unknown message: %v", evt)
	case <-time.After(100 * time.Millisecond):
		// Expected: silently dropped.
	}
}

func TestEngineIngestsSessionStatus(t *testing.T) {
	e, db, b := testEngine(t)
	e.Start(context.Background())
	defer e.Stop()

	b.Publish(bus.Event{
		Kind:    realtime.KindSessionStatus,
		Payload: realtime.SessionUpdate{SessionName: "work", Status: platform.SessionReady},
	})

	waitFor(t, func() bool {
		s, _ := db.GetSession("work")
		return s != nil && s.Status == platform.SessionReady
	}, "session status never reached the cache")

	s, err := db.GetSession("work")
	if err != nil {
		t.Fatal(err)
	}
	if s.LastConnected == 0 {
		t.Error("ready status did not stamp last_connected")
	}
}

func TestEngineIngestsHistoryPage(t *testing.T) {
	e, db, b := testEngine(t)
	e.Start(context.Background())
	defer e.Stop()

	page := realtime.HistoryPage{
		SessionName: "work",
		ChatID:      "c1",
		Messages: []platform.Message{
			{MessageID: "m1", Body: "first", Timestamp: platform.UnixMS(1000)},
			{MessageID: "m2", Body: "second", Timestamp: platform.UnixMS(2000)},
		},
	}
	b.Publish(bus.Event{Kind: realtime.KindHistoryPage, Payload: page})
	// Re-delivery of the same page is idempotent.
	b.Publish(bus.Event{Kind: realtime.KindHistoryPage, Payload: page})

	waitFor(t, func() bool {
		msgs, _ := db.ListMessages("work", "c1", 0, 10)
		return len(msgs) == 2
	}, "history page never reached the cache")

	time.Sleep(50 * time.Millisecond)
	msgs, err := db.ListMessages("work", "c1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Errorf("got %d messages after re-delivery, want 2", len(msgs))
	}

	chats, err := db.ListChats("work", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 || chats[0].LastMessagePreview != "second" {
		t.Errorf("chat preview = %v, want second", chats)
	}
}
