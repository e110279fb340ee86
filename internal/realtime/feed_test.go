package realtime

import (
	"fmt"
	"testing"

	"github.com/waconsole/waconsole/internal/platform"
)

func TestFeedDeduplicates(t *testing.T) {
	f := NewLiveFeed(100)

	if !f.Add(platform.Message{MessageID: "m1", Body: "first"}) {
		t.Error("first add returned false")
	}
	if f.Add(platform.Message{MessageID: "m1", Body: "duplicate"}) {
		t.Error("duplicate add returned true")
	}

	msgs := f.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Body != "first" {
		t.Errorf("duplicate overwrote original: %q", msgs[0].Body)
	}
	if f.Unread() != 1 {
		t.Errorf("unread = %d, want 1", f.Unread())
	}
}

func TestFeedEvictsOldestAtCap(t *testing.T) {
	f := NewLiveFeed(3)
	for i := 1; i <= 5; i++ {
		f.Add(platform.Message{MessageID: fmt.Sprintf("m%d", i)})
	}

	msgs := f.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"m3", "m4", "m5"} {
		if msgs[i].MessageID != want {
			t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].MessageID, want)
		}
	}

	// Evicted ids are forgotten, so they can re-enter as new.
	if !f.Add(platform.Message{MessageID: "m1"}) {
		t.Error("evicted id treated as duplicate")
	}
}

func TestFeedStatusUpdateAfterEviction(t *testing.T) {
	f := NewLiveFeed(2)
	for i := 1; i <= 3; i++ {
		f.Add(platform.Message{MessageID: fmt.Sprintf("m%d", i), Status: "sent"})
	}

	// m1 was evicted; index bookkeeping must still point updates at the
	// right survivors.
	if f.ApplyStatus("m1", "read") {
		t.Error("update for evicted id applied")
	}
	if !f.ApplyStatus("m2", "read") {
		t.Error("update for retained id dropped")
	}
	msgs := f.Messages()
	if msgs[0].MessageID != "m2" || msgs[0].Status != "read" {
		t.Errorf("msgs[0] = %+v, want m2/read", msgs[0])
	}
	if msgs[1].Status != "sent" {
		t.Errorf("update leaked onto m3: %+v", msgs[1])
	}
}

func TestFeedStatusMonotonic(t *testing.T) {
	f := NewLiveFeed(10)
	f.Add(platform.Message{MessageID: "m1", Status: "read"})

	if f.ApplyStatus("m1", "delivered") {
		t.Error("regression from read to delivered applied")
	}
	if got := f.Messages()[0].Status; got != "read" {
		t.Errorf("status = %q, want read", got)
	}

	if !f.ApplyStatus("m1", "played") {
		t.Error("advance from read to played dropped")
	}
}

func TestFeedStatusUnknownID(t *testing.T) {
	f := NewLiveFeed(10)
	if f.ApplyStatus("ghost", "read") {
		t.Error("update for unknown id applied")
	}
}

func TestFeedUnreadCounter(t *testing.T) {
	f := NewLiveFeed(10)
	f.Add(platform.Message{MessageID: "m1"})
	f.Add(platform.Message{MessageID: "m2"})
	f.Add(platform.Message{MessageID: "m1"}) // duplicate, no increment

	if got := f.Unread(); got != 2 {
		t.Errorf("unread = %d, want 2", got)
	}
	f.ClearUnread()
	if got := f.Unread(); got != 0 {
		t.Errorf("unread after clear = %d, want 0", got)
	}

	// Clearing does not forget messages.
	if len(f.Messages()) != 2 {
		t.Errorf("messages dropped by ClearUnread")
	}
}
