package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/waconsole/waconsole/internal/platform"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int]platform.MessagePage
	calls []int
	gate  chan struct{} // if non-nil, each fetch blocks until it is closed
}

func (f *fakeFetcher) ChatMessages(ctx context.Context, sessionName, chatID string, page, limit int) (*platform.MessagePage, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)
	result := f.pages[page]
	return &result, nil
}

func (f *fakeFetcher) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// newestFirst builds a server page: ids in newest-first order, as returned
// by the API.
func newestFirst(hasNext bool, msgIDs ...string) platform.MessagePage {
	msgs := make([]platform.Message, len(msgIDs))
	for i, id := range msgIDs {
		msgs[i] = platform.Message{MessageID: id, ChatID: "c1"}
	}
	return platform.MessagePage{
		Messages:   msgs,
		Pagination: platform.Pagination{HasNextPage: hasNext, TotalItems: 5},
	}
}

func TestLoadInitialReversesNewestFirst(t *testing.T) {
	f := &fakeFetcher{pages: map[int]platform.MessagePage{
		1: newestFirst(true, "m5", "m4", "m3"),
	}}
	l := NewLoader(f, 50, nil)

	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, l.Snapshot(), "m3", "m4", "m5")
	if !l.HasMore() {
		t.Error("HasMore = false, want true")
	}
	if l.Total() != 5 {
		t.Errorf("Total = %d, want 5", l.Total())
	}
}

func TestLoadOlderPrependsReversedPage(t *testing.T) {
	f := &fakeFetcher{pages: map[int]platform.MessagePage{
		1: newestFirst(true, "m5", "m4", "m3"),
		2: newestFirst(false, "m2", "m1"),
	}}
	l := NewLoader(f, 50, nil)
	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}

	ok, err := l.LoadOlder(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("LoadOlder returned false")
	}
	assertIDs(t, l.Snapshot(), "m1", "m2", "m3", "m4", "m5")
	if l.HasMore() {
		t.Error("HasMore = true after last page")
	}

	// No more pages: no fetch happens.
	ok, err = l.LoadOlder(context.Background())
	if err != nil || ok {
		t.Errorf("LoadOlder past the end = (%v, %v), want (false, nil)", ok, err)
	}
	if got := f.callCount(); got != 2 {
		t.Errorf("fetches = %d, want 2", got)
	}
}

func TestLoadOlderSingleFlight(t *testing.T) {
	f := &fakeFetcher{
		pages: map[int]platform.MessagePage{
			1: newestFirst(true, "m3"),
			2: newestFirst(false, "m2", "m1"),
		},
	}
	l := NewLoader(f, 50, nil)
	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	f.setGate(gate)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if ok, err := l.LoadOlder(context.Background()); !ok || err != nil {
			t.Errorf("first LoadOlder = (%v, %v), want (true, nil)", ok, err)
		}
	}()

	// Let the first call claim the slot, then pile on.
	deadline := time.Now().Add(time.Second)
	for !l.Loading() {
		if time.Now().After(deadline) {
			t.Fatal("first LoadOlder never started")
		}
		time.Sleep(time.Millisecond)
	}
	if ok, err := l.LoadOlder(context.Background()); ok || err != nil {
		t.Errorf("second LoadOlder = (%v, %v), want (false, nil)", ok, err)
	}

	close(gate)
	<-done
	assertIDs(t, l.Snapshot(), "m1", "m2", "m3")
	if got := f.callCount(); got != 2 {
		t.Errorf("fetches = %d, want 2 (initial + one older page)", got)
	}
}

func TestStaleResultDiscardedAfterChatSwitch(t *testing.T) {
	f := &fakeFetcher{pages: map[int]platform.MessagePage{
		1: newestFirst(true, "m3"),
		2: newestFirst(false, "old2", "old1"),
	}}
	l := NewLoader(f, 50, nil)
	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	f.setGate(gate)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Result lands after the chat changed and must not merge.
		if ok, err := l.LoadOlder(context.Background()); ok || err != nil {
			t.Errorf("stale LoadOlder = (%v, %v), want (false, nil)", ok, err)
		}
	}()

	deadline := time.Now().Add(time.Second)
	for !l.Loading() {
		if time.Now().After(deadline) {
			t.Fatal("LoadOlder never started")
		}
		time.Sleep(time.Millisecond)
	}

	f.setGate(nil)
	f.mu.Lock()
	f.pages[1] = newestFirst(false, "n1")
	f.mu.Unlock()
	if err := l.LoadInitial(context.Background(), "work", "c2"); err != nil {
		t.Fatal(err)
	}
	close(gate)
	<-done

	assertIDs(t, l.Snapshot(), "n1")
}

func TestMergeLive(t *testing.T) {
	f := &fakeFetcher{pages: map[int]platform.MessagePage{
		1: newestFirst(false, "m2", "m1"),
	}}
	l := NewLoader(f, 50, nil)

	// No chat open yet.
	if l.MergeLive(platform.Message{MessageID: "m9", ChatID: "c1"}) {
		t.Error("merge into untargeted loader succeeded")
	}

	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}

	if !l.MergeLive(platform.Message{MessageID: "m3", ChatID: "c1"}) {
		t.Error("merge of new message failed")
	}
	if l.MergeLive(platform.Message{MessageID: "m3", ChatID: "c1"}) {
		t.Error("merge of duplicate succeeded")
	}
	if l.MergeLive(platform.Message{MessageID: "m4", ChatID: "other"}) {
		t.Error("merge for another chat succeeded")
	}
	assertIDs(t, l.Snapshot(), "m1", "m2", "m3")
}

func TestRefreshHeadUnions(t *testing.T) {
	f := &fakeFetcher{pages: map[int]platform.MessagePage{
		1: newestFirst(false, "m2", "m1"),
	}}
	l := NewLoader(f, 50, nil)
	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}

	// The server head gained m3; m1 fell off the page. Union keeps both.
	f.pages[1] = newestFirst(false, "m3", "m2")
	if err := l.RefreshHead(context.Background()); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, l.Snapshot(), "m1", "m2", "m3")
}

func TestLoaderApplyStatus(t *testing.T) {
	f := &fakeFetcher{pages: map[int]platform.MessagePage{
		1: newestFirst(false, "m1"),
	}}
	l := NewLoader(f, 50, nil)
	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}

	if !l.ApplyStatus("m1", platform.StatusDelivered) {
		t.Error("status advance dropped")
	}
	if l.ApplyStatus("m1", platform.StatusSent) {
		t.Error("status regression applied")
	}
	if got := l.Snapshot()[0].Status; got != platform.StatusDelivered {
		t.Errorf("status = %q, want delivered", got)
	}
}

func TestLoaderPageHook(t *testing.T) {
	f := &fakeFetcher{pages: map[int]platform.MessagePage{
		1: newestFirst(true, "m2"),
		2: newestFirst(false, "m1"),
	}}
	var mu sync.Mutex
	var seen []string
	l := NewLoader(f, 50, nil, WithPageHook(func(session, chat string, msgs []platform.Message) {
		mu.Lock()
		defer mu.Unlock()
		if session != "work" || chat != "c1" {
			t.Errorf("hook got %s/%s", session, chat)
		}
		seen = append(seen, ids(msgs)...)
	}))

	if err := l.LoadInitial(context.Background(), "work", "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.LoadOlder(context.Background()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "m2" || seen[1] != "m1" {
		t.Errorf("hook saw %v, want [m2 m1]", seen)
	}
}
