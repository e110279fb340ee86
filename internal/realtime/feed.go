package realtime

import (
	"sync"

	"github.com/waconsole/waconsole/internal/platform"
)

// LiveFeed retains the most recent pushed messages for the notification bar
// and the home screen: de-duplicated by messageId, capped, oldest evicted
// first. It also tracks an unread counter that the UI clears explicitly.
type LiveFeed struct {
	mu     sync.Mutex
	cap    int
	msgs   []platform.Message
	seen   map[string]int
	unread int
}

// NewLiveFeed creates a feed retaining at most cap messages.
func NewLiveFeed(cap int) *LiveFeed {
	if cap <= 0 {
		cap = 100
	}
	return &LiveFeed{
		cap:  cap,
		seen: map[string]int{},
	}
}

// Add appends a message unless its messageId is already retained. Returns
// whether the message was new.
func (f *LiveFeed) Add(msg platform.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[msg.MessageID]; ok {
		return false
	}
	f.msgs = append(f.msgs, msg)
	f.seen[msg.MessageID] = len(f.msgs) - 1
	if len(f.msgs) > f.cap {
		evicted := f.msgs[0]
		f.msgs = f.msgs[1:]
		delete(f.seen, evicted.MessageID)
		for id, i := range f.seen {
			f.seen[id] = i - 1
		}
	}
	f.unread++
	return true
}

// ApplyStatus mutates a retained message's status in place, respecting
// monotonic ordering. Updates for unknown messageIds are dropped.
func (f *LiveFeed) ApplyStatus(messageID, status string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.seen[messageID]
	if !ok {
		return false
	}
	if platform.StatusRank(status) < platform.StatusRank(f.msgs[i].Status) {
		return false
	}
	f.msgs[i].Status = status
	return true
}

// Messages returns a snapshot of the retained messages, oldest first.
func (f *LiveFeed) Messages() []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.Message, len(f.msgs))
	copy(out, f.msgs)
	return out
}

// Unread returns the unread counter.
func (f *LiveFeed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// ClearUnread resets the unread counter.
func (f *LiveFeed) ClearUnread() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unread = 0
}
