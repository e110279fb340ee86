// Package history maintains the message window of an open chat: a
// chronological slice grown backwards by paged fetches and forwards by live
// events, with status updates applied in place.
package history

import (
	"github.com/waconsole/waconsole/internal/platform"
)

// Window is the in-memory message list for one chat, oldest first. All
// mutation paths de-duplicate by messageId so paged fetches, head refreshes
// and live pushes can overlap without doubling rows.
type Window struct {
	msgs []platform.Message
	seen map[string]int
}

// NewWindow creates an empty window.
func NewWindow() *Window {
	return &Window{seen: map[string]int{}}
}

// Replace discards the window contents and installs msgs as-is.
func (w *Window) Replace(msgs []platform.Message) {
	w.msgs = append(w.msgs[:0:0], msgs...)
	w.seen = make(map[string]int, len(msgs))
	for i, m := range w.msgs {
		w.seen[m.MessageID] = i
	}
}

// Append adds a message at the tail unless its id is already present.
// Returns whether the message was new.
func (w *Window) Append(msg platform.Message) bool {
	if _, ok := w.seen[msg.MessageID]; ok {
		return false
	}
	w.msgs = append(w.msgs, msg)
	w.seen[msg.MessageID] = len(w.msgs) - 1
	return true
}

// PrependUnique inserts an older batch (chronological order) ahead of the
// current contents, skipping ids already present. Returns how many were new.
func (w *Window) PrependUnique(batch []platform.Message) int {
	fresh := make([]platform.Message, 0, len(batch))
	for _, m := range batch {
		if _, ok := w.seen[m.MessageID]; !ok {
			fresh = append(fresh, m)
		}
	}
	if len(fresh) == 0 {
		return 0
	}
	w.msgs = append(fresh, w.msgs...)
	w.seen = make(map[string]int, len(w.msgs))
	for i, m := range w.msgs {
		w.seen[m.MessageID] = i
	}
	return len(fresh)
}

// ApplyStatus updates a message's status in place. Regressions in the
// delivery ladder and unknown ids are dropped.
func (w *Window) ApplyStatus(messageID, status string) bool {
	i, ok := w.seen[messageID]
	if !ok {
		return false
	}
	if platform.StatusRank(status) < platform.StatusRank(w.msgs[i].Status) {
		return false
	}
	w.msgs[i].Status = status
	return true
}

// Contains reports whether the id is in the window.
func (w *Window) Contains(messageID string) bool {
	_, ok := w.seen[messageID]
	return ok
}

// Len returns the number of messages in the window.
func (w *Window) Len() int {
	return len(w.msgs)
}

// Messages returns a snapshot of the window, oldest first.
func (w *Window) Messages() []platform.Message {
	out := make([]platform.Message, len(w.msgs))
	copy(out, w.msgs)
	return out
}
