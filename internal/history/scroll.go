package history

import (
	"sync"
	"time"
)

// AnchorOffset computes the scroll offset that keeps the previously visible
// row in place after older content grew the view from prevHeight to
// newHeight rows: the offset shifts down by exactly the growth.
func AnchorOffset(prevOffset, prevHeight, newHeight int) int {
	return prevOffset + (newHeight - prevHeight)
}

// TopTrigger debounces scroll positions near the top of the view and fires
// once the position has settled there. Scrolling away before the delay
// elapses cancels the pending fire.
type TopTrigger struct {
	threshold int
	delay     time.Duration
	fire      func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewTopTrigger creates a trigger firing fire after the scroll offset has
// stayed below threshold for delay.
func NewTopTrigger(threshold int, delay time.Duration, fire func()) *TopTrigger {
	return &TopTrigger{threshold: threshold, delay: delay, fire: fire}
}

// Observe records a scroll offset. Offsets below the threshold arm (or
// re-arm) the debounce timer; offsets at or above it cancel any pending fire.
func (t *TopTrigger) Observe(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if offset >= t.threshold {
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		return
	}
	if t.timer != nil {
		t.timer.Reset(t.delay)
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.timer = nil
		t.mu.Unlock()
		t.fire()
	})
}

// Stop cancels any pending fire.
func (t *TopTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
