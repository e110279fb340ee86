package model

import (
	"sync"
	"time"
)

// Flash is the status bar's transient message slot. A new Set replaces
// whatever was showing; reads after the deadline see nothing.
type Flash struct {
	mu       sync.RWMutex
	text     string
	deadline time.Time
}

// Set shows msg for duration d, replacing any current message.
func (f *Flash) Set(msg string, d time.Duration) {
	f.mu.Lock()
	f.text = msg
	f.deadline = time.Now().Add(d)
	f.mu.Unlock()
}

// Get returns the active message, or "" once it has expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.deadline) {
		return ""
	}
	return f.text
}
