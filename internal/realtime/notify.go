package realtime

import (
	"time"

	"github.com/waconsole/waconsole/internal/bus"
)

// KindFlash is the bus kind the default notification sink publishes on.
const KindFlash = "notify.flash"

// Notification is a user-visible alert raised for inbound messages.
type Notification struct {
	Title string
	Body  string
}

// Sink delivers notifications to the user. The default sink flashes the
// status bar; a custom sink substitutes the whole delivery path.
type Sink interface {
	Notify(n Notification)
}

// BusSink publishes notifications as flash events on the bus.
type BusSink struct {
	Bus *bus.Bus
}

// Notify implements Sink.
func (s BusSink) Notify(n Notification) {
	s.Bus.Publish(bus.Event{
		Kind:      KindFlash,
		Timestamp: time.Now(),
		Payload:   n,
	})
}

// Notifier applies the notification policy: disabled means every Notify is
// a no-op, otherwise delivery goes to the configured sink.
type Notifier struct {
	enabled bool
	sink    Sink
}

// NewNotifier creates a notifier. A nil sink disables delivery regardless
// of the enabled flag.
func NewNotifier(enabled bool, sink Sink) *Notifier {
	return &Notifier{enabled: enabled, sink: sink}
}

// Notify delivers a notification, best-effort.
func (n *Notifier) Notify(note Notification) {
	if n == nil || !n.enabled || n.sink == nil {
		return
	}
	n.sink.Notify(note)
}
