// Package bus provides the in-process publish/subscribe backbone every
// component fans events through. Kinds are dot-namespaced; subscribers
// register a namespace prefix. Namespaces in use:
//
//	realtime.  events normalized off the socket (messages, statuses, QR)
//	cache.     local mirror mutations applied by the sync engine
//	outbox.    send lifecycle (queued, sent, failed)
//	qr.        pairing code refreshes from the poller
//	notify.    user-visible flash notifications
package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
