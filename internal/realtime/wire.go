package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/waconsole/waconsole/internal/platform"
)

// Wire event names pushed by the events server.
const (
	eventNewMessage    = "new-message"
	eventMessageStatus = "message-status-update"
	eventSessionStatus = "session-status-update"
	eventQRCode        = "qr-code"
)

// Control event names emitted by the client. Fire-and-forget; the server
// never acknowledges them.
const (
	emitJoinSession  = "join-session"
	emitLeaveSession = "leave-session"
	emitJoinChat     = "join-chat"
	emitLeaveChat    = "leave-chat"
)

// Bus kinds published for normalized events.
const (
	KindMessage       = "realtime.message"
	KindMessageStatus = "realtime.message_status"
	KindSessionStatus = "realtime.session_status"
	KindQRCode        = "realtime.qr"
	KindStateChanged  = "realtime.state_changed"
	KindHistoryPage   = "realtime.history_page"
)

// envelope is the JSON frame exchanged with the events server.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StatusUpdate is the payload of a message-status-update event.
type StatusUpdate struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// SessionUpdate is the payload of a session-status-update event.
type SessionUpdate struct {
	SessionName string `json:"sessionName"`
	Status      string `json:"status"`
}

// HistoryPage is the payload published when a history page lands, so the
// sync engine can mirror paged fetches the same way it mirrors live events.
type HistoryPage struct {
	SessionName string
	ChatID      string
	Messages    []platform.Message
}

// decode normalizes a raw wire frame into a bus kind and typed payload.
// Unknown event names and malformed payloads are errors; the caller logs
// and drops them without disturbing the read loop.
func decode(raw []byte) (string, any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Event {
	case eventNewMessage:
		var msg platform.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		if msg.MessageID == "" {
			return "", nil, fmt.Errorf("decode %s: missing messageId", env.Event)
		}
		return KindMessage, msg, nil
	case eventMessageStatus:
		var upd StatusUpdate
		if err := json.Unmarshal(env.Data, &upd); err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return KindMessageStatus, upd, nil
	case eventSessionStatus:
		var upd SessionUpdate
		if err := json.Unmarshal(env.Data, &upd); err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return KindSessionStatus, upd, nil
	case eventQRCode:
		var qr platform.QRCode
		if err := json.Unmarshal(env.Data, &qr); err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return KindQRCode, qr, nil
	default:
		return "", nil, fmt.Errorf("unknown event %q", env.Event)
	}
}
