package platform

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// UnixMS is a millisecond timestamp that tolerates the formats the platform
// emits: RFC 3339 strings on REST responses, epoch seconds or milliseconds
// on push events.
type UnixMS int64

// UnmarshalJSON accepts an RFC 3339 string, an epoch number, or null.
func (u *UnixMS) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		*u = UnixMS(t.UnixMilli())
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	// Epoch seconds fit comfortably below this bound; milliseconds do not.
	if n < 1e12 {
		n *= 1000
	}
	*u = UnixMS(n)
	return nil
}

// Time converts the timestamp to a time.Time.
func (u UnixMS) Time() time.Time {
	return time.UnixMilli(int64(u))
}

// Message is one unit of communication, as shaped on the wire. The same
// struct decodes both push events and paged history rows.
type Message struct {
	MessageID     string `json:"messageId"`
	SessionName   string `json:"sessionName"`
	ChatID        string `json:"chatId"`
	FromNumber    string `json:"fromNumber"`
	ToNumber      string `json:"toNumber"`
	SenderName    string `json:"senderName"`
	Body          string `json:"messageBody"`
	MessageType   string `json:"messageType"`
	FromMe        bool   `json:"isFromMe"`
	Status        string `json:"messageStatus"`
	Timestamp     UnixMS `json:"timestamp"`
	MediaURL      string `json:"mediaUrl"`
	MediaFilename string `json:"mediaFilename"`
	MediaMimetype string `json:"mediaMimetype"`
}

// Message statuses, monotonically non-decreasing per message.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusPlayed    = "played"
)

var statusRank = map[string]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
	StatusPlayed:    4,
}

// StatusRank returns the ordering rank of a message status. Unknown statuses
// rank lowest so they never overwrite a known one.
func StatusRank(s string) int {
	return statusRank[s]
}

// Session is one WhatsApp connection instance on the platform.
type Session struct {
	SessionName   string `json:"sessionName"`
	AgentName     string `json:"agentName"`
	Status        string `json:"connectionStatus"`
	LastConnected UnixMS `json:"lastConnected"`
	TotalMessages int    `json:"totalMessages"`
	TotalChats    int    `json:"totalChats"`
}

// Session statuses pushed by the session manager.
const (
	SessionInitializing = "initializing"
	SessionReady        = "ready"
	SessionAuthed       = "authenticated"
	SessionAuthFailure  = "auth_failure"
	SessionDisconnected = "disconnected"
)

// Chat is a conversation thread scoped to a session.
type Chat struct {
	ChatID          string `json:"chatId"`
	SessionName     string `json:"sessionName"`
	Name            string `json:"chatName"`
	ChatType        string `json:"chatType"`
	UnreadCount     int    `json:"unreadCount"`
	LastMessageText string `json:"lastMessageText"`
	LastMessageTime UnixMS `json:"lastMessageTime"`
}

// IsGroup reports whether the chat is a group thread.
func (c Chat) IsGroup() bool {
	return c.ChatType == "group"
}

// QRCode is the ephemeral pairing artifact for a session awaiting
// authentication. Each poll or push replaces the previous one wholesale.
type QRCode struct {
	SessionName string `json:"sessionName"`
	QR          string `json:"qr"`
	QRString    string `json:"qrString"`
	Attempts    int    `json:"attempts"`
}

// Stats are the aggregate realtime counters.
type Stats struct {
	ActiveSessions   int `json:"activeSessions"`
	MessagesToday    int `json:"messagesToday"`
	ConnectedClients int `json:"connectedClients"`
}

// Pagination is the paging metadata attached to list responses.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNextPage bool `json:"hasNextPage"`
}

// MessagePage is one page of a chat's history, newest-first as returned by
// the server.
type MessagePage struct {
	Messages   []Message
	Pagination Pagination
}

// SendResult is the acknowledgement for a send request.
type SendResult struct {
	MessageID string `json:"messageId"`
}
