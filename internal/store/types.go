package store

// Session represents a cached platform session.
type Session struct {
	SessionName   string
	AgentName     string
	Status        string
	LastConnected int64
	TotalMessages int
	TotalChats    int
}

// Chat represents a cached chat.
type Chat struct {
	SessionName        string
	ChatID             string
	Name               string
	IsGroup            bool
	UnreadCount        int
	LastMessageAt      int64
	LastMessagePreview string
}

// Message represents a cached message.
type Message struct {
	ID          int64
	SessionName string
	ChatID      string
	MsgID       string
	SenderName  string
	Body        string
	MessageType string
	FromMe      bool
	Status      string
	MediaURL    string
	Timestamp   int64
}

// OutboxEntry represents a pending outgoing message.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	SessionName  string
	ChatID       string
	PhoneNumber  string
	Body         string
	Status       string // queued, sending, sent, failed
	ErrorMessage string
	ServerMsgID  string
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message
	Snippet string
}
