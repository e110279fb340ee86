package store

import (
	"database/sql"
	"time"
)

// UpsertChat inserts or updates a chat record.
func (db *DB) UpsertChat(c *Chat) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO chats (session_name, chat_id, name, is_group, unread_count, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_name, chat_id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE name END,
			is_group = excluded.is_group,
			unread_count = excluded.unread_count,
			last_message_at = MAX(last_message_at, excluded.last_message_at),
			last_message_preview = CASE WHEN excluded.last_message_at >= last_message_at
				THEN excluded.last_message_preview ELSE last_message_preview END,
			updated_at = excluded.updated_at`,
		c.SessionName, c.ChatID, c.Name, c.IsGroup, c.UnreadCount, c.LastMessageAt, c.LastMessagePreview, now)
	return err
}

// ListChats returns a session's chats sorted by last message timestamp
// descending. Chats without a name fall back to their id for display.
func (db *DB) ListChats(sessionName string, limit, offset int) ([]Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT session_name, chat_id,
			COALESCE(NULLIF(name,''), chat_id) AS display_name,
			is_group, unread_count, last_message_at, last_message_preview
		FROM chats
		WHERE session_name = ?
		ORDER BY last_message_at DESC
		LIMIT ? OFFSET ?`, sessionName, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.SessionName, &c.ChatID, &c.Name, &c.IsGroup, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// GetChat returns a single chat by session and id.
func (db *DB) GetChat(sessionName, chatID string) (*Chat, error) {
	var c Chat
	err := db.QueryRow(`
		SELECT session_name, chat_id,
			COALESCE(NULLIF(name,''), chat_id) AS display_name,
			is_group, unread_count, last_message_at, last_message_preview
		FROM chats
		WHERE session_name = ? AND chat_id = ?`, sessionName, chatID).
		Scan(&c.SessionName, &c.ChatID, &c.Name, &c.IsGroup, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
