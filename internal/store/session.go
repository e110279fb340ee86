package store

import (
	"database/sql"
	"time"
)

// UpsertSession inserts or updates a session record.
func (db *DB) UpsertSession(s *Session) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO sessions (session_name, agent_name, status, last_connected, total_messages, total_chats, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_name) DO UPDATE SET
			agent_name = CASE WHEN excluded.agent_name != '' THEN excluded.agent_name ELSE agent_name END,
			status = excluded.status,
			last_connected = MAX(last_connected, excluded.last_connected),
			total_messages = excluded.total_messages,
			total_chats = excluded.total_chats,
			updated_at = excluded.updated_at`,
		s.SessionName, s.AgentName, s.Status, s.LastConnected, s.TotalMessages, s.TotalChats, now)
	return err
}

// ListSessions returns all cached sessions, alphabetical.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT session_name, agent_name, status, last_connected, total_messages, total_chats
		FROM sessions ORDER BY session_name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.SessionName, &s.AgentName, &s.Status, &s.LastConnected, &s.TotalMessages, &s.TotalChats); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession returns a single session by name.
func (db *DB) GetSession(sessionName string) (*Session, error) {
	var s Session
	err := db.QueryRow(`
		SELECT session_name, agent_name, status, last_connected, total_messages, total_chats
		FROM sessions WHERE session_name = ?`, sessionName).
		Scan(&s.SessionName, &s.AgentName, &s.Status, &s.LastConnected, &s.TotalMessages, &s.TotalChats)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
