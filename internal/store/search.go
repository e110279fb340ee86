package store

// SearchMessages performs a full-text search on message bodies. Scope
// narrows with the optional sessionName and chatID filters.
func (db *DB) SearchMessages(query, sessionName, chatID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.id, m.session_name, m.chat_id, m.msg_id, m.sender_name, m.body,
		       m.message_type, m.from_me, m.status, m.media_url, m.timestamp,
		       snippet(messages_fts, 0, '<<', '>>', '...', 32)
		FROM messages_fts f
		JOIN messages m ON m.id = f.rowid
		WHERE messages_fts MATCH ?`

	args := []any{query}
	if sessionName != "" {
		q += " AND m.session_name = ?"
		args = append(args, sessionName)
	}
	if chatID != "" {
		q += " AND m.chat_id = ?"
		args = append(args, chatID)
	}
	q += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.Message.ID, &r.Message.SessionName, &r.Message.ChatID,
			&r.Message.MsgID, &r.Message.SenderName, &r.Message.Body,
			&r.Message.MessageType, &r.Message.FromMe, &r.Message.Status,
			&r.Message.MediaURL, &r.Message.Timestamp, &r.Snippet,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
