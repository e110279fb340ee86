package store

import "time"

// UpsertMessage inserts or updates a message (idempotent on session_name +
// chat_id + msg_id). Status only moves forward.
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (session_name, chat_id, msg_id, sender_name, body, message_type, from_me, status, media_url, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_name, chat_id, msg_id) DO UPDATE SET
			sender_name = excluded.sender_name,
			body = excluded.body,
			media_url = excluded.media_url,
			status = CASE WHEN (`+rankExpr("excluded.status")+`) >= (`+rankExpr("status")+`)
				THEN excluded.status ELSE status END`,
		m.SessionName, m.ChatID, m.MsgID, m.SenderName, m.Body, m.MessageType, m.FromMe, m.Status, m.MediaURL, m.Timestamp, now)
	return err
}

// UpsertMessages inserts a batch of messages in one transaction.
func (db *DB) UpsertMessages(msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	stmt, err := tx.Prepare(`
		INSERT INTO messages (session_name, chat_id, msg_id, sender_name, body, message_type, from_me, status, media_url, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_name, chat_id, msg_id) DO UPDATE SET
			sender_name = excluded.sender_name,
			body = excluded.body,
			media_url = excluded.media_url,
			status = CASE WHEN (` + rankExpr("excluded.status") + `) >= (` + rankExpr("status") + `)
				THEN excluded.status ELSE status END`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for i := range msgs {
		m := &msgs[i]
		if _, err := stmt.Exec(m.SessionName, m.ChatID, m.MsgID, m.SenderName, m.Body, m.MessageType, m.FromMe, m.Status, m.MediaURL, m.Timestamp, now); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}
	_ = stmt.Close()
	return tx.Commit()
}

// UpdateMessageStatus advances a message's status by server id. Returns
// whether a row changed; regressions and unknown ids change nothing.
func (db *DB) UpdateMessageStatus(msgID, status string) (bool, error) {
	res, err := db.Exec(`
		UPDATE messages SET status = ?
		WHERE msg_id = ? AND (`+rankExpr("?")+`) >= (`+rankExpr("status")+`)`,
		status, msgID, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListMessages returns a chat's messages using keyset pagination by
// timestamp, newest first.
func (db *DB) ListMessages(sessionName, chatID string, beforeTs int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT id, session_name, chat_id, msg_id, sender_name, body, message_type, from_me, status, media_url, timestamp
		FROM messages
		WHERE session_name = ? AND chat_id = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT ?`, sessionName, chatID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionName, &m.ChatID, &m.MsgID, &m.SenderName, &m.Body, &m.MessageType, &m.FromMe, &m.Status, &m.MediaURL, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// rankExpr builds the delivery-ladder rank expression for a column, so
// status writes can refuse regressions without a read-modify-write round
// trip.
func rankExpr(col string) string {
	return `CASE ` + col + ` WHEN 'pending' THEN 0 WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'read' THEN 3 WHEN 'played' THEN 4 ELSE 0 END`
}
