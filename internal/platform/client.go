package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client talks to the platform's REST services: the messaging service
// (QR, provisioning, send) and the sessions service (agents, chats, history).
// Every request carries the configured bearer token.
type Client struct {
	apiBase      string
	sessionsBase string
	token        string
	http         *http.Client
	logger       *zap.Logger
}

// Config holds the endpoints and credentials for a Client.
type Config struct {
	APIURL      string
	SessionsURL string
	Token       string
}

// NewClient creates a REST client for the platform services.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiBase:      cfg.APIURL,
		sessionsBase: cfg.SessionsURL,
		token:        cfg.Token,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

// envelope is the common response wrapper used by both services.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any, out any) (*Pagination, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, rawURL, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, fmt.Errorf("%s %s: %s", method, rawURL, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return env.Pagination, nil
}

// ListSessions returns all sessions known to the sessions service.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	_, err := c.do(ctx, http.MethodGet, c.sessionsBase+"/agents", nil, &sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// RealtimeStats returns the aggregate realtime counters.
func (c *Client) RealtimeStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	_, err := c.do(ctx, http.MethodGet, c.sessionsBase+"/stats/realtime", nil, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListChats returns the chats of a session, most recently active first.
func (c *Client) ListChats(ctx context.Context, sessionName string) ([]Chat, error) {
	var chats []Chat
	u := fmt.Sprintf("%s/chats/%s", c.sessionsBase, url.PathEscape(sessionName))
	_, err := c.do(ctx, http.MethodGet, u, nil, &chats)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// ChatMessages returns one page of a chat's history, newest-first, with the
// server's pagination metadata.
func (c *Client) ChatMessages(ctx context.Context, sessionName, chatID string, page, limit int) (*MessagePage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	u := fmt.Sprintf("%s/chat/%s/%s/messages?page=%s&limit=%s",
		c.sessionsBase,
		url.PathEscape(sessionName),
		url.PathEscape(chatID),
		strconv.Itoa(page),
		strconv.Itoa(limit),
	)
	var msgs []Message
	pg, err := c.do(ctx, http.MethodGet, u, nil, &msgs)
	if err != nil {
		return nil, err
	}
	result := &MessagePage{Messages: msgs}
	if pg != nil {
		result.Pagination = *pg
	} else {
		result.Pagination = Pagination{CurrentPage: page, TotalItems: len(msgs)}
	}
	return result, nil
}

// SessionQR returns the current pairing QR payload for a session.
func (c *Client) SessionQR(ctx context.Context, sessionName string) (*QRCode, error) {
	var qr QRCode
	u := fmt.Sprintf("%s/qr/%s", c.apiBase, url.PathEscape(sessionName))
	_, err := c.do(ctx, http.MethodGet, u, nil, &qr)
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// AddSession asks the session manager to provision a new session for an agent.
func (c *Client) AddSession(ctx context.Context, agentName string, userID int) (string, error) {
	u := fmt.Sprintf("%s/add-session?agentName=%s&userId=%d",
		c.apiBase, url.QueryEscape(agentName), userID)
	var out struct {
		SessionName string `json:"sessionName"`
	}
	_, err := c.do(ctx, http.MethodPost, u, nil, &out)
	if err != nil {
		return "", err
	}
	return out.SessionName, nil
}

// SendMessage sends a text message through a session. Returns the server
// message ID when the platform reports one.
func (c *Client) SendMessage(ctx context.Context, sessionName, phoneNumber, text string) (string, error) {
	u := fmt.Sprintf("%s/send-message/%s", c.apiBase, url.PathEscape(sessionName))
	body := map[string]string{
		"phoneNumber": phoneNumber,
		"message":     text,
	}
	var out SendResult
	_, err := c.do(ctx, http.MethodPost, u, body, &out)
	if err != nil {
		return "", err
	}
	return out.MessageID, nil
}
