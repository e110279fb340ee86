package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/waconsole/waconsole/internal/bus"
	"github.com/waconsole/waconsole/internal/platform"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a control frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10
)

// Conn is the subset of the websocket connection the client uses. Tests
// substitute a fake; production uses gorilla's *websocket.Conn, which
// satisfies this interface as-is.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dialer opens event-stream connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type wsDialer struct {
	timeout time.Duration
}

func (d wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.timeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config holds the client's connection tunables.
type Config struct {
	Endpoint          string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	DialTimeout       time.Duration
	LiveFeedCap       int
}

// Client owns the single event-stream connection to the platform's events
// server. It normalizes inbound events onto the bus, retains a live feed of
// recent messages, raises notifications, and survives transient drops with
// bounded redials. Consumers subscribe on the bus; they never touch the
// socket.
type Client struct {
	cfg      Config
	bus      *bus.Bus
	machine  *Machine
	notifier *Notifier
	feed     *LiveFeed
	dialer   Dialer
	logger   *zap.Logger

	mu     sync.Mutex
	conn   Conn
	cancel context.CancelFunc
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer substitutes the transport dialer (used by tests).
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// NewClient creates a realtime client. It does not connect; call Connect.
func NewClient(cfg Config, b *bus.Bus, notifier *Notifier, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = 5
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	c := &Client{
		cfg:      cfg,
		bus:      b,
		machine:  NewMachine(b),
		notifier: notifier,
		feed:     NewLiveFeed(cfg.LiveFeedCap),
		dialer:   wsDialer{timeout: cfg.DialTimeout},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect starts the connection loop. Idempotent: while an attempt is in
// flight or a connection is open, the call is a no-op. The state machine is
// the re-entrancy guard; there is no window between check and claim.
func (c *Client) Connect() {
	if err := c.machine.Transition(Connecting); err != nil {
		c.logger.Debug("connect ignored", zap.String("state", string(c.machine.Current())))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	go c.run(ctx)
}

// Disconnect tears down the connection and stops redialing. Safe to call
// when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.cancel = nil
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if c.machine.Current() != Disconnected {
		_ = c.machine.Transition(Disconnected)
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.machine.Current()
}

// Connected reports whether the event stream is live.
func (c *Client) Connected() bool {
	return c.machine.Current() == Connected
}

// Feed returns the live message feed.
func (c *Client) Feed() *LiveFeed {
	return c.feed
}

// JoinSession subscribes the connection to a session channel. Best-effort:
// dropped with a log line when not connected, never queued.
func (c *Client) JoinSession(sessionName string) { c.emit(emitJoinSession, sessionName) }

// LeaveSession unsubscribes the connection from a session channel.
func (c *Client) LeaveSession(sessionName string) { c.emit(emitLeaveSession, sessionName) }

// JoinChat subscribes the connection to a chat channel.
func (c *Client) JoinChat(chatID string) { c.emit(emitJoinChat, chatID) }

// LeaveChat unsubscribes the connection from a chat channel.
func (c *Client) LeaveChat(chatID string) { c.emit(emitLeaveChat, chatID) }

type controlFrame struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

func (c *Client) emit(event, target string) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || c.machine.Current() != Connected {
		c.logger.Warn("not connected, dropping control event",
			zap.String("event", event), zap.String("target", target))
		return
	}
	if err := conn.WriteJSON(controlFrame{Event: event, Data: target}); err != nil {
		c.logger.Warn("control event write failed",
			zap.String("event", event), zap.Error(err))
	}
}

// run owns the connection lifecycle: dial with bounded linear backoff, pump
// events, and redial after a drop. When the attempt budget is exhausted the
// client settles in Disconnected until the next explicit Connect.
func (c *Client) run(ctx context.Context) {
	for {
		conn := c.dialBounded(ctx)
		if conn == nil {
			if ctx.Err() == nil {
				c.logger.Warn("giving up after bounded dial attempts",
					zap.Int("attempts", c.cfg.ReconnectAttempts))
				_ = c.machine.Transition(Disconnected)
			}
			return
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		if err := c.machine.Transition(Connected); err != nil {
			// Disconnect raced the handshake.
			_ = conn.Close()
			return
		}
		c.logger.Info("event stream connected", zap.String("endpoint", c.cfg.Endpoint))

		c.readLoop(ctx, conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		_ = c.machine.Transition(Disconnected)
		if err := c.machine.Transition(Connecting); err != nil {
			return
		}
	}
}

func (c *Client) dialBounded(ctx context.Context) Conn {
	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := c.dialer.Dial(ctx, c.cfg.Endpoint)
		if err == nil {
			return conn
		}
		c.logger.Warn("dial failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == c.cfg.ReconnectAttempts {
			break
		}
		// Linear backoff: delay grows with the attempt number.
		select {
		case <-time.After(c.cfg.ReconnectDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go c.pingLoop(ctx, conn, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("event stream closed", zap.Error(err))
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}

// dispatch normalizes one raw frame and fans it out. A malformed frame is
// logged and dropped; it must not prevent delivery of subsequent events.
func (c *Client) dispatch(raw []byte) {
	kind, payload, err := decode(raw)
	if err != nil {
		c.logger.Warn("dropping malformed event", zap.Error(err))
		return
	}

	switch kind {
	case KindMessage:
		msg := payload.(platform.Message)
		if c.feed.Add(msg) {
			c.notifier.Notify(notificationFor(msg))
		}
	case KindMessageStatus:
		upd := payload.(StatusUpdate)
		c.feed.ApplyStatus(upd.MessageID, upd.Status)
	}

	c.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}

func notificationFor(msg platform.Message) Notification {
	direction := "incoming"
	if msg.FromMe {
		direction = "outgoing"
	}
	body := msg.Body
	if body == "" {
		body = "[media]"
	}
	return Notification{
		Title: "New " + direction + " message",
		Body:  truncate(body, 50),
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
