package pocketbot

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// ============================================================================
// Connection State
// ============================================================================

// ConnState is the lifecycle state of the chat connection.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateError        ConnState = "error"
)

// Callbacks is the notification surface a ChatClient reports through. All
// fields are optional; nil entries are skipped. Callbacks are invoked one at
// a time, in event order, from a dispatch goroutine owned by the client,
// never reentrantly from inside Connect, Disconnect or SendMessage.
type Callbacks struct {
	OnStateChange func(ConnState)
	OnMessage     func(ChatMessage)
	OnTyping      func(bool)
	OnError       func(string)
	OnSessionID   func(string)
}

// ChatOptions configures a ChatClient.
type ChatOptions struct {
	DialTimeout        time.Duration
	WriteTimeout       time.Duration
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
}

func (o *ChatOptions) defaults() {
	if o.DialTimeout == 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ReconnectBaseDelay == 0 {
		o.ReconnectBaseDelay = 1 * time.Second
	}
	if o.ReconnectMaxDelay == 0 {
		o.ReconnectMaxDelay = 30 * time.Second
	}
}

// ============================================================================
// ChatClient
// ============================================================================

// ChatClient maintains the single logical chat session with a pocketbot
// server over a websocket, reconnecting through transient failures and
// server restarts. It owns at most one live connection and at most one
// pending reconnect timer at any instant.
type ChatClient struct {
	opts ChatOptions

	mu        sync.Mutex
	state     ConnState
	conn      *websocket.Conn
	cancel    context.CancelFunc // stops the read loop of the current conn
	timer     *time.Timer        // pending reconnect, nil when none
	gen       int                // bumped by Connect/Disconnect to invalidate stale events
	attempts  int
	server    ServerConnection
	callbacks Callbacks
	bo        backoff

	notifyMu sync.RWMutex
	closed   bool
	notify   chan func()
}

// NewChatClient creates a ChatClient in the disconnected state. opts may be
// nil for defaults.
func NewChatClient(opts *ChatOptions) *ChatClient {
	var o ChatOptions
	if opts != nil {
		o = *opts
	}
	o.defaults()
	c := &ChatClient{
		opts:   o,
		state:  StateDisconnected,
		bo:     backoff{base: o.ReconnectBaseDelay, max: o.ReconnectMaxDelay},
		notify: make(chan func(), 64),
	}
	go c.dispatchLoop()
	return c
}

func (c *ChatClient) dispatchLoop() {
	for fn := range c.notify {
		fn()
	}
}

// post queues a callback invocation on the dispatch goroutine, preserving
// the order events were observed in.
func (c *ChatClient) post(fn func()) {
	c.notifyMu.RLock()
	defer c.notifyMu.RUnlock()
	if c.closed {
		return
	}
	c.notify <- fn
}

// ChatEndpoint maps a caller-supplied server address to the websocket chat
// URL: http→ws, https→wss, trailing slashes stripped, and the token appended
// as a query parameter only when non-empty.
func ChatEndpoint(address, token string) string {
	u := strings.TrimRight(address, "/")
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	u += "/ws/chat"
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

// Connect opens the chat connection, superseding any prior connection or
// pending reconnect. It never returns an error: every outcome, including
// dial failure, is reported through the callbacks.
func (c *ChatClient) Connect(server ServerConnection, callbacks Callbacks) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.stopTimerLocked()
	old := c.detachConnLocked()
	c.server = server
	c.callbacks = callbacks
	c.attempts = 0
	c.state = StateConnecting
	cb := callbacks.OnStateChange
	c.mu.Unlock()

	if old != nil {
		old.Close(websocket.StatusNormalClosure, "superseded")
	}
	if cb != nil {
		c.post(func() { cb(StateConnecting) })
	}
	go c.dial(gen)
}

// Disconnect tears the session down: it cancels a pending reconnect, closes
// the transport if open, and reports the disconnected state once. Repeated
// calls are no-ops beyond the first.
func (c *ChatClient) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.stopTimerLocked()
	old := c.detachConnLocked()
	already := c.state == StateDisconnected
	c.state = StateDisconnected
	cb := c.callbacks.OnStateChange
	c.mu.Unlock()

	if old != nil {
		old.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	if !already && cb != nil {
		c.post(func() { cb(StateDisconnected) })
	}
}

// Close disconnects and releases the dispatch goroutine. The client must not
// be used afterwards.
func (c *ChatClient) Close() {
	c.Disconnect()
	c.notifyMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.notify)
	}
	c.notifyMu.Unlock()
}

// State returns the current connection state.
func (c *ChatClient) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports true only while the state is connected with an open
// transport underneath; false in every other state, including connecting.
func (c *ChatClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected && c.conn != nil
}

// SendMessage builds the user-authored message record and, when the
// transport is currently open, transmits it. The record is always returned
// so the caller can render it immediately; a message produced while
// disconnected is not queued for later delivery.
func (c *ChatClient) SendMessage(text string) ChatMessage {
	msg := NewUserMessage(text)

	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		return msg
	}

	data, err := EncodeOutbound(text)
	if err != nil {
		return msg
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, data)
	return msg
}

// NewUserMessage is the outbound message factory: a fresh unique id, the
// current UTC timestamp, and the given content, independent of transport
// state.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ============================================================================
// Internals
// ============================================================================

// detachConnLocked removes the current connection and stops its read loop.
// The caller closes the returned conn outside the lock.
func (c *ChatClient) detachConnLocked() *websocket.Conn {
	old := c.conn
	c.conn = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return old
}

func (c *ChatClient) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// scheduleRedial arms the single reconnect timer unless the generation moved
// on in the meantime.
func (c *ChatClient) scheduleRedial(gen int, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.stopTimerLocked()
	c.timer = time.AfterFunc(delay, func() { c.redial(gen) })
}

// redial runs when the reconnect timer fires: back to connecting, then a
// fresh dial.
func (c *ChatClient) redial(gen int) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.state = StateConnecting
	cb := c.callbacks.OnStateChange
	c.mu.Unlock()

	if cb != nil {
		c.post(func() { cb(StateConnecting) })
	}
	c.dial(gen)
}

func (c *ChatClient) dial(gen int) {
	c.mu.Lock()
	server := c.server
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.DialTimeout)
	conn, _, err := websocket.Dial(ctx, ChatEndpoint(server.Address, server.Token), nil)
	cancel()

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if err == nil {
			conn.Close(websocket.StatusNormalClosure, "superseded")
		}
		return
	}

	if err != nil {
		delay := c.bo.delay(c.attempts)
		c.attempts++
		c.state = StateError
		cb := c.callbacks.OnStateChange
		c.mu.Unlock()

		if cb != nil {
			c.post(func() { cb(StateError) })
		}
		c.scheduleRedial(gen, delay)
		return
	}

	readCtx, readCancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = readCancel
	c.state = StateConnected
	c.attempts = 0
	cb := c.callbacks.OnStateChange
	c.mu.Unlock()

	if cb != nil {
		c.post(func() { cb(StateConnected) })
	}
	go c.readLoop(gen, conn, readCtx)
}

func (c *ChatClient) readLoop(gen int, conn *websocket.Conn, ctx context.Context) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.handleFrame(gen, data)
	}
}

func (c *ChatClient) handleFrame(gen int, data []byte) {
	frame, ok := DecodeInbound(data)
	if !ok {
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	cbs := c.callbacks
	c.mu.Unlock()

	switch f := frame.(type) {
	case ConnectedFrame:
		if cbs.OnSessionID != nil {
			c.post(func() { cbs.OnSessionID(f.SessionID) })
		}
	case MessageFrame:
		if cbs.OnMessage != nil {
			msg := ChatMessage{
				ID:        uuid.NewString(),
				Role:      Role(f.Role),
				Content:   f.Content,
				Timestamp: f.Timestamp,
			}
			c.post(func() { cbs.OnMessage(msg) })
		}
	case TypingFrame:
		if cbs.OnTyping != nil {
			c.post(func() { cbs.OnTyping(f.Status) })
		}
	case ErrorFrame:
		if cbs.OnError != nil {
			c.post(func() { cbs.OnError(f.Content) })
		}
	}
}

// handleClose classifies why the read loop ended and drives the state
// machine accordingly. A generation mismatch means Connect or Disconnect
// already took over and the event belongs to a dead connection.
func (c *ChatClient) handleClose(gen int, err error) {
	code := websocket.CloseStatus(err)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.detachConnLocked()

	switch ClassifyClose(code) {
	case RetryNever:
		c.state = StateError
		cbs := c.callbacks
		c.mu.Unlock()

		if cbs.OnError != nil {
			c.post(func() { cbs.OnError("authentication rejected by server; check the access token") })
		}
		if cbs.OnStateChange != nil {
			c.post(func() { cbs.OnStateChange(StateError) })
		}

	case RetryNow:
		c.state = StateConnecting
		cb := c.callbacks.OnStateChange
		c.mu.Unlock()

		if cb != nil {
			c.post(func() { cb(StateConnecting) })
		}
		go c.dial(gen)

	default:
		// A close frame leaves us cleanly disconnected; a raw transport
		// error (no close status at all) is surfaced as an error state.
		st := StateDisconnected
		if code == -1 {
			st = StateError
		}
		delay := c.bo.delay(c.attempts)
		c.attempts++
		c.state = st
		cb := c.callbacks.OnStateChange
		c.mu.Unlock()

		if cb != nil {
			c.post(func() { cb(st) })
		}
		c.scheduleRedial(gen, delay)
	}
}
