// Package realtime maintains the push channel to the backend: one websocket
// per session with bounded reconnection and room membership.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = time.Second

	writeWait = 10 * time.Second
)

// Handlers receive channel output. They are called from the channel's run
// loop and must not call Disconnect.
type Handlers struct {
	OnEvent func(Frame)
	OnState func(State)
	OnError func(error)
}

type Options struct {
	URL               string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Dialer            *websocket.Dialer
	Handlers          Handlers

	// TokenSource, when set, is read before every dial so reconnects carry
	// the latest access token rather than the one Connect was given.
	TokenSource func() *oauth2.Token
}

// Channel is the realtime connection. The zero value is not usable, use New.
type Channel struct {
	url      string
	attempts int
	delay    time.Duration
	dialer   *websocket.Dialer
	handlers Handlers
	tokens   func() *oauth2.Token

	mu     sync.Mutex
	state  State
	gen    int
	conn   *websocket.Conn
	rooms  map[string]struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options) *Channel {
	if opts.ReconnectAttempts < 0 {
		opts.ReconnectAttempts = 0
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Channel{
		url:      opts.URL,
		attempts: opts.ReconnectAttempts,
		delay:    opts.ReconnectDelay,
		dialer:   opts.Dialer,
		handlers: opts.Handlers,
		tokens:   opts.TokenSource,
		rooms:    make(map[string]struct{}),
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rooms returns the rooms currently joined.
func (c *Channel) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		out = append(out, r)
	}
	return out
}

// Connect starts the run loop with tok. It is a no-op unless the channel is
// disconnected.
func (c *Channel) Connect(tok *oauth2.Token) error {
	if !tok.Valid() {
		return taskerrors.Wrapf(taskerrors.ErrNoSession, "[realtime Connect]")
	}

	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = Connecting
	done := c.done
	c.mu.Unlock()

	c.notifyState(Connecting)
	go c.run(ctx, gen, tok, done)
	return nil
}

// authHeader uses the token source's current token, falling back to the one
// Connect was called with.
func (c *Channel) authHeader(initial *oauth2.Token) http.Header {
	tok := initial
	if c.tokens != nil {
		if cur := c.tokens(); cur != nil && cur.AccessToken != "" {
			tok = cur
		}
	}
	header := http.Header{}
	header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	return header
}

// Disconnect stops the run loop and closes the socket. It waits until the loop
// has exited and is safe to call in any state.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.cancel = nil
	c.gen++
	done := c.done
	wasConnected := c.state != Disconnected
	c.state = Disconnected
	c.closeConnLocked()
	c.mu.Unlock()

	<-done
	if wasConnected {
		c.notifyState(Disconnected)
	}
}

// run owns the socket for one Connect. After a failed dial or a dropped
// connection it retries up to c.attempts times, c.delay apart.
func (c *Channel) run(ctx context.Context, gen int, initial *oauth2.Token, done chan struct{}) {
	defer close(done)

	retries := 0
	for {
		conn, err := c.dial(ctx, c.authHeader(initial))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.notifyError(err)
			if taskerrors.Is(err, taskerrors.ErrAuthLost) {
				c.finish(gen)
				return
			}
		} else {
			if !c.attach(gen, conn) {
				_ = conn.Close()
				return
			}
			retries = 0
			c.notifyState(Connected)

			err = c.read(conn)
			if !c.detach(gen, conn) {
				return
			}
			log.Warn().Err(err).Str("url", c.url).Msg("realtime connection dropped")
			c.notifyError(taskerrors.Wrapf(taskerrors.ErrTransport, "[realtime run] connection dropped: %v", err))
			c.notifyState(Connecting)
		}

		if retries >= c.attempts {
			c.finish(gen)
			return
		}
		retries++
		if !sleep(ctx, c.delay) {
			return
		}
	}
}

func (c *Channel) dial(ctx context.Context, header http.Header) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, taskerrors.Wrapf(taskerrors.ErrAuthLost, "[realtime dial] handshake rejected with %d", resp.StatusCode)
		}
		return nil, taskerrors.Wrapf(taskerrors.ErrTransport, "[realtime dial] %s: %v", c.url, err)
	}
	return conn, nil
}

// attach publishes conn as the live connection unless the loop was stopped
// while dialing.
func (c *Channel) attach(gen int, conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.conn = conn
	c.state = Connected
	return true
}

// detach forgets a dropped connection and its room membership.
func (c *Channel) detach(gen int, conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	if c.conn == conn {
		c.closeConnLocked()
	}
	c.state = Connecting
	return true
}

// finish marks the channel disconnected after the loop gave up on its own.
func (c *Channel) finish(gen int) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.cancel = nil
	c.state = Disconnected
	c.mu.Unlock()
	log.Info().Str("url", c.url).Msg("realtime channel gave up reconnecting")
	c.notifyState(Disconnected)
}

func (c *Channel) closeConnLocked() {
	if c.conn == nil {
		return
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = c.conn.Close()
	c.conn = nil
	clear(c.rooms)
}

func (c *Channel) read(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil || f.Event == "" {
			log.Warn().Err(err).Int("size", len(raw)).Msg("dropping undecodable realtime frame")
			continue
		}
		if c.handlers.OnEvent != nil {
			c.handlers.OnEvent(f)
		}
	}
}

// Emit writes one frame. It fails with ErrNotConnected unless connected.
func (c *Channel) Emit(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emitLocked(event, data)
}

func (c *Channel) emitLocked(event string, data any) error {
	if c.state != Connected || c.conn == nil {
		return taskerrors.Wrapf(taskerrors.ErrNotConnected, "[realtime Emit] %s", event)
	}
	f, err := NewFrame(event, data)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(f); err != nil {
		return taskerrors.Wrapf(taskerrors.ErrTransport, "[realtime Emit] %s: %v", event, err)
	}
	return nil
}

// SendMessage emits send_message for recipientID.
func (c *Channel) SendMessage(recipientID, content string) error {
	return c.Emit(EventSendMessage, struct {
		RecipientID string `json:"recipientId"`
		Content     string `json:"content"`
	}{recipientID, content})
}

// JoinRoom joins room. Joining a room already joined does nothing.
func (c *Channel) JoinRoom(room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joinLocked(room)
}

func (c *Channel) joinLocked(room string) error {
	if _, ok := c.rooms[room]; ok && c.state == Connected {
		return nil
	}
	if err := c.emitLocked(EventJoinRoom, RoomPayload{RoomID: room}); err != nil {
		return err
	}
	c.rooms[room] = struct{}{}
	return nil
}

// LeaveRoom leaves room if it was joined.
func (c *Channel) LeaveRoom(room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leaveLocked(room)
}

func (c *Channel) leaveLocked(room string) error {
	if _, ok := c.rooms[room]; !ok {
		return nil
	}
	if err := c.emitLocked(EventLeaveRoom, RoomPayload{RoomID: room}); err != nil {
		return err
	}
	delete(c.rooms, room)
	return nil
}

// SwitchRoom leaves every joined room other than next, then joins next.
func (c *Channel) SwitchRoom(next string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for room := range c.rooms {
		if room == next {
			continue
		}
		if err := c.leaveLocked(room); err != nil {
			return err
		}
	}
	return c.joinLocked(next)
}

func (c *Channel) notifyState(s State) {
	log.Debug().Str("state", s.String()).Msg("realtime state")
	if c.handlers.OnState != nil {
		c.handlers.OnState(s)
	}
}

func (c *Channel) notifyError(err error) {
	log.Err(err).Msg("realtime error")
	if c.handlers.OnError != nil {
		c.handlers.OnError(err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
