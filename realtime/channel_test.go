package realtime_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/realtime"
)

const waitFor = 2 * time.Second

type wsServer struct {
	*httptest.Server

	mu         sync.Mutex
	handshakes int
	conns      int
	frames     []realtime.Frame
	auth       []string

	reject int
	accept string // when set, only "Bearer <accept>" may connect
	onConn func(n int, conn *websocket.Conn)
}

func newWSServer(t *testing.T) *wsServer {
	s := &wsServer{}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.handshakes++
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		reject := s.reject
		if s.accept != "" && r.Header.Get("Authorization") != "Bearer "+s.accept {
			reject = http.StatusUnauthorized
		}
		s.mu.Unlock()
		if reject != 0 {
			http.Error(w, http.StatusText(reject), reject)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.mu.Lock()
		s.conns++
		n := s.conns
		onConn := s.onConn
		s.mu.Unlock()
		if onConn != nil {
			onConn(n, conn)
		}
		for {
			var f realtime.Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			s.mu.Lock()
			s.frames = append(s.frames, f)
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *wsServer) received() []realtime.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]realtime.Frame(nil), s.frames...)
}

func (s *wsServer) counts() (handshakes, conns int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes, s.conns
}

type recorder struct {
	mu     sync.Mutex
	events []realtime.Frame
	states []realtime.State
	errs   []error
}

func (r *recorder) handlers() realtime.Handlers {
	return realtime.Handlers{
		OnEvent: func(f realtime.Frame) { r.mu.Lock(); r.events = append(r.events, f); r.mu.Unlock() },
		OnState: func(s realtime.State) { r.mu.Lock(); r.states = append(r.states, s); r.mu.Unlock() },
		OnError: func(err error) { r.mu.Lock(); r.errs = append(r.errs, err); r.mu.Unlock() },
	}
}

func (r *recorder) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func token() *oauth2.Token {
	return &oauth2.Token{AccessToken: "tok", TokenType: "Bearer"}
}

func connected(ch *realtime.Channel) func() bool {
	return func() bool { return ch.State() == realtime.Connected }
}

func TestConnect_RequiresToken(t *testing.T) {
	ch := realtime.New(realtime.Options{URL: "ws://127.0.0.1:1/ws"})

	err := ch.Connect(nil)
	require.ErrorIs(t, err, taskerrors.ErrNoSession)

	expired := &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(-time.Hour)}
	require.ErrorIs(t, ch.Connect(expired), taskerrors.ErrNoSession)
	require.Equal(t, realtime.Disconnected, ch.State())
}

func TestChannel_Lifecycle(t *testing.T) {
	srv := newWSServer(t)
	msg := model.Message{ID: "m1", SenderID: "u2", RecipientID: "u1", Content: "hi", Timestamp: time.Now().UTC()}
	srv.onConn = func(_ int, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		f, _ := realtime.NewFrame(realtime.EventMessage, msg)
		_ = conn.WriteJSON(f)
	}

	rec := &recorder{}
	ch := realtime.New(realtime.Options{URL: srv.url(), Handlers: rec.handlers()})

	require.NoError(t, ch.Connect(token()))
	require.Eventually(t, connected(ch), waitFor, 10*time.Millisecond)
	require.NoError(t, ch.Connect(token()), "connect while connected is a no-op")

	require.Eventually(t, func() bool { return rec.eventCount() == 1 }, waitFor, 10*time.Millisecond)
	rec.mu.Lock()
	got, err := realtime.DecodeMessage(rec.events[0])
	rec.mu.Unlock()
	require.NoError(t, err)
	require.Equal(t, "hi", got.Content)

	require.NoError(t, ch.JoinRoom("u2"))
	require.NoError(t, ch.JoinRoom("u2"))
	require.NoError(t, ch.SwitchRoom("u3"))
	require.Equal(t, []string{"u3"}, ch.Rooms())
	require.NoError(t, ch.SendMessage("u3", "hello"))

	require.Eventually(t, func() bool { return len(srv.received()) == 4 }, waitFor, 10*time.Millisecond)
	frames := srv.received()
	require.Equal(t, realtime.EventJoinRoom, frames[0].Event)
	require.Equal(t, realtime.EventLeaveRoom, frames[1].Event)
	require.Equal(t, realtime.EventJoinRoom, frames[2].Event)
	require.Equal(t, realtime.EventSendMessage, frames[3].Event)

	var room realtime.RoomPayload
	require.NoError(t, json.Unmarshal(frames[2].Data, &room))
	require.Equal(t, "u3", room.RoomID)

	ch.Disconnect()
	ch.Disconnect()
	require.Equal(t, realtime.Disconnected, ch.State())
	require.Empty(t, ch.Rooms())
	require.ErrorIs(t, ch.SendMessage("u3", "late"), taskerrors.ErrNotConnected)

	srv.mu.Lock()
	require.Equal(t, "Bearer tok", srv.auth[0])
	srv.mu.Unlock()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, []realtime.State{realtime.Connecting, realtime.Connected, realtime.Disconnected}, rec.states)
}

func TestChannel_HandshakeUnauthorizedIsNotRetried(t *testing.T) {
	srv := newWSServer(t)
	srv.reject = http.StatusUnauthorized

	rec := &recorder{}
	ch := realtime.New(realtime.Options{URL: srv.url(), ReconnectAttempts: 5, ReconnectDelay: 10 * time.Millisecond, Handlers: rec.handlers()})
	require.NoError(t, ch.Connect(token()))

	require.Eventually(t, func() bool { return len(rec.errors()) == 1 && ch.State() == realtime.Disconnected }, waitFor, 10*time.Millisecond)
	require.ErrorIs(t, rec.errors()[0], taskerrors.ErrAuthLost)

	time.Sleep(50 * time.Millisecond)
	handshakes, _ := srv.counts()
	require.Equal(t, 1, handshakes)
}

func TestChannel_GivesUpAfterBoundedRetries(t *testing.T) {
	srv := newWSServer(t)
	srv.reject = http.StatusServiceUnavailable

	rec := &recorder{}
	ch := realtime.New(realtime.Options{URL: srv.url(), ReconnectAttempts: 2, ReconnectDelay: 10 * time.Millisecond, Handlers: rec.handlers()})
	require.NoError(t, ch.Connect(token()))

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.states) > 0 && rec.states[len(rec.states)-1] == realtime.Disconnected
	}, waitFor, 10*time.Millisecond)

	handshakes, _ := srv.counts()
	require.Equal(t, 3, handshakes, "one dial plus two retries")
	require.Len(t, rec.errors(), 3)
	for _, err := range rec.errors() {
		require.ErrorIs(t, err, taskerrors.ErrTransport)
	}

	// a later explicit connect starts over
	srv.mu.Lock()
	srv.reject = 0
	srv.mu.Unlock()
	require.NoError(t, ch.Connect(token()))
	require.Eventually(t, connected(ch), waitFor, 10*time.Millisecond)
	ch.Disconnect()
}

func TestChannel_ReconnectClearsRooms(t *testing.T) {
	srv := newWSServer(t)
	dropped := make(chan struct{})
	srv.onConn = func(n int, conn *websocket.Conn) {
		if n == 1 {
			var f realtime.Frame
			_ = conn.ReadJSON(&f)
			_ = conn.Close()
			close(dropped)
		}
	}

	rec := &recorder{}
	ch := realtime.New(realtime.Options{URL: srv.url(), ReconnectAttempts: 3, ReconnectDelay: 10 * time.Millisecond, Handlers: rec.handlers()})
	require.NoError(t, ch.Connect(token()))
	require.Eventually(t, connected(ch), waitFor, 10*time.Millisecond)
	require.NoError(t, ch.JoinRoom("u2"))

	<-dropped
	require.Eventually(t, func() bool {
		_, conns := srv.counts()
		return conns == 2 && ch.State() == realtime.Connected
	}, waitFor, 10*time.Millisecond)
	require.Empty(t, ch.Rooms(), "membership does not survive a drop")

	ch.Disconnect()
	require.Equal(t, realtime.Disconnected, ch.State())
}

func TestChannel_ReconnectUsesCurrentToken(t *testing.T) {
	srv := newWSServer(t)
	srv.accept = "tok"
	drop := make(chan struct{})
	srv.onConn = func(n int, conn *websocket.Conn) {
		if n == 1 {
			<-drop
			_ = conn.Close()
		}
	}

	var mu sync.Mutex
	current := token()
	source := func() *oauth2.Token {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	rec := &recorder{}
	ch := realtime.New(realtime.Options{
		URL:               srv.url(),
		ReconnectAttempts: 3,
		ReconnectDelay:    10 * time.Millisecond,
		TokenSource:       source,
		Handlers:          rec.handlers(),
	})
	require.NoError(t, ch.Connect(token()))
	require.Eventually(t, connected(ch), waitFor, 10*time.Millisecond)

	// the access token is rotated while the socket stays up
	mu.Lock()
	current = &oauth2.Token{AccessToken: "tok2", TokenType: "Bearer"}
	mu.Unlock()
	srv.mu.Lock()
	srv.accept = "tok2"
	srv.mu.Unlock()
	close(drop)

	require.Eventually(t, func() bool {
		_, conns := srv.counts()
		return conns == 2 && ch.State() == realtime.Connected
	}, waitFor, 10*time.Millisecond)

	for _, err := range rec.errors() {
		require.NotErrorIs(t, err, taskerrors.ErrAuthLost)
	}
	srv.mu.Lock()
	last := srv.auth[len(srv.auth)-1]
	srv.mu.Unlock()
	require.Equal(t, "Bearer tok2", last)

	ch.Disconnect()
}
