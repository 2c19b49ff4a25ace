package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/chat"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/realtime"
	"github.com/jrsteele09/go-taskboard/server/messagerepo"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 * 1024
	sendBufferSize = 64

	// relayWindow bounds how far back a send_message looks for the REST
	// message it duplicates.
	relayWindow = time.Minute
)

// Hub tracks the connected realtime clients and delivers events to users.
// clients maps a user id to its connections; relayed maps a message id to
// when a socket send_message was matched against it.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]map[*hubClient]struct{}
	relayed  map[string]time.Time
	messages messagerepo.Repo
	nowFunc  func() time.Time
}

type hubClient struct {
	hub   *Hub
	user  model.User
	conn  *websocket.Conn
	send  chan realtime.Frame
	rooms map[string]struct{} // guarded by hub.mu
}

func NewHub(messages messagerepo.Repo, now func() time.Time) *Hub {
	return &Hub{
		clients:  make(map[string]map[*hubClient]struct{}),
		relayed:  make(map[string]time.Time),
		messages: messages,
		nowFunc:  now,
	}
}

// WebsocketHandler upgrades an authenticated request and serves the
// connection until it closes.
func (s *Server) WebsocketHandler() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", "Invalid token", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Err(err).Str("user", user.ID).Msg("[WebsocketHandler] failed to upgrade")
			return
		}
		s.hub.serve(user, conn)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := s.config.GetAllowedOrigins()
	return allowed.IsAllowedOrigin(origin) || allowed.IsAllowedOrigin("*")
}

func (h *Hub) serve(user model.User, conn *websocket.Conn) {
	c := &hubClient{
		hub:   h,
		user:  user,
		conn:  conn,
		send:  make(chan realtime.Frame, sendBufferSize),
		rooms: make(map[string]struct{}),
	}
	h.register(c)
	log.Debug().Str("user", user.ID).Msg("realtime client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()
	c.readPump()
	h.unregister(c)
	<-writerDone
	log.Debug().Str("user", user.ID).Msg("realtime client disconnected")
}

func (h *Hub) register(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.user.ID]
	if !ok {
		conns = make(map[*hubClient]struct{})
		h.clients[c.user.ID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *hubClient) {
	conns, ok := h.clients[c.user.ID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.user.ID)
	}
	close(c.send)
}

// Push delivers event to every connection of every listed user. Empty and
// repeated user ids are ignored.
func (h *Hub) Push(event string, data any, userIDs ...string) {
	frame, err := realtime.NewFrame(event, data)
	if err != nil {
		log.Err(err).Str("event", event).Msg("[Hub Push] failed to encode frame")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	seen := map[string]bool{}
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		for c := range h.clients[id] {
			select {
			case c.send <- frame:
			default:
				log.Warn().Str("user", id).Msg("[Hub Push] send buffer full, dropping client")
				h.removeLocked(c)
			}
		}
	}
}

// Connected reports how many connections userID holds.
func (h *Hub) Connected(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Rooms returns the rooms joined by any of userID's connections.
func (h *Hub) Rooms(userID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := map[string]struct{}{}
	for c := range h.clients[userID] {
		for room := range c.rooms {
			set[room] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for room := range set {
		out = append(out, room)
	}
	return out
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	var conns []*websocket.Conn
	for _, set := range h.clients {
		for c := range set {
			conns = append(conns, c.conn)
		}
	}
	h.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (c *hubClient) readPump() {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame realtime.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user", c.user.ID).Msg("[hubClient readPump] unexpected close")
			}
			return
		}
		c.hub.handleFrame(c, frame)
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) handleFrame(c *hubClient, frame realtime.Frame) {
	switch frame.Event {
	case realtime.EventJoinRoom, realtime.EventLeaveRoom:
		var p realtime.RoomPayload
		if err := realtime.DecodeData(frame, &p); err != nil || p.RoomID == "" {
			h.replyError(c, "Room id is required")
			return
		}
		h.mu.Lock()
		if frame.Event == realtime.EventJoinRoom {
			c.rooms[p.RoomID] = struct{}{}
		} else {
			delete(c.rooms, p.RoomID)
		}
		h.mu.Unlock()
	case realtime.EventSendMessage:
		var req model.SendMessageRequest
		if err := realtime.DecodeData(frame, &req); err != nil {
			h.replyError(c, "Invalid message")
			return
		}
		if err := chat.ValidateSend(req.RecipientID, req.Content); err != nil {
			h.replyError(c, "Invalid message")
			return
		}
		h.sendMessage(c.user.ID, req)
	default:
		log.Warn().Str("event", frame.Event).Str("user", c.user.ID).Msg("[Hub handleFrame] unknown event")
	}
}

// sendMessage delivers a message sent over the socket. Clients send over REST
// first and then emit send_message; when a matching REST message was stored
// within relayWindow it has already been delivered and is only marked.
// Otherwise the message is stored and delivered to both parties.
func (h *Hub) sendMessage(senderID string, req model.SendMessageRequest) {
	now := h.nowFunc().UTC()
	if h.matchRelayed(senderID, req, now) {
		return
	}

	m := model.Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		Timestamp:   now,
	}
	if err := h.messages.Add(m); err != nil {
		log.Err(err).Str("user", senderID).Msg("[Hub sendMessage] failed to store message")
		return
	}
	h.Push(realtime.EventMessage, m, m.RecipientID, m.SenderID)
}

func (h *Hub) matchRelayed(senderID string, req model.SendMessageRequest, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, at := range h.relayed {
		if now.Sub(at) > relayWindow {
			delete(h.relayed, id)
		}
	}

	latest, ok := h.messages.LatestFrom(senderID, req.RecipientID, now.Add(-relayWindow))
	if !ok || latest.Content != req.Content {
		return false
	}
	if _, done := h.relayed[latest.ID]; done {
		return false
	}
	h.relayed[latest.ID] = now
	return true
}

func (h *Hub) replyError(c *hubClient, message string) {
	frame, err := realtime.NewFrame(realtime.EventError, realtime.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.user.ID][c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}
