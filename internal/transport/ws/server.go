package ws

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/room-signup/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type RosterSvc interface {
	Roster(ctx context.Context, ref string) (domain.Roster, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	rosters  RosterSvc
	token    string
	log      *slog.Logger

	pingEvery time.Duration
}

// NewServer — эндпоинт ленты состава. С пустым токеном отклоняются все подключения.
func NewServer(hub *Hub, rosters RosterSvc, token string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		hub:     hub,
		rosters: rosters,
		token:   token,
		log:     log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// HandleWS serves GET /ws/rooms/{ref}?access_token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "missing or invalid access_token", http.StatusUnauthorized)
		return
	}

	roster, err := s.rosters.Roster(r.Context(), chi.URLParam(r, "ref"))
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrInvalidRoomRef):
		http.Error(w, "invalid room reference", http.StatusBadRequest)
		return
	case err != nil:
		s.log.Error("ws load roster failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, roster.Room.ID)
	s.hub.Add(c)
	defer func() {
		s.hub.Remove(c)
		if err := c.Close(); err != nil {
			s.log.Debug("ws close failed", "room", c.roomID, "err", err)
		}
	}()

	if err := c.Send(Message{Type: TypeState, Payload: statePayload(roster)}); err != nil {
		s.log.Warn("ws send initial state failed", "room", c.roomID, "err", err)
		return
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(c)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return false
	}
	got := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if got == "" {
		got = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) == 1
}

func statePayload(r domain.Roster) StatePayload {
	item := func(m domain.Membership, _ int) MemberItem {
		return MemberItem{UserID: m.UserID, Position: m.Position, JoinedAt: m.JoinedAt.Unix()}
	}
	return StatePayload{
		RoomID:    r.Room.ID,
		Number:    r.Room.Number,
		Count:     r.Count(),
		Available: domain.Available(r.Count()),
		Primary:   lo.Map(r.Primary, item),
		Reserve:   lo.Map(r.Reserve, item),
	}
}

// readLoop только держит соединение; лента односторонняя.
func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadLimit(1 << 12)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn   *websocket.Conn
	roomID string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, roomID string) *wsConn {
	return &wsConn{
		conn:   c,
		roomID: roomID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) RoomID() string { return c.roomID }
