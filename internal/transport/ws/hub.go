package ws

import (
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	RoomID() string
}

// Hub fans roster updates out to the websocket watchers of each room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // message id комнаты -> подключения
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[c.RoomID()]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[c.RoomID()] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.RoomID()]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.RoomID())
		}
	}
}

// Watchers returns how many connections follow roomID.
func (h *Hub) Watchers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast рассылает msg всем подключениям комнаты параллельно:
// зависшее подключение тратит только свой write deadline.
func (h *Hub) Broadcast(roomID string, msg Message) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var wg conc.WaitGroup
	for _, c := range conns {
		c := c
		wg.Go(func() { _ = c.Send(msg) }) // best-effort
	}
	wg.Wait()
}

// Publish сообщает о закоммиченном изменении состава (RosterFeed движка).
func (h *Hub) Publish(roomID string, count int) {
	h.Broadcast(roomID, Message{
		Type: TypeRosterChanged,
		Payload: RosterChangedPayload{
			RoomID:    roomID,
			Count:     count,
			Available: domain.Available(count),
		},
	})
}
