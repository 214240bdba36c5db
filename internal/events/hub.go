package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/wanderplan/internal/models"
)

const (
	// events buffered per client before it is considered too slow and dropped
	sendQueue = 16
	writeWait = 10 * time.Second
)

// Client is one connected change-feed subscriber. *websocket.Conn satisfies it.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// peer is a subscribed client with its own send queue and writer goroutine.
type peer struct {
	client   Client
	owner    string
	send     chan []byte
	quit     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func (p *peer) stop() {
	p.once.Do(func() {
		close(p.quit)
		p.client.Close()
	})
}

type envelope struct {
	owner string
	data  []byte
}

// Hub fans itinerary change events out to the websocket clients of the
// owner that made the change. No network write happens under mu.
type Hub struct {
	mu        sync.RWMutex
	clients   map[Client]*peer
	closed    bool
	broadcast chan envelope
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[Client]*peer),
		broadcast: make(chan envelope, 256),
	}
}

// Run dispatches published events until ctx is done. It closes every client
// on exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			h.closed = true
			peers := make([]*peer, 0, len(h.clients))
			for client, p := range h.clients {
				peers = append(peers, p)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			for _, p := range peers {
				p.stop()
			}
			log.Printf("🔌 [EVENTS] hub stopped, %d clients closed", len(peers))
			return

		case msg := <-h.broadcast:
			for _, p := range h.peersOf(msg.owner) {
				select {
				case p.send <- msg.data:
				default:
					log.Printf("⚠️ [EVENTS] client too slow, dropping owner=%s", p.owner)
					h.remove(p.client)
				}
			}
		}
	}
}

// Subscribe registers client for the events of owner. On a stopped hub the
// client is closed right away.
func (h *Hub) Subscribe(owner string, client Client) {
	p := &peer{
		client:   client,
		owner:    owner,
		send:     make(chan []byte, sendQueue),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		client.Close()
		return
	}
	h.clients[client] = p
	total := len(h.clients)
	h.mu.Unlock()

	go h.writeLoop(p)
	log.Printf("🔌 [EVENTS] client connected owner=%s total=%d", owner, total)
}

// Unsubscribe removes and closes client, then waits (bounded) for its writer
// to finish so the connection can be released.
func (h *Hub) Unsubscribe(client Client) {
	p := h.remove(client)
	if p == nil {
		return
	}
	select {
	case <-p.finished:
	case <-time.After(writeWait):
	}
}

// Publish queues ev for the owner's clients. It never blocks: when the
// queue is full the event is dropped.
func (h *Hub) Publish(ev models.ChangeEvent) {
	if h.ClientCount(ev.OwnerID) == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENTS] encode %s: %v", ev.Type, err)
		return
	}
	select {
	case h.broadcast <- envelope{owner: ev.OwnerID, data: data}:
	default:
		log.Printf("⚠️ [EVENTS] queue full, dropped %s trip=%s", ev.Type, ev.TripID)
	}
}

// ClientCount returns the number of clients subscribed for owner.
func (h *Hub) ClientCount(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, p := range h.clients {
		if p.owner == owner {
			n++
		}
	}
	return n
}

func (h *Hub) peersOf(owner string) []*peer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*peer
	for _, p := range h.clients {
		if p.owner == owner {
			out = append(out, p)
		}
	}
	return out
}

// remove deletes client and stops its peer. It returns nil when the client
// was not subscribed anymore.
func (h *Hub) remove(client Client) *peer {
	h.mu.Lock()
	p, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	p.stop()
	log.Printf("🔌 [EVENTS] client disconnected total=%d", total)
	return p
}

func (h *Hub) writeLoop(p *peer) {
	defer close(p.finished)
	for {
		select {
		case <-p.quit:
			return
		case data := <-p.send:
			if d, ok := p.client.(deadliner); ok {
				_ = d.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if err := p.client.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[EVENTS] write failed, dropping client: %v", err)
				h.remove(p.client)
				return
			}
		}
	}
}

// Serve is the websocket handler. The authenticated user id is expected in
// the "user_id" local, set by the upgrade middleware.
func (h *Hub) Serve(conn *websocket.Conn) {
	owner, _ := conn.Locals("user_id").(string)
	if owner == "" {
		conn.Close()
		return
	}
	h.Subscribe(owner, conn)
	defer h.Unsubscribe(conn)

	// the feed is one-way; reading only detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
