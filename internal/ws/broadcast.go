package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/consolewatch/backend/internal/activity"
	"github.com/gorilla/websocket"
)

// ErrTooManyClients is returned by AddClient when the connection limit
// is reached.
var ErrTooManyClients = errors.New("ws: connection limit reached")

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster pushes merged snapshots to every connected WebSocket
// client. New clients immediately receive the latest known snapshot so
// a dashboard renders without waiting for the next transition.
type Broadcaster struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	latest     activity.Snapshot
	hasLatest  bool
	maxClients int
	closed     bool
}

func NewBroadcaster(maxClients int) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*client]bool),
		maxClients: maxClients,
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errors.New("ws: broadcaster closed")
	}
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		b.mu.Unlock()
		return nil, ErrTooManyClients
	}
	c := newClient(conn)
	b.clients[c] = true
	latest, ok := b.latest, b.hasLatest
	b.mu.Unlock()

	if ok {
		msg := WSMessage{
			Type:    MsgSnapshot,
			Payload: SnapshotPayload{Snapshot: latest},
		}
		data, _ := json.Marshal(msg)
		select {
		case c.send <- data:
		default:
			// Client too slow, drop the snapshot
		}
	}

	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Publish records snap as the latest state and sends it to all clients.
func (b *Broadcaster) Publish(snap activity.Snapshot) {
	b.mu.Lock()
	b.latest = snap
	b.hasLatest = true
	b.mu.Unlock()

	b.broadcast(WSMessage{
		Type:    MsgUpdate,
		Payload: SnapshotPayload{Snapshot: snap},
	})
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ws] broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it
			log.Printf("[ws] client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

// Latest returns the most recently published snapshot.
func (b *Broadcaster) Latest() (activity.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest, b.hasLatest
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
}
