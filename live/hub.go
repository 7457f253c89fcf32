// Package live pushes vote updates to browsers watching a contest
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

const MsgVoteCast = "vote.cast"

// Message is sent to every client watching Contest.
type Message struct {
	Type     string `json:"type"`
	Contest  string `json:"contest"`
	Category string `json:"category"`
	PhotoID  int64  `json:"photo_id"`
	Votes    int    `json:"votes"`
}

// Hub tracks websocket clients per contest. Run owns the client sets; everything else talks to
// it through channels.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu    sync.RWMutex
	count map[string]int
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		count:      make(map[string]int),
	}
}

// Run processes registrations and broadcasts until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.mu.Lock()
			clear(h.count)
			h.mu.Unlock()
			return

		case client := <-h.register:
			if h.clients[client.contest] == nil {
				h.clients[client.contest] = make(map[*Client]struct{})
			}
			h.clients[client.contest][client] = struct{}{}
			h.setCount(client.contest)

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				slog.Error("failed to marshal live message", "type", msg.Type, "error", err)
				continue
			}
			for client := range h.clients[msg.Contest] {
				select {
				case client.send <- payload:
				default:
					slog.Warn("dropping slow live client", "contest", msg.Contest)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.contest]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.contest)
	}
	h.setCount(client.contest)
}

func (h *Hub) setCount(contest string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.clients[contest]); n > 0 {
		h.count[contest] = n
	} else {
		delete(h.count, contest)
	}
}

// join and leave give up once Run has returned.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues msg for delivery. It never blocks; when the queue is full the message is dropped.
func (h *Hub) Publish(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		slog.Warn("live broadcast queue full, dropping message", "contest", msg.Contest, "type", msg.Type)
	}
}

// VoteCast publishes the new vote count of photoID in category.
func (h *Hub) VoteCast(contest, category string, photoID int64, votes int) {
	h.Publish(Message{
		Type:     MsgVoteCast,
		Contest:  contest,
		Category: category,
		PhotoID:  photoID,
		Votes:    votes,
	})
}

// Watchers returns the number of clients connected to contest.
func (h *Hub) Watchers(contest string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count[contest]
}
