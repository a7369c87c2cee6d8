// Package hub owns the chat room's shared state: the ordered message
// history and the set of live WebSocket connections. All mutations are
// serialized through a single run loop, so no two hub operations ever
// interleave.
package hub

import (
	"context"
	"log/slog"

	"github.com/devendrajoshi/smartchat/internal/chat"
)

type broadcastRequest struct {
	msg  chat.Message
	done chan struct{}
}

// Hub maintains the set of active clients, the append-only message
// history, and fans every accepted message out to all live clients.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastRequest
	snapshot   chan chan []chat.Message
	done       chan struct{}

	// Owned exclusively by the Run goroutine.
	clients map[*Client]bool
	history []chat.Message
}

// New creates a Hub. Call Run in its own goroutine before using it.
func New() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastRequest),
		snapshot:   make(chan chan []chat.Message),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the hub's processing loop. It must be run in a separate
// goroutine and exits when ctx is cancelled. After it returns, the
// exported hub operations become no-ops instead of blocking.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			// Hand the client a snapshot of history taken at the moment of
			// registration. The client writes the snapshot out before any
			// live frame, and live deliveries only start after this point,
			// so each message is seen exactly once: in the snapshot or as a
			// live delivery, never both. History can be far larger than the
			// send buffer; the snapshot channel is not capacity-limited.
			frames := make([][]byte, len(h.history))
			for i, msg := range h.history {
				frames[i] = msg.Encode()
			}
			client.replay <- frames
			slog.Info("Client registered", "client_id", client.ID, "total_clients", len(h.clients), "replayed", len(h.history))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				slog.Info("Client unregistered", "client_id", client.ID, "total_clients", len(h.clients))
			}

		case req := <-h.broadcast:
			h.history = append(h.history, req.msg)
			frame := req.msg.Encode()
			for client := range h.clients {
				h.deliver(client, frame)
			}
			close(req.done)

		case reply := <-h.snapshot:
			snap := make([]chat.Message, len(h.history))
			copy(snap, h.history)
			reply <- snap
		}
	}
}

// deliver queues a frame for one client without blocking the loop. A
// client whose buffer is full is assumed dead or stuck and is evicted;
// delivery to the remaining clients is unaffected.
func (h *Hub) deliver(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		delete(h.clients, client)
		close(client.send)
		slog.Warn("Evicting slow client", "client_id", client.ID, "total_clients", len(h.clients))
	}
}

// Register adds a client to the live set and hands it the full current
// history to replay in order. No-op once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the live set. Idempotent: the second
// and later calls for the same client are no-ops.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast appends msg to history and delivers it to every live client.
// It returns once the hub has processed the message, so a subsequent
// History call is guaranteed to include it. After the hub has stopped it
// returns immediately without delivering, so late callers (an assistant
// reply finishing its backend call during shutdown) never hang.
func (h *Hub) Broadcast(msg chat.Message) {
	req := broadcastRequest{msg: msg, done: make(chan struct{})}
	select {
	case h.broadcast <- req:
		<-req.done
	case <-h.done:
	}
}

// History returns a copy of the ordered message history, or nil once the
// hub has stopped.
func (h *Hub) History() []chat.Message {
	reply := make(chan []chat.Message)
	select {
	case h.snapshot <- reply:
		return <-reply
	case <-h.done:
		return nil
	}
}
