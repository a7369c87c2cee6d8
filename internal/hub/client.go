package hub

import (
	"context"
	"log/slog"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/devendrajoshi/smartchat/internal/chat"
)

// Responder produces the assistant's reply to an addressed question. It
// is satisfied by assistant.Pipeline.
type Responder interface {
	Username() string
	Answer(ctx context.Context, history []chat.Message, question string) string
}

// Client is a middleman between one WebSocket connection and the hub.
type Client struct {
	ID   string
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	// replay carries the one history snapshot the hub hands over at
	// registration. Buffered so the hub loop never blocks on it.
	replay chan [][]byte

	detector  *chat.Detector
	responder Responder
}

// NewClient wraps an accepted WebSocket connection. detector and
// responder may be nil, which disables assistant dispatch for this
// connection.
func NewClient(h *Hub, conn *websocket.Conn, detector *chat.Detector, responder Responder) *Client {
	return &Client{
		ID:        uuid.NewString(),
		conn:      conn,
		hub:       h,
		send:      make(chan []byte, 256),
		replay:    make(chan [][]byte, 1),
		detector:  detector,
		responder: responder,
	}
}

// Start runs the write pump, registers the client with the hub (which
// hands over the history snapshot to replay), then runs the read pump.
func (c *Client) Start() {
	go c.writePump()
	c.hub.Register(c)
	go c.readPump()
}

// readPump pumps messages from the WebSocket connection to the hub.
//
// The application runs one readPump per connection. It ensures that there
// is at most one reader on a connection by executing all reads from this
// goroutine.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, frame, err := c.conn.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally", "client_id", c.ID)
			} else {
				slog.Warn("readPump error", "client_id", c.ID, "error", err)
			}
			return
		}

		msg, err := chat.ParseMessage(frame)
		if err != nil {
			// A malformed frame is fatal for the connection, not a
			// recoverable per-message error.
			slog.Warn("Dropping connection on malformed frame", "client_id", c.ID, "error", err)
			c.conn.Close(websocket.StatusUnsupportedData, "malformed message frame")
			return
		}

		// The sender's message becomes visible to everyone, including the
		// asker, before the assistant pipeline starts.
		c.hub.Broadcast(msg)

		if c.detector == nil || c.responder == nil {
			continue
		}
		if question, ok := c.detector.Question(msg.Text); ok {
			go c.dispatchAssistant(question)
		}
	}
}

// dispatchAssistant runs the pipeline for one addressed question and
// broadcasts the reply as a new assistant-authored message. It runs in
// its own goroutine so the multi-second pipeline latency never blocks
// this connection's reads or the hub.
func (c *Client) dispatchAssistant(question string) {
	history := c.hub.History()
	reply := c.responder.Answer(context.Background(), history, question)
	c.hub.Broadcast(chat.NewMessage(c.responder.Username(), reply))
}

// writePump pumps messages from the hub to the WebSocket connection.
//
// A goroutine running writePump is started for each connection; it is the
// connection's only writer. It first writes out the history snapshot
// received at registration, then drains live frames; live frames queued
// during the replay wait their turn in send, so the client sees history
// and new traffic in order with no gaps or duplicates. It exits when the
// hub closes the send channel or a write fails.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	select {
	case frames := <-c.replay:
		for _, frame := range frames {
			if err := c.conn.Write(context.Background(), websocket.MessageText, frame); err != nil {
				slog.Warn("writePump error", "client_id", c.ID, "error", err)
				return
			}
		}
	case <-c.hub.done:
		return
	}

	for frame := range c.send {
		if err := c.conn.Write(context.Background(), websocket.MessageText, frame); err != nil {
			slog.Warn("writePump error", "client_id", c.ID, "error", err)
			return
		}
	}
}
