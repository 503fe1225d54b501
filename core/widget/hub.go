package widget

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/conversations"
)

const (
	sendBufferSize = 64
	writeTimeout   = 5 * time.Second
)

// Hub fans server messages out to every connected widget.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Clients reports the number of connected widgets.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to marshal widget message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(data)
	}
}

// PublishTranscript sends the transcript to every widget. It matches
// conversations.WithChangeCallback.
func (h *Hub) PublishTranscript(records []conversations.Record) {
	h.broadcast(transcriptMessage(records))
}

// Status sends a textual status line; it serves as the avatar fallback
// indicator.
func (h *Hub) Status(text string) {
	h.broadcast(statusMessage(text))
}

// SetAnimationState implements avatar.Renderer on top of the widget's
// avatar.
func (h *Hub) SetAnimationState(state avatar.State) error {
	h.broadcast(animationMessage(state))
	return nil
}

func (h *Hub) SetMouthOpen(open float64) error {
	h.broadcast(mouthMessage(open))
	return nil
}

func (c *client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		logger.Warn("widget client too slow, dropping message")
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warn("widget write failed", "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
