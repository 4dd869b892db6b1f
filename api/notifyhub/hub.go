package notifyhub

import (
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// SendBuffer is how many notifications are queued per page.
const SendBuffer = 256

// DefaultWriteWait bounds a single websocket write.
const DefaultWriteWait = 5 * time.Second

var errClientClosed = errors.New("page connection closed")

// client owns one connection. Notifications are queued on send and written by
// writeLoop, so a page that stops reading never blocks the caller.
type client struct {
	conn      *websocket.Conn
	writeWait time.Duration
	send      chan []byte
	done      chan struct{}
	once      sync.Once
}

func newClient(conn *websocket.Conn, writeWait time.Duration) *client {
	c := &client{
		conn:      conn,
		writeWait: writeWait,
		send:      make(chan []byte, SendBuffer),
		done:      make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// enqueue never blocks. When the queue is full a droppable notification is
// discarded; anything else closes the connection.
func (c *client) enqueue(payload []byte, droppable bool) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		if droppable {
			return nil
		}
		tool.DefaultLogger.Warnf("Page %s is not reading, disconnecting", c.conn.RemoteAddr())
		c.close()
		return errClientClosed
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
				c.close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				tool.DefaultLogger.Debugf("Failed to write notification to %s: %v", c.conn.RemoteAddr(), err)
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

// Hub holds the websocket connections of open pages and broadcasts
// notifications to all of them. It implements batch.Observer, which makes it
// the view binding of every batch started by the server.
type Hub struct {
	// WriteWait bounds each write to a page; a page that does not read is
	// disconnected once it expires.
	WriteWait time.Duration

	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
}

var _ batch.Observer = (*Hub)(nil)

// New creates a new notify hub.
func New() *Hub {
	return &Hub{
		WriteWait: DefaultWriteWait,
		clients:   make(map[*websocket.Conn]*client),
	}
}

// Register adds a WebSocket connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = newClient(conn, h.WriteWait)
}

// Unregister removes a WebSocket connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Len returns the number of connected pages.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues the notification as JSON for all registered connections.
// It never waits on a page.
func (h *Hub) Broadcast(notification *types.Notification) {
	h.broadcast(notification, false)
}

func (h *Hub) broadcast(notification *types.Notification, droppable bool) {
	if notification == nil {
		return
	}
	payload, err := sonic.Marshal(notification)
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to encode notification %s: %v", notification.Type, err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		_ = c.enqueue(payload, droppable)
	}
}

// Send queues a notification for one connection only.
func (h *Hub) Send(conn *websocket.Conn, notification *types.Notification) error {
	h.mu.RLock()
	c, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	payload, err := sonic.Marshal(notification)
	if err != nil {
		return err
	}
	return c.enqueue(payload, false)
}

// Reload tells every page to refetch its view.
func (h *Hub) Reload(reason string) {
	h.Broadcast(&types.Notification{Type: types.NotifyTypeReload, Message: reason})
}

// Observe converts batch events to notifications. Progress is lossy for a page
// that falls behind; every other event is delivered or the page is dropped.
func (h *Hub) Observe(ev batch.Event) {
	n := &types.Notification{
		Type: ev.Type,
		Data: map[string]any{"batchId": ev.BatchID},
	}
	if ev.Type == types.NotifyTypeBatchComplete {
		n.Data["batch"] = ev.Batch
	} else {
		n.Title = ev.Task.Name
		n.Data["task"] = ev.Task
		if ev.Task.Error != "" {
			n.Message = ev.Task.Error
		}
	}
	h.broadcast(n, ev.Type == types.NotifyTypeTaskProgress)
}
