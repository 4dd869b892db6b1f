package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// MaxPayloadSize is the largest notification written to the socket.
const MaxPayloadSize = 32 * 1024 // 32KB

// MaxNotifyTasks is how many tasks a batch_complete payload carries before it
// is truncated.
const MaxNotifyTasks = 20

// SocketTimeout bounds every dial, write and read on the socket.
var SocketTimeout = 3 * time.Second

// QueueSize is how many notifications may wait for delivery.
const QueueSize = 64

// Forwarder passes finished uploads and completed batches to a desktop helper
// listening on a Unix domain socket. Progress and task_added events are not
// forwarded; the helper only raises notifications. Delivery happens on a
// single background goroutine, in event order.
type Forwarder struct {
	socketPath string
	queue      chan *types.Notification
	stopped    chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ batch.Observer = (*Forwarder)(nil)

// NewForwarder returns nil when socketPath is empty, which disables
// forwarding.
func NewForwarder(socketPath string) *Forwarder {
	if socketPath == "" {
		return nil
	}
	f := &Forwarder{
		socketPath: socketPath,
		queue:      make(chan *types.Notification, QueueSize),
		stopped:    make(chan struct{}),
	}
	go f.deliver()
	return f
}

// Close stops accepting notifications and waits up to timeout for the queued
// ones to be delivered. Events observed after Close are ignored.
func (f *Forwarder) Close(timeout time.Duration) {
	if f == nil {
		return
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()
	select {
	case <-f.stopped:
	case <-time.After(timeout):
		tool.DefaultLogger.Warnf("Gave up waiting for %d desktop notification(s)", len(f.queue))
	}
}

func (f *Forwarder) deliver() {
	defer close(f.stopped)
	for n := range f.queue {
		if err := f.Send(n); err != nil {
			tool.DefaultLogger.Debugf("Desktop notification not delivered: %v", err)
		}
	}
}

// Observe implements batch.Observer. It never blocks; when the queue is full
// the notification is dropped.
func (f *Forwarder) Observe(ev batch.Event) {
	if f == nil {
		return
	}
	var n *types.Notification
	switch ev.Type {
	case types.NotifyTypeTaskFinished:
		if ev.Task.Error == "" {
			return
		}
		n = &types.Notification{
			Type:    ev.Type,
			Title:   "Upload failed",
			Message: fmt.Sprintf("%s: %s", ev.Task.Name, ev.Task.Error),
			Data:    map[string]any{"batchId": ev.BatchID, "task": ev.Task},
		}
	case types.NotifyTypeBatchComplete:
		n = batchCompleteNotification(ev.Batch)
	default:
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- n:
	default:
		tool.DefaultLogger.Warnf("Desktop notification queue full, dropping %s", n.Type)
	}
}

func batchCompleteNotification(info types.BatchInfo) *types.Notification {
	failed := 0
	for _, t := range info.Tasks {
		if t.State != batch.Succeeded.String() {
			failed++
		}
	}
	tasks := info.Tasks
	if len(tasks) > MaxNotifyTasks {
		tasks = tasks[:MaxNotifyTasks]
	}
	return &types.Notification{
		Type:    types.NotifyTypeBatchComplete,
		Title:   "Upload complete",
		Message: fmt.Sprintf("%d of %d files uploaded", info.Total-failed, info.Total),
		Data: map[string]any{
			"batchId":     info.ID,
			"totalFiles":  info.Total,
			"failedFiles": failed,
			"tasks":       tasks,
		},
	}
}

// Send writes one notification as a little-endian uint32 length followed by
// the JSON payload, then reads the helper's reply.
func (f *Forwarder) Send(n *types.Notification) error {
	if _, err := os.Stat(f.socketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", f.socketPath)
	}
	payload, err := sonic.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}

	conn, err := net.DialTimeout("unix", f.socketPath, SocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", f.socketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close unix socket connection: %v", err)
		}
	}()
	if err := conn.SetDeadline(time.Now().Add(SocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set socket deadline: %v", err)
	}

	frame := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}

	buf := make([]byte, 4096)
	nr, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read reply: %w", err)
	}
	if nr > 0 {
		var reply map[string]any
		if err := sonic.Unmarshal(buf[:nr], &reply); err != nil {
			tool.DefaultLogger.Debugf("Unix socket reply (raw): %s", buf[:nr])
		} else if msg, ok := reply["error"].(string); ok && msg != "" {
			return fmt.Errorf("helper returned error: %s", msg)
		}
	}
	tool.DefaultLogger.Infof("[UnixSocket] Notification sent: %s - %s", n.Type, n.Title)
	return nil
}
