package notifyhub

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/reasonableperson/etrial-manager/dropzone"
	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: checkOrigin,
}

// checkOrigin admits non-browser clients (no Origin) and pages served from
// this host or from loopback.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// DropFunc starts a batch for the files of one drop.
type DropFunc func(files []types.DroppedFile)

// HandleNotifyWS upgrades the request to WebSocket and runs a page session on
// it: drag events from the page drive a dropzone.Tracker whose overlay changes
// are sent back to that page, and a drop starts a batch through onDrop.
func HandleNotifyWS(hub *Hub, onDrop DropFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			tool.DefaultLogger.Warnf("Page session rejected from origin %q: %v", c.GetHeader("Origin"), err)
			return
		}
		defer conn.Close()

		hub.Register(conn)
		defer hub.Unregister(conn)

		tracker := dropzone.New(func(active bool) {
			if err := hub.Send(conn, &types.Notification{
				Type: types.NotifyTypeOverlay,
				Data: map[string]any{"active": active},
			}); err != nil {
				tool.DefaultLogger.Debugf("Failed to send overlay state: %v", err)
			}
		}, func(files []types.DroppedFile) {
			if onDrop != nil {
				onDrop(files)
			}
		})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg types.PageMessage
			if err := sonic.Unmarshal(data, &msg); err != nil {
				tool.DefaultLogger.Warnf("Ignoring malformed page message: %v", err)
				continue
			}
			switch msg.Type {
			case "dragenter":
				tracker.OnDragEnter()
			case "dragleave":
				tracker.OnDragLeave()
			case "dragover":
				tracker.OnDragOver()
			case "drop":
				tracker.OnDrop(resolveDropped(hub, conn, msg.Data.Files))
			default:
				tool.DefaultLogger.Debugf("Ignoring page message of type %q", msg.Type)
			}
		}
	}
}

// resolveDropped stats every dropped path. Files that cannot be read are
// reported to the page and left out of the batch.
func resolveDropped(hub *Hub, conn *websocket.Conn, inputs []types.FileInput) []types.DroppedFile {
	files := make([]types.DroppedFile, 0, len(inputs))
	for _, in := range inputs {
		f, err := tool.ResolveFileInput(in)
		if err != nil {
			tool.DefaultLogger.Warnf("Skipping dropped file %q: %v", in.Path+in.FileUrl, err)
			_ = hub.Send(conn, &types.Notification{
				Type:    types.NotifyTypeTaskFinished,
				Title:   in.Path + in.FileUrl,
				Message: err.Error(),
				Data:    map[string]any{"task": types.TaskInfo{Name: in.Path + in.FileUrl, State: "failed", Error: err.Error()}},
			})
			continue
		}
		files = append(files, f)
	}
	return files
}
