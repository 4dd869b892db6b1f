package types

// Notification types broadcast to connected pages.
const (
	NotifyTypeOverlay       = "overlay"
	NotifyTypeTaskAdded     = "task_added"
	NotifyTypeTaskProgress  = "task_progress"
	NotifyTypeTaskFinished  = "task_finished"
	NotifyTypeBatchComplete = "batch_complete"
	NotifyTypeReload        = "reload"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "task_progress", "reload", etc.
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

// PageMessage is a message sent by a page over its websocket session.
type PageMessage struct {
	Type string `json:"type"` // dragenter, dragleave, dragover, drop
	Data struct {
		Files []FileInput `json:"files,omitempty"`
	} `json:"data"`
}
