package types

// UploadBatchRequest starts one batch from the self API.
type UploadBatchRequest struct {
	Files []FileInput `json:"files"`
}

// TaskInfo is the externally visible view of one upload task.
type TaskInfo struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Size      int64   `json:"size"`
	SizeLabel string  `json:"sizeLabel"`
	Type      string  `json:"type"`
	State     string  `json:"state"`
	Progress  float64 `json:"progress"`
	Error     string  `json:"error,omitempty"`
}

// BatchInfo is the externally visible view of one batch.
type BatchInfo struct {
	ID          string     `json:"batchId"`
	Total       int        `json:"total"`
	Outstanding int        `json:"outstanding"`
	Complete    bool       `json:"complete"`
	Tasks       []TaskInfo `json:"tasks"`
}
