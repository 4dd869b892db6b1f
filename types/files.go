package types

import (
	"bytes"
	"io"
	"os"
)

// DroppedFile is one file delivered by a drop event. The payload is read-only
// and is either held in memory (Data) or read from Path on demand.
type DroppedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
	Data []byte `json:"-"`
}

// Open returns a reader over the file payload.
func (f DroppedFile) Open() (io.ReadCloser, error) {
	if f.Data != nil || f.Path == "" {
		return io.NopCloser(bytes.NewReader(f.Data)), nil
	}
	return os.Open(f.Path)
}

// FileInput is a file reference sent by a page or the self API.
type FileInput struct {
	Path    string `json:"path,omitempty"`
	FileUrl string `json:"fileUrl,omitempty"` // file:///abs/path, same as Path
}
