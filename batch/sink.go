package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/reasonableperson/etrial-manager/tool"
)

// Sink receives the byte-level progress and the outcome of one task's
// transmission.
type Sink struct {
	task *Task
}

// Progress applies loaded/total as the task's progress fraction. Events with
// an unknown or zero total are skipped.
func (s *Sink) Progress(loaded, total int64) {
	if total <= 0 {
		return
	}
	fraction := float64(loaded) / float64(total)
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	s.task.setProgress(fraction)
}

// Complete records the outcome. A failed upload still counts towards batch
// completion.
func (s *Sink) Complete(err error) {
	t := s.task
	if err == nil {
		t.finish(Succeeded, nil)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("upload timed out: %w", err)
	}
	if t.finish(Failed, err) {
		tool.DefaultLogger.Errorf("Upload of %s failed: %v", t.file.Name, err)
	}
}
