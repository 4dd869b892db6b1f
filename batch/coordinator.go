// Package batch coordinates the uploads spawned by one drop event and signals
// once, after the last of them has finished.
package batch

import (
	"context"
	"time"

	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// ProgressFunc receives byte-level transfer progress. total <= 0 means the
// length is unknown.
type ProgressFunc func(loaded, total int64)

// Uploader transmits one file. It returns nil only when the backend accepted
// the upload.
type Uploader interface {
	Upload(ctx context.Context, file types.DroppedFile, progress ProgressFunc) error
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, file types.DroppedFile, progress ProgressFunc) error

func (f UploaderFunc) Upload(ctx context.Context, file types.DroppedFile, progress ProgressFunc) error {
	return f(ctx, file, progress)
}

// Config configures a Coordinator.
type Config struct {
	// Observer sees every task and batch transition. Optional.
	Observer Observer
	// OnComplete is the terminal action of every batch. Optional.
	OnComplete func(b *Batch)
	// TaskTimeout bounds each upload. Zero means no limit, so a stalled
	// transfer keeps its batch open indefinitely.
	TaskTimeout time.Duration
}

// Coordinator starts batches against one Uploader.
type Coordinator struct {
	uploader Uploader
	cfg      Config
}

func NewCoordinator(uploader Uploader, cfg Config) *Coordinator {
	return &Coordinator{uploader: uploader, cfg: cfg}
}

// StartBatch creates one Pending task per file, registers all of them with a
// fresh gate and only then starts the uploads, concurrently. The returned
// batch needs no further action from the caller. ctx bounds every upload of
// the batch.
func (c *Coordinator) StartBatch(ctx context.Context, files []types.DroppedFile) *Batch {
	b := &Batch{
		id:         tool.GenerateRandomUUID(),
		observer:   c.cfg.Observer,
		onComplete: c.cfg.OnComplete,
		done:       make(chan struct{}),
		tasks:      make([]*Task, 0, len(files)),
	}
	for _, f := range files {
		var tctx context.Context
		var cancel context.CancelFunc
		if c.cfg.TaskTimeout > 0 {
			tctx, cancel = context.WithTimeout(ctx, c.cfg.TaskTimeout)
		} else {
			tctx, cancel = context.WithCancel(ctx)
		}
		b.tasks = append(b.tasks, &Task{
			id:     tool.GenerateRandomUUID(),
			file:   f,
			batch:  b,
			ctx:    tctx,
			cancel: cancel,
			state:  Pending,
		})
	}
	tool.DefaultLogger.Infof("Starting batch %s with %d file(s)", b.id, len(b.tasks))
	for _, t := range b.tasks {
		b.emit(types.NotifyTypeTaskAdded, t)
	}

	// The gate must hold the full count before the first upload can finish.
	b.gate = NewGate(len(b.tasks), b.complete)

	for _, t := range b.tasks {
		go c.run(t)
	}
	return b
}

func (c *Coordinator) run(t *Task) {
	defer t.cancel()
	if !t.begin() {
		return
	}
	tool.DefaultLogger.Debugf("Uploading %s (%s, %s)", t.file.Name, t.file.Type, tool.FormatKiB(t.file.Size))
	sink := &Sink{task: t}
	sink.Complete(c.uploader.Upload(t.ctx, t.file, sink.Progress))
}
