package batch

import (
	"context"
	"errors"
	"sync"

	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// ErrCancelled is the error recorded on a task cancelled by the user.
var ErrCancelled = errors.New("upload cancelled")

// Task is the upload of one file. It is owned by the batch that created it and
// only changes state through its methods.
type Task struct {
	id    string
	file  types.DroppedFile
	batch *Batch

	ctx    context.Context
	cancel context.CancelFunc

	// emitMu orders this task's progress and finished events, so no progress
	// event follows task_finished.
	emitMu sync.Mutex

	mu       sync.Mutex
	state    State
	progress float64
	err      error
}

func (t *Task) ID() string              { return t.id }
func (t *Task) File() types.DroppedFile { return t.file }

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress returns the last applied fraction in [0,1].
func (t *Task) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Err returns why the task failed or was cancelled.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel moves a pending or in-flight task to Cancelled, frees its slot in the
// batch gate immediately and aborts the transmission. It reports false if the
// task had already finished.
func (t *Task) Cancel() bool {
	ok := t.finish(Cancelled, ErrCancelled)
	t.cancel()
	return ok
}

// Info returns a snapshot for views and API responses.
func (t *Task) Info() types.TaskInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	info := types.TaskInfo{
		ID:        t.id,
		Name:      t.file.Name,
		Size:      t.file.Size,
		SizeLabel: tool.FormatKiB(t.file.Size),
		Type:      t.file.Type,
		State:     t.state.String(),
		Progress:  t.progress,
	}
	if t.err != nil {
		info.Error = t.err.Error()
	}
	return info
}

// begin moves Pending to InFlight. It fails if the task was cancelled before
// its goroutine got to run.
func (t *Task) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		return false
	}
	t.state = InFlight
	return true
}

// setProgress applies fraction and emits task_progress while the task is in
// flight.
func (t *Task) setProgress(fraction float64) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if t.state != InFlight {
		t.mu.Unlock()
		return
	}
	t.progress = fraction
	t.mu.Unlock()

	t.batch.emit(types.NotifyTypeTaskProgress, t)
}

// finish records a terminal state. Only the first call wins; it alone emits
// the event and notifies the gate.
func (t *Task) finish(state State, err error) bool {
	t.emitMu.Lock()
	t.mu.Lock()
	if t.state.Terminal() {
		t.mu.Unlock()
		t.emitMu.Unlock()
		return false
	}
	t.state = state
	t.err = err
	if state == Succeeded {
		t.progress = 1
	}
	t.mu.Unlock()
	t.batch.emit(types.NotifyTypeTaskFinished, t)
	t.emitMu.Unlock()

	t.batch.gate.NotifyOne()
	return true
}
