package batch

import (
	"context"

	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// Batch is the set of tasks spawned by one drop event.
type Batch struct {
	id         string
	tasks      []*Task
	gate       *Gate
	observer   Observer
	onComplete func(b *Batch)
	done       chan struct{}
}

func (b *Batch) ID() string { return b.id }

// Tasks returns the tasks in drop order.
func (b *Batch) Tasks() []*Task {
	out := make([]*Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Task looks a task up by id.
func (b *Batch) Task(id string) (*Task, bool) {
	for _, t := range b.tasks {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// Outstanding returns how many tasks are still pending or in flight.
func (b *Batch) Outstanding() int {
	if b.gate == nil {
		return 0
	}
	return b.gate.Outstanding()
}

// Done is closed when the terminal action has run.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch completes or ctx ends.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count returns how many tasks ended in state s.
func (b *Batch) Count(s State) int {
	n := 0
	for _, t := range b.tasks {
		if t.State() == s {
			n++
		}
	}
	return n
}

// Info returns a snapshot of the batch and all of its tasks.
func (b *Batch) Info() types.BatchInfo {
	info := types.BatchInfo{
		ID:          b.id,
		Total:       len(b.tasks),
		Outstanding: b.Outstanding(),
		Tasks:       make([]types.TaskInfo, 0, len(b.tasks)),
	}
	select {
	case <-b.done:
		info.Complete = true
	default:
	}
	for _, t := range b.tasks {
		info.Tasks = append(info.Tasks, t.Info())
	}
	return info
}

// CancelAll cancels every task that has not finished yet.
func (b *Batch) CancelAll() {
	for _, t := range b.tasks {
		t.Cancel()
	}
}

func (b *Batch) emit(kind string, t *Task) {
	if b.observer == nil {
		return
	}
	b.observer.Observe(Event{Type: kind, BatchID: b.id, Task: t.Info()})
}

// complete is the gate's terminal action. It may run inside NewGate, before
// b.gate is assigned, so it must not touch the gate.
func (b *Batch) complete() {
	close(b.done)
	tool.DefaultLogger.Infof("Batch %s complete: %d succeeded, %d failed, %d cancelled",
		b.id, b.Count(Succeeded), b.Count(Failed), b.Count(Cancelled))
	if b.observer != nil {
		info := b.Info()
		info.Outstanding = 0
		b.observer.Observe(Event{Type: types.NotifyTypeBatchComplete, BatchID: b.id, Batch: info})
	}
	if b.onComplete != nil {
		b.onComplete(b)
	}
}
