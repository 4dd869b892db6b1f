// Package dropzone turns a stream of drag events into a single "drop zone
// active" signal.
//
// Crossing into a child element of the drop target fires a leave on the parent
// followed by an enter on the child, so showing and hiding the overlay on every
// event flickers. Tracker counts nesting depth instead and only reports the
// 0->1 and 1->0 transitions.
package dropzone

import (
	"sync"

	"github.com/reasonableperson/etrial-manager/types"
)

// OverlayFunc is called with the new visibility whenever it changes.
type OverlayFunc func(active bool)

// DropFunc receives the files of a drop after the overlay has been hidden.
type DropFunc func(files []types.DroppedFile)

// Tracker holds the drag session of one page.
type Tracker struct {
	mu      sync.Mutex
	depth   int
	active  bool
	overlay OverlayFunc
	onDrop  DropFunc
}

// New returns a Tracker with depth 0. Either callback may be nil.
func New(overlay OverlayFunc, onDrop DropFunc) *Tracker {
	return &Tracker{overlay: overlay, onDrop: onDrop}
}

// OnDragEnter increments depth and shows the overlay on 0->1.
func (t *Tracker) OnDragEnter() {
	t.mu.Lock()
	t.depth++
	changed := t.setActive(t.depth > 0)
	t.mu.Unlock()
	t.notify(changed, true)
}

// OnDragLeave decrements depth, clamped at 0, and hides the overlay on 1->0.
// A stray leave without a matching enter is ignored.
func (t *Tracker) OnDragLeave() {
	t.mu.Lock()
	if t.depth > 0 {
		t.depth--
	}
	changed := t.setActive(t.depth > 0)
	t.mu.Unlock()
	t.notify(changed, false)
}

// OnDragOver exists so callers route every drag event through the tracker.
// It never changes state; its only job in a browser is suppressing the default
// navigate-to-file behaviour, which the page does itself.
func (t *Tracker) OnDragOver() {}

// OnDrop ends the session: depth is forced to 0 and the overlay hidden
// whatever the counter said, then files are handed to the drop callback.
func (t *Tracker) OnDrop(files []types.DroppedFile) {
	t.mu.Lock()
	t.depth = 0
	changed := t.setActive(false)
	t.mu.Unlock()
	t.notify(changed, false)
	if t.onDrop != nil {
		t.onDrop(files)
	}
}

// Depth returns the current nesting depth.
func (t *Tracker) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.depth
}

// Active reports whether the overlay is currently shown.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tracker) setActive(active bool) bool {
	if t.active == active {
		return false
	}
	t.active = active
	return true
}

func (t *Tracker) notify(changed, active bool) {
	if changed && t.overlay != nil {
		t.overlay(active)
	}
}
