package dropzone

import (
	"math/rand"
	"testing"

	"github.com/reasonableperson/etrial-manager/types"
)

type overlayRecorder struct {
	calls []bool
}

func (r *overlayRecorder) set(active bool) {
	r.calls = append(r.calls, active)
}

func TestNestedEnterLeave(t *testing.T) {
	rec := &overlayRecorder{}
	tr := New(rec.set, nil)

	// parent, then child: the browser fires enter(child) before leave(parent)
	tr.OnDragEnter()
	tr.OnDragEnter()
	tr.OnDragLeave()
	if !tr.Active() || tr.Depth() != 1 {
		t.Fatalf("expected active at depth 1, got active=%v depth=%d", tr.Active(), tr.Depth())
	}
	tr.OnDragOver()
	tr.OnDragLeave()
	if tr.Active() || tr.Depth() != 0 {
		t.Fatalf("expected inactive at depth 0, got active=%v depth=%d", tr.Active(), tr.Depth())
	}
	if len(rec.calls) != 2 || rec.calls[0] != true || rec.calls[1] != false {
		t.Errorf("overlay should toggle exactly on and off, got %v", rec.calls)
	}
}

func TestBalancedSequencesReturnToZero(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		tr := New(nil, nil)
		n := r.Intn(20)
		enters, leaves := 0, 0
		for enters+leaves < 2*n {
			if enters < n && (enters == leaves || r.Intn(2) == 0) {
				tr.OnDragEnter()
				enters++
			} else {
				tr.OnDragLeave()
				leaves++
			}
			if tr.Depth() != enters-leaves {
				t.Fatalf("round %d: depth %d, want %d", round, tr.Depth(), enters-leaves)
			}
		}
		if tr.Depth() != 0 || tr.Active() {
			t.Fatalf("round %d: expected depth 0 and inactive, got depth=%d active=%v", round, tr.Depth(), tr.Active())
		}
	}
}

func TestStrayLeaveClampsAtZero(t *testing.T) {
	rec := &overlayRecorder{}
	tr := New(rec.set, nil)
	tr.OnDragLeave()
	tr.OnDragLeave()
	if tr.Depth() != 0 {
		t.Fatalf("depth went below zero: %d", tr.Depth())
	}
	if len(rec.calls) != 0 {
		t.Errorf("stray leave should not touch the overlay, got %v", rec.calls)
	}

	// a later session must behave normally
	tr.OnDragEnter()
	if !tr.Active() || tr.Depth() != 1 {
		t.Fatalf("expected fresh session at depth 1, got depth=%d", tr.Depth())
	}
	tr.OnDragLeave()
	if tr.Active() {
		t.Error("overlay stuck on after stray leaves")
	}
}

func TestDropForcesInactive(t *testing.T) {
	for _, enters := range []int{0, 1, 3, 7} {
		rec := &overlayRecorder{}
		var got []types.DroppedFile
		tr := New(rec.set, func(files []types.DroppedFile) {
			got = files
		})
		for i := 0; i < enters; i++ {
			tr.OnDragEnter()
		}
		files := []types.DroppedFile{{Name: "a.pdf"}, {Name: "b.pdf"}}
		tr.OnDrop(files)
		if tr.Active() || tr.Depth() != 0 {
			t.Errorf("enters=%d: expected inactive at depth 0 after drop, got depth=%d", enters, tr.Depth())
		}
		if len(got) != 2 {
			t.Errorf("enters=%d: drop callback got %d files", enters, len(got))
		}
		if enters > 0 && (len(rec.calls) != 2 || rec.calls[1] != false) {
			t.Errorf("enters=%d: expected show then hide, got %v", enters, rec.calls)
		}
	}
}

func TestDropHidesBeforeHandingOff(t *testing.T) {
	var tr *Tracker
	var activeAtDrop bool
	tr = New(nil, func([]types.DroppedFile) {
		activeAtDrop = tr.Active()
	})
	tr.OnDragEnter()
	tr.OnDrop(nil)
	if activeAtDrop {
		t.Error("overlay still active when files were handed to the coordinator")
	}
}
