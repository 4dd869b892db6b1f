// Package view renders batch progress for the one-shot uploader.
package view

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/types"
)

const barWidth = 30

var (
	nameStyle      = lipgloss.NewStyle().Bold(true)
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	succeededStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cancelledStyle = lipgloss.NewStyle().Faint(true)
)

// Terminal prints one line per task transition. Progress lines are only
// written when the whole percentage changes.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	percent map[string]int
}

var _ batch.Observer = (*Terminal)(nil)

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w, percent: make(map[string]int)}
}

func (t *Terminal) Observe(ev batch.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Type {
	case types.NotifyTypeTaskAdded:
		t.percent[ev.Task.ID] = -1
		fmt.Fprintf(t.w, "%s (%s, %s)\n", nameStyle.Render(ev.Task.Name), fileType(ev.Task.Type), ev.Task.SizeLabel)
	case types.NotifyTypeTaskProgress:
		p := int(math.Floor(ev.Task.Progress * 100))
		if p == t.percent[ev.Task.ID] {
			return
		}
		t.percent[ev.Task.ID] = p
		fmt.Fprintf(t.w, "%s %s %3d%%\n", Bar(ev.Task.Progress), ev.Task.Name, p)
	case types.NotifyTypeTaskFinished:
		delete(t.percent, ev.Task.ID)
		fmt.Fprintln(t.w, finishedLine(ev.Task))
	case types.NotifyTypeBatchComplete:
		fmt.Fprintln(t.w, Summary(ev.Batch))
	}
}

// Bar renders fraction as a fixed-width progress bar.
func Bar(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(math.Round(fraction * barWidth))
	return barStyle.Render(strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled))
}

// Summary renders the closing line of a batch.
func Summary(info types.BatchInfo) string {
	var ok, failed, cancelled int
	for _, task := range info.Tasks {
		switch task.State {
		case batch.Succeeded.String():
			ok++
		case batch.Failed.String():
			failed++
		case batch.Cancelled.String():
			cancelled++
		}
	}
	return fmt.Sprintf("%d file(s): %s, %s, %s", info.Total,
		succeededStyle.Render(fmt.Sprintf("%d uploaded", ok)),
		failedStyle.Render(fmt.Sprintf("%d failed", failed)),
		cancelledStyle.Render(fmt.Sprintf("%d cancelled", cancelled)))
}

func finishedLine(task types.TaskInfo) string {
	switch task.State {
	case batch.Succeeded.String():
		return succeededStyle.Render("✓ " + task.Name)
	case batch.Failed.String():
		return failedStyle.Render("✗ " + task.Name + ": " + task.Error)
	default:
		return cancelledStyle.Render("- " + task.Name + " cancelled")
	}
}

func fileType(t string) string {
	if t == "" {
		return "unknown type"
	}
	return t
}
