package batch

import "github.com/reasonableperson/etrial-manager/types"

// Event is one state change of a batch or one of its tasks. Type is one of the
// types.NotifyType* task/batch constants.
type Event struct {
	Type    string
	BatchID string
	Task    types.TaskInfo
	Batch   types.BatchInfo
}

// Observer binds a view to task transitions. Observe is called from the
// goroutines running the uploads, so implementations must be safe for
// concurrent use.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

// Observers fans one event out to several observers in order.
type Observers []Observer

func (o Observers) Observe(ev Event) {
	for _, ob := range o {
		if ob != nil {
			ob.Observe(ev)
		}
	}
}
