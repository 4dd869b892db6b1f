package batch

// State is the lifecycle state of one upload task.
type State int

const (
	Pending State = iota
	InFlight
	Succeeded
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the task no longer counts as outstanding.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Cancelled
}
