package export

// State is a stage of one export run.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateExtracting
	StatePackaging
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateExtracting:
		return "extracting"
	case StatePackaging:
		return "packaging"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
