package executor

// State is a node's position in the execution state machine.
type State int32

const (
	Pending State = iota
	ResolvingInputs
	Fingerprinting
	CacheHit
	Computing
	Publishing
	Done
	Failed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case ResolvingInputs:
		return "resolving-inputs"
	case Fingerprinting:
		return "fingerprinting"
	case CacheHit:
		return "cache-hit"
	case Computing:
		return "computing"
	case Publishing:
		return "publishing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
