package task

// State is the lifecycle position of a Task. States only move forward.
type State int32

const (
	Idle State = iota
	Encoding
	Connected
	Sending
	AwaitingResponse
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Encoding:
		return "encoding"
	case Connected:
		return "connected"
	case Sending:
		return "sending"
	case AwaitingResponse:
		return "awaiting-response"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
