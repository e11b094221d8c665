package core

// State is the lifecycle state of a Context
type State int32

const (
	// StateRunning accepts and sends frames
	StateRunning State = iota
	// StateClosing keeps working until no request is in flight, then closes
	StateClosing
	// StateClosed stops polling, nothing can be sent anymore
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RequestState is the lifecycle state of an InboundRequest
type RequestState uint8

const (
	RequestActive RequestState = iota
	RequestCompleted
	RequestResponseSent
	RequestErrorSent
	RequestRedirected
	RequestCancelled
)

func (s RequestState) String() string {
	switch s {
	case RequestActive:
		return "active"
	case RequestCompleted:
		return "completed"
	case RequestResponseSent:
		return "response sent"
	case RequestErrorSent:
		return "error sent"
	case RequestRedirected:
		return "redirected"
	case RequestCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
