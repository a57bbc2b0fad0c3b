package session

// State is the session's connection lifecycle position.
//
// Disconnected → Connecting → RelayConnected → DirectConnected is the happy
// path. RelayConnected is transitional: the direct upgrade either completes
// within its deadline or the session fails. There is no relay-only operation.
type State int32

const (
	StateDisconnected = State(iota)
	StateConnecting
	StateRelayConnected
	StateDirectConnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateRelayConnected:
		return "relay-connected"
	case StateDirectConnected:
		return "direct-connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
