package timersync

import (
	"time"

	"github.com/raidtimer/timerlink/internal/timerstate"
)

// ConnectionState is the lifecycle stage of the connect loop.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the String form. Unknown text reads as
// disconnected.
func (s *ConnectionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "connecting":
		*s = StateConnecting
	case "connected":
		*s = StateConnected
	default:
		*s = StateDisconnected
	}
	return nil
}

const (
	MessageTimersLoaded    = "timers loaded"
	MessageStreamConnected = "stream connected"
	MessageStopped         = "stopped"
)

// Connection describes one connection state change.
type Connection struct {
	State   ConnectionState
	Message string
	Err     error // set for StateDisconnected after a failure
	At      time.Time
}

// EventKind tells which part of an Event is populated.
type EventKind int

const (
	EventTimers        EventKind = iota + 1 // a full batch replaced the active set
	EventOffsetChanged                      // the held set was re-based on a new clock offset
	EventConnection
)

func (k EventKind) String() string {
	switch k {
	case EventTimers:
		return "timers"
	case EventOffsetChanged:
		return "offset"
	case EventConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Event is what subscribers receive. Timers is the whole active set in
// display order for EventTimers and EventOffsetChanged.
type Event struct {
	Kind       EventKind
	Timers     []timerstate.TimerSnapshot
	Offset     time.Duration
	Connection Connection
}
