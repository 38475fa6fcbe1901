package session

import "github.com/reedyang/last-trial/internal/protocol/wire"

// ConnState is the live channel's lifecycle state, owned exclusively by the
// session's connection supervisor.
type ConnState string

const (
	// StateConnecting means a dial is in flight.
	StateConnecting ConnState = "connecting"
	// StateConnected means the live channel is open.
	StateConnected ConnState = "connected"
	// StateReconnecting means an abnormal close occurred and a retry is
	// scheduled.
	StateReconnecting ConnState = "reconnecting"
	// StateDisconnected means the channel is down and no retry is pending.
	StateDisconnected ConnState = "disconnected"
)

// Snapshot is a copy of the externally visible session state.
//
// It is updated by the session loop after every input and read through
// Session.Snapshot, so callers never touch loop-owned state directly.
type Snapshot struct {
	// ConnState is the live channel state.
	ConnState ConnState
	// Phase is the advisory phase label ("debating", "final defense", ...).
	Phase string
	// Topic is the current debate topic, when known.
	Topic string
	// Round is the round currently being debated.
	Round int
	// HistoryMode is true when replaying a finished game (no live channel).
	HistoryMode bool
	// EntryCount is the number of timeline entries.
	EntryCount int
	// Participants is the last polled roster.
	Participants []wire.Participant
}
