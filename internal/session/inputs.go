package session

import "github.com/reedyang/last-trial/internal/protocol/wire"

// input is one item delivered to the session loop. All state mutation
// happens by applying inputs serially; nothing else touches loop-owned
// state.
type input interface {
	isInput()
}

// liveEvent is one parsed frame from the live channel.
type liveEvent struct {
	ev wire.Event
}

// dialDone reports the outcome of a dial attempt.
type dialDone struct {
	conn Conn
	err  error
}

// socketClosed reports that a live channel connection terminated.
type socketClosed struct {
	conn Conn
	code int
	err  error
}

// historyLoaded carries a resolved history fetch.
type historyLoaded struct {
	token  string
	events []wire.Event
	round  int
	resync bool
}

// historyFailed carries a failed resync history fetch. Initial-load
// failures are fatal and surface from Start directly.
type historyFailed struct {
	token  string
	err    error
	resync bool
}

// statusRefreshed carries a resolved metadata poll.
type statusRefreshed struct {
	token  string
	game   *wire.Game
	status *wire.GameStatus
}

// heartbeatTick fires on the heartbeat interval while connected.
type heartbeatTick struct{}

// reconnectDue fires when the reconnect delay elapses.
type reconnectDue struct{}

// pollDue fires on the metadata poll interval.
type pollDue struct{}

func (liveEvent) isInput()       {}
func (dialDone) isInput()        {}
func (socketClosed) isInput()    {}
func (historyLoaded) isInput()   {}
func (historyFailed) isInput()   {}
func (statusRefreshed) isInput() {}
func (heartbeatTick) isInput()   {}
func (reconnectDue) isInput()    {}
func (pollDue) isInput()         {}
