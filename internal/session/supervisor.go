package session

import (
	"github.com/reedyang/last-trial/internal/protocol/wire"
	"github.com/reedyang/last-trial/internal/websocket"
	"github.com/reedyang/last-trial/pkg/logger"
)

// Connection supervision: dialing, heartbeat, abnormal-close detection,
// bounded-delay reconnection and post-reconnect resynchronization. All
// handlers run on the session loop; only the dial and fetch bodies run in
// their own goroutines and report back through the inbox.

func (s *Session) dial() {
	conn, err := s.cfg.Dial(s.ctx, s.cfg.GameID)
	s.post(dialDone{conn: conn, err: err})
}

func (s *Session) handleDialDone(v dialDone) {
	if v.err != nil {
		// Never reached connected: no retry is scheduled, matching the
		// close-before-connect rule of the state machine.
		logger.Errorf("game %d: connect failed: %v", s.cfg.GameID, v.err)
		s.connState = StateDisconnected
		s.wasReconnecting = false
		return
	}
	if s.connState != StateConnecting {
		// Torn down or superseded while the dial was in flight.
		_ = v.conn.Close()
		return
	}

	s.conn = v.conn
	s.connState = StateConnected
	s.connectedAt = s.clock.Now()
	s.outageNoted = false

	conn := v.conn
	conn.Run(
		func(ev wire.Event) { s.post(liveEvent{ev: ev}) },
		func(code int, err error) { s.post(socketClosed{conn: conn, code: code, err: err}) },
	)

	s.scheduleHeartbeat()

	if s.wasReconnecting {
		s.wasReconnecting = false
		logger.Infof("game %d: reconnected, resynchronizing history", s.cfg.GameID)
		// The interruption advisory is obsolete the moment the channel is
		// back; drop it rather than letting it linger mid-timeline.
		s.store.RemoveSystemNotes(InterruptedNote)
		s.fetchResync()
	}
}

func (s *Session) handleSocketClosed(v socketClosed) {
	if v.conn != s.conn {
		// Close from a connection this session already replaced.
		return
	}
	s.conn = nil
	s.stopTimer(&s.heartbeatTimer)

	wasConnected := s.connState == StateConnected
	lived := s.clock.Now().Sub(s.connectedAt)

	switch {
	case !wasConnected, v.code == websocket.CloseNormal:
		s.connState = StateDisconnected

	case s.historyMode:
		s.connState = StateDisconnected

	case lived > s.cfg.MinLiveDuration:
		// Abnormal close on a connection that lived long enough to rule
		// out an endpoint that fails instantly on every attempt.
		logger.Warnf("game %d: connection lost (code %d), retrying in %s", s.cfg.GameID, v.code, s.cfg.ReconnectDelay)
		s.connState = StateReconnecting
		if !s.outageNoted {
			s.addSystemNote(InterruptedNote, s.clock.Now())
			s.outageNoted = true
		}
		s.stopTimer(&s.reconnectTimer)
		s.reconnectTimer = s.clock.AfterFunc(s.cfg.ReconnectDelay, func() {
			s.post(reconnectDue{})
		})

	default:
		logger.Warnf("game %d: connection lost after %s, not retrying", s.cfg.GameID, lived)
		s.connState = StateDisconnected
	}
}

func (s *Session) handleReconnectDue() {
	if s.connState != StateReconnecting || s.historyMode {
		return
	}
	s.connState = StateConnecting
	s.wasReconnecting = true
	go s.dial()
}

func (s *Session) scheduleHeartbeat() {
	s.stopTimer(&s.heartbeatTimer)
	s.heartbeatTimer = s.clock.AfterFunc(s.cfg.HeartbeatInterval, func() {
		s.post(heartbeatTick{})
	})
}

func (s *Session) handleHeartbeat() {
	if s.connState != StateConnected || s.conn == nil {
		return
	}
	if err := s.conn.SendPing(s.clock.Now()); err != nil {
		// The read pump will surface the close; nothing else to do here.
		logger.Warnf("game %d: heartbeat failed: %v", s.cfg.GameID, err)
	}
	s.scheduleHeartbeat()
}

// fetchResync reloads status and history after a reconnect. Runs the
// fetches off-loop and reports back with the session token so a result
// resolving after teardown is discarded.
func (s *Session) fetchResync() {
	token := s.token
	go func() {
		round := 0
		if status, err := s.cfg.API.GetGameStatus(s.ctx, s.cfg.GameID); err == nil {
			round = status.CurrentRound
		} else {
			logger.Warnf("game %d: resync status fetch failed: %v", s.cfg.GameID, err)
		}
		events, err := s.cfg.API.GetGameMessages(s.ctx, s.cfg.GameID)
		if err != nil {
			s.post(historyFailed{token: token, err: err, resync: true})
			return
		}
		s.post(historyLoaded{token: token, events: events, round: round, resync: true})
	}()
}

func (s *Session) handleHistoryLoaded(v historyLoaded) {
	if v.token != s.token {
		logger.Debugf("game %d: discarding stale history fetch", s.cfg.GameID)
		return
	}
	if v.round > 0 {
		s.round = v.round
		s.phase.SetRound(v.round)
	}

	events := wire.NormalizeHistory(v.events)
	if v.resync {
		events = s.policy.Filter(events, s.round)
	}
	admitted := s.store.MergeHistory(entriesFromEvents(events))
	for _, e := range admitted {
		s.notifyEntry(e)
	}
	logger.Infof("game %d: merged %d of %d history records", s.cfg.GameID, len(admitted), len(events))
}

func (s *Session) handleHistoryFailed(v historyFailed) {
	if v.token != s.token || !v.resync {
		return
	}
	// Non-fatal: keep the timeline we have and flag the gap once.
	logger.Errorf("game %d: resync history fetch failed: %v", s.cfg.GameID, v.err)
	s.addSystemNote(PartialSyncNote, s.clock.Now())
}

func (s *Session) schedulePoll() {
	s.stopTimer(&s.pollTimer)
	s.pollTimer = s.clock.AfterFunc(s.cfg.PollInterval, func() {
		s.post(pollDue{})
	})
}

func (s *Session) handlePollDue() {
	if s.historyMode {
		// Terminal game: the metadata cannot change anymore.
		return
	}
	token := s.token
	go func() {
		game, err := s.cfg.API.GetGame(s.ctx, s.cfg.GameID)
		if err != nil {
			logger.Debugf("game %d: poll failed: %v", s.cfg.GameID, err)
			game = nil
		}
		status, err := s.cfg.API.GetGameStatus(s.ctx, s.cfg.GameID)
		if err != nil {
			logger.Debugf("game %d: status poll failed: %v", s.cfg.GameID, err)
			status = nil
		}
		s.post(statusRefreshed{token: token, game: game, status: status})
	}()
	s.schedulePoll()
}

// refreshStatus triggers an immediate off-cycle metadata refresh, used
// after outcome events so the roster and round catch up right away.
func (s *Session) refreshStatus() {
	s.handlePollDue()
}

func (s *Session) handleStatusRefreshed(v statusRefreshed) {
	if v.token != s.token {
		return
	}
	if v.game != nil {
		s.phase.SeedStatus(v.game.Status)
		if v.game.Status == wire.GameStatusFinished {
			// Terminal: any further reconnect attempt or poll is pointless.
			s.historyMode = true
			s.stopTimer(&s.pollTimer)
		}
	}
	if v.status != nil {
		s.round = v.status.CurrentRound
		s.phase.SetRound(v.status.CurrentRound)
		s.participants = v.status.Participants
	}
	s.notifyPhase()
}
