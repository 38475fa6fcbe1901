package session

import (
	"fmt"
	"time"

	"github.com/reedyang/last-trial/internal/protocol/wire"
	"github.com/reedyang/last-trial/internal/timeline"
	"github.com/reedyang/last-trial/pkg/logger"
)

// handleLive applies one live channel event. Runs on the session loop.
func (s *Session) handleLive(ev wire.Event) {
	switch ev.Kind {
	case wire.KindConnected:
		logger.Debugf("game %d: server acknowledged connection", s.cfg.GameID)

	case wire.KindPong:
		// Accepted but not used for liveness; the channel's own close
		// event is the only disconnect signal.

	case wire.KindSystemMessage:
		if ev.Content == "" {
			return
		}
		s.addSystemNote(ev.Content, s.eventTime(ev))

	case wire.KindRoundStart:
		s.phase.Observe(ev)
		if ev.RoundNumber > 0 {
			s.round = ev.RoundNumber
		}
		s.notifyPhase()

	case wire.KindNewMessage, wire.KindFinalDefenseSpeech, wire.KindAdditionalDebateSpeech:
		e := chatEntry(ev, "")
		if s.store.AppendLive(e) {
			s.notifyEntry(e)
		}

	case wire.KindMessageStart:
		s.startStream(ev, "")
	case wire.KindDefenseStart:
		s.startStream(ev, " (final defense)")

	case wire.KindMessageChunk, wire.KindDefenseChunk:
		s.asm.Chunk(ev.MessageID, ev.Chunk)

	case wire.KindMessageComplete, wire.KindDefenseComplete:
		if e := s.asm.Complete(ev.MessageID, ev.Content); e != nil {
			s.notifyEntry(e)
		}

	case wire.KindMessageError, wire.KindDefenseError:
		logger.Warnf("game %d: %s speech failed: %s", s.cfg.GameID, ev.ParticipantName, ev.Error)
		if e := s.asm.Fail(ev.MessageID, ev.Error); e != nil {
			s.notifyEntry(e)
		}

	case wire.KindVotingStart:
		s.phase.Observe(ev)
		s.notifyPhase()
		s.addSystemNote("The courtroom debate is over. Voting begins to identify the AI spy.", s.clock.Now())

	case wire.KindFinalDefenseStart, wire.KindFinalVotingStart,
		wire.KindAdditionalDebateStart, wire.KindAdditionalVotingStart:
		// Announcement text arrives separately as a system_message.
		s.phase.Observe(ev)
		s.notifyPhase()

	case wire.KindInitialVotingResult, wire.KindFinalVotingResult:
		if !s.requireConnected(ev.Kind) {
			return
		}
		// The tally itself is broadcast as a voting_table.

	case wire.KindVotingResult:
		if !s.requireConnected(ev.Kind) {
			return
		}
		s.handleVotingResult(ev)

	case wire.KindGameEnded:
		if !s.requireConnected(ev.Kind) {
			return
		}
		s.phase.Observe(ev)
		s.notifyPhase()
		note := ev.ResultMessage
		if note == "" && ev.EliminatedPlayer != nil {
			note = fmt.Sprintf("The trial has concluded. %s was voted most suspicious.", ev.EliminatedPlayer.Name)
		}
		if note != "" {
			s.addSystemNote(note, s.clock.Now())
		}
		s.refreshStatus()

	case wire.KindVotingTable:
		ts := ev.Time()
		if ts.IsZero() {
			ts = s.clock.Now()
		}
		title := ev.Title
		if title == "" {
			title = "Voting results"
		}
		e := &timeline.Entry{
			Kind:       timeline.EntryVotingTable,
			VotingData: ev.VotingData,
			Title:      title,
			Timestamp:  ts,
		}
		if s.store.AppendLive(e) {
			s.notifyEntry(e)
		}

	default:
		logger.Warnf("game %d: ignoring unknown event kind %q", s.cfg.GameID, ev.Kind)
	}
}

func (s *Session) handleVotingResult(ev wire.Event) {
	s.phase.Observe(ev)
	s.notifyPhase()

	if ev.EliminatedPlayer == nil || ev.EliminatedPlayer.Name == "" {
		logger.Warnf("game %d: voting result missing eliminated player, ignoring", s.cfg.GameID)
		return
	}
	now := s.clock.Now()
	s.addSystemNote(fmt.Sprintf("Voting result: %s was voted most suspicious with %d votes.",
		ev.EliminatedPlayer.Name, ev.EliminatedPlayer.VoteCount), now)

	if len(ev.Winners) > 0 {
		s.addSystemNote("Winners: "+joinNames(ev.Winners), now)
	}
	if len(ev.VoteDetails) > 0 {
		detail := "Vote details:"
		for _, v := range ev.VoteDetails {
			detail += fmt.Sprintf("\n%s -> %s: %s", v.VoterName, v.TargetName, v.Reason)
		}
		s.addSystemNote(detail, now)
	}
	s.refreshStatus()
}

func (s *Session) startStream(ev wire.Event, nameSuffix string) {
	ts := ev.Time()
	if ts.IsZero() {
		ts = s.clock.Now()
	}
	e := s.asm.Start(ev.MessageID, ev.ParticipantID, ev.ParticipantName+nameSuffix, ts)
	if e != nil {
		s.notifyEntry(e)
	}
}

// requireConnected gates outcome-bearing events: a channel that is not
// healthy cannot vouch for the completeness of a high-value payload, and
// the authoritative copy reappears in the next resync or poll anyway.
func (s *Session) requireConnected(kind wire.Kind) bool {
	if s.connState == StateConnected {
		return true
	}
	logger.Warnf("game %d: discarding %s while %s", s.cfg.GameID, kind, s.connState)
	return false
}

func (s *Session) eventTime(ev wire.Event) time.Time {
	if t := ev.Time(); !t.IsZero() {
		return t
	}
	return s.clock.Now()
}
