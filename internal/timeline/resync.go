package timeline

import (
	"strings"

	"github.com/reedyang/last-trial/internal/protocol/wire"
)

// ConnectionRestoredPhrase marks system notes announcing a recovered
// connection; the resync filter always keeps them.
const ConnectionRestoredPhrase = "connection restored"

// DefaultKeepPhrases are system note fragments that mark high-value trial
// milestones. Notes containing one of these survive a resync merge.
var DefaultKeepPhrases = []string{
	"defense",
	"the trial begins",
	"trial resumed",
	"emergency trial",
	"additional debate",
	"debate topic",
	"trial concluded",
	"winner",
	"voting under real names",
}

// DefaultDropPhrases are procedural system note fragments describing
// transient voting UI state. Resurrecting them after a reconnect would
// reinstate stale prompts, so they are dropped.
var DefaultDropPhrases = []string{
	"voting has begun",
	"please choose",
	"voting in progress",
}

// ResyncPolicy decides which historical events survive the merge performed
// after a reconnect. Content and outcome records always survive; stale
// procedural chatter does not.
type ResyncPolicy struct {
	// KeepPhrases always keep a matching system note.
	KeepPhrases []string
	// DropPhrases drop a matching system note (unless kept above).
	DropPhrases []string
	// RestoredPhrase always keeps connection-recovery notes.
	RestoredPhrase string
}

// DefaultResyncPolicy returns the policy matching the trial server's
// announcement wording.
func DefaultResyncPolicy() ResyncPolicy {
	return ResyncPolicy{
		KeepPhrases:    DefaultKeepPhrases,
		DropPhrases:    DefaultDropPhrases,
		RestoredPhrase: ConnectionRestoredPhrase,
	}
}

// Keep reports whether one historical event survives a resync merge given
// the round currently being debated.
func (p ResyncPolicy) Keep(ev wire.Event, currentRound int) bool {
	switch ev.Kind {
	case wire.KindChat, wire.KindNewMessage:
		// Speech content is never lost.
		return true
	case wire.KindFinalDefense, wire.KindFinalDefenseStart, wire.KindFinalDefenseSpeech,
		wire.KindAdditionalDebate, wire.KindAdditionalDebateStart, wire.KindAdditionalDebateSpeech:
		return true
	case wire.KindInitialVotingResult, wire.KindFinalVotingResult,
		wire.KindVotingResult, wire.KindVotingTable:
		// Outcome records are scarce and authoritative.
		return true
	case wire.KindRoundStart:
		return ev.RoundNumber == currentRound
	case wire.KindSystem, wire.KindSystemMessage:
		return p.keepSystem(ev.Content)
	default:
		return true
	}
}

// Filter applies Keep to a history batch.
func (p ResyncPolicy) Filter(events []wire.Event, currentRound int) []wire.Event {
	out := make([]wire.Event, 0, len(events))
	for _, ev := range events {
		if p.Keep(ev, currentRound) {
			out = append(out, ev)
		}
	}
	return out
}

func (p ResyncPolicy) keepSystem(content string) bool {
	if p.RestoredPhrase != "" && strings.Contains(content, p.RestoredPhrase) {
		return true
	}
	for _, phrase := range p.KeepPhrases {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	for _, phrase := range p.DropPhrases {
		if strings.Contains(content, phrase) {
			return false
		}
	}
	return true
}
