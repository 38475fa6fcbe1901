// Package phase derives the human-facing trial phase label from the event
// stream. The label is advisory only; it never gates admission or
// deduplication.
package phase

import (
	"github.com/reedyang/last-trial/internal/protocol/wire"
)

// Phase labels in the order they typically occur.
const (
	LabelPreparing        = "preparing"
	LabelDebating         = "debating"
	LabelVoting           = "voting"
	LabelFinalDefense     = "final defense"
	LabelFinalVoting      = "final voting"
	LabelAdditionalDebate = "additional debate"
	LabelAdditionalVoting = "additional voting"
	LabelConcluded        = "concluded"
)

// Tracker folds event kinds into the current phase label, debate topic and
// round number. Unrelated kinds leave the state unchanged.
type Tracker struct {
	label string
	topic string
	round int
}

// New creates a tracker with no label.
func New() *Tracker { return &Tracker{} }

// Label returns the current phase label, or "" before anything is known.
func (t *Tracker) Label() string { return t.label }

// Topic returns the current debate topic, or "" before a round started.
func (t *Tracker) Topic() string { return t.topic }

// Round returns the current round number, or 0 before a round started.
func (t *Tracker) Round() int { return t.round }

// SeedStatus sets a default label from polled game status without
// overriding anything already derived from events.
func (t *Tracker) SeedStatus(status string) {
	if t.label != "" {
		return
	}
	switch status {
	case wire.GameStatusPreparing:
		t.label = LabelPreparing
	case wire.GameStatusRunning:
		t.label = LabelDebating
	case wire.GameStatusFinished:
		t.label = LabelConcluded
	}
}

// SetTopic restores the debate topic (e.g. from a historical round_start)
// without touching the phase label.
func (t *Tracker) SetTopic(topic string) {
	if topic != "" {
		t.topic = topic
	}
}

// SetRound overrides the round number from polled game status.
func (t *Tracker) SetRound(round int) {
	if round > 0 {
		t.round = round
	}
}

// Observe folds one event into the tracker.
func (t *Tracker) Observe(ev wire.Event) {
	switch ev.Kind {
	case wire.KindRoundStart:
		t.label = LabelDebating
		if ev.Topic != "" {
			t.topic = ev.Topic
		}
		if ev.RoundNumber > 0 {
			t.round = ev.RoundNumber
		}
	case wire.KindVotingStart:
		t.label = LabelVoting
	case wire.KindFinalDefenseStart:
		t.label = LabelFinalDefense
	case wire.KindFinalVotingStart:
		t.label = LabelFinalVoting
	case wire.KindAdditionalDebateStart:
		t.label = LabelAdditionalDebate
	case wire.KindAdditionalVotingStart:
		t.label = LabelAdditionalVoting
	case wire.KindVotingResult, wire.KindGameEnded:
		t.label = LabelConcluded
	}
}
