package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reedyang/last-trial/internal/protocol/wire"
)

func TestResyncPolicyKeep(t *testing.T) {
	p := DefaultResyncPolicy()
	const currentRound = 3

	tests := []struct {
		name string
		ev   wire.Event
		keep bool
	}{
		{
			name: "chat always kept",
			ev:   wire.Event{Kind: wire.KindChat, Content: "I accuse Bob"},
			keep: true,
		},
		{
			name: "final defense speech always kept",
			ev:   wire.Event{Kind: wire.KindFinalDefenseSpeech},
			keep: true,
		},
		{
			name: "voting result always kept",
			ev:   wire.Event{Kind: wire.KindVotingResult},
			keep: true,
		},
		{
			name: "voting table always kept",
			ev:   wire.Event{Kind: wire.KindVotingTable},
			keep: true,
		},
		{
			name: "current round marker kept",
			ev:   wire.Event{Kind: wire.KindRoundStart, RoundNumber: 3},
			keep: true,
		},
		{
			name: "stale round marker dropped",
			ev:   wire.Event{Kind: wire.KindRoundStart, RoundNumber: 2},
			keep: false,
		},
		{
			name: "milestone system note kept",
			ev:   wire.Event{Kind: wire.KindSystemMessage, Content: "The trial begins now"},
			keep: true,
		},
		{
			name: "procedural voting prompt dropped",
			ev:   wire.Event{Kind: wire.KindSystemMessage, Content: "Voting is in progress, please wait"},
			keep: false,
		},
		{
			name: "stale choose prompt dropped",
			ev:   wire.Event{Kind: wire.KindSystemMessage, Content: "please choose the most suspicious player"},
			keep: false,
		},
		{
			name: "keep phrase beats drop phrase",
			ev:   wire.Event{Kind: wire.KindSystemMessage, Content: "final defense: voting in progress"},
			keep: true,
		},
		{
			name: "connection restored note kept",
			ev:   wire.Event{Kind: wire.KindSystemMessage, Content: "connection restored, catching up"},
			keep: true,
		},
		{
			name: "unclassified system note kept",
			ev:   wire.Event{Kind: wire.KindSystemMessage, Content: "some other announcement"},
			keep: true,
		},
		{
			name: "unknown kind kept",
			ev:   wire.Event{Kind: wire.Kind("future_thing")},
			keep: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.keep, p.Keep(tc.ev, currentRound))
		})
	}
}

func TestResyncPolicyFilter(t *testing.T) {
	p := DefaultResyncPolicy()

	in := []wire.Event{
		{Kind: wire.KindRoundStart, RoundNumber: 2},
		{Kind: wire.KindChat, Content: "kept speech"},
		{Kind: wire.KindRoundStart, RoundNumber: 3},
		{Kind: wire.KindSystemMessage, Content: "voting has begun"},
	}
	out := p.Filter(in, 3)

	require.Len(t, out, 2)
	require.Equal(t, wire.KindChat, out[0].Kind)
	require.Equal(t, wire.KindRoundStart, out[1].Kind)
	require.Equal(t, 3, out[1].RoundNumber)
}
