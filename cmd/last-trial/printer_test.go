package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reedyang/last-trial/internal/protocol/wire"
	"github.com/reedyang/last-trial/internal/timeline"
)

func TestPrinterRendersEntries(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)

	p.Phase("debating")
	p.Entry(timeline.SystemNote("The trial begins", time.Time{}))
	p.Entry(&timeline.Entry{
		Kind:            timeline.EntryChat,
		ParticipantName: "Alice",
		Content:         "I accuse Bob",
	})
	p.Entry(&timeline.Entry{
		Kind:            timeline.EntryChat,
		ParticipantName: "Bob",
		Streaming:       true,
	})
	p.Entry(&timeline.Entry{
		Kind:  timeline.EntryVotingTable,
		Title: "Voting results",
		VotingData: &wire.VotingData{
			Candidates: []wire.Candidate{
				{Name: "Bob", VoteCount: 2, Voters: []wire.Voter{{VoterName: "Alice", Reason: "too quiet"}}},
			},
			TotalVotes:        2,
			TotalParticipants: 4,
		},
	})

	out := buf.String()
	require.Contains(t, out, "== phase: debating ==")
	require.Contains(t, out, "[--:--:--] *** The trial begins")
	require.Contains(t, out, "Alice: I accuse Bob")
	require.Contains(t, out, "Bob is speaking...")
	require.Contains(t, out, "--- Voting results ---")
	require.Contains(t, out, "Alice: too quiet")
	require.Contains(t, out, "2/4 votes cast")
	require.Equal(t, 8, strings.Count(out, "\n"))
}
