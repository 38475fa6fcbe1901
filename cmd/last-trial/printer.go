package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/reedyang/last-trial/internal/timeline"
)

// printer renders admitted timeline entries as plain lines. Streaming
// entries print a one-line typing notice on start and the full text once
// finalized.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) Phase(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "== phase: %s ==\n", label)
}

func (p *printer) Entry(e *timeline.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case timeline.EntrySystem:
		fmt.Fprintf(p.out, "%s *** %s\n", stamp(e.Timestamp), e.Content)
	case timeline.EntryVotingTable:
		p.printVotingTable(e)
	default:
		if e.Streaming {
			fmt.Fprintf(p.out, "%s %s is speaking...\n", stamp(e.Timestamp), e.ParticipantName)
			return
		}
		fmt.Fprintf(p.out, "%s %s: %s\n", stamp(e.Timestamp), e.ParticipantName, e.Content)
	}
}

func (p *printer) printVotingTable(e *timeline.Entry) {
	fmt.Fprintf(p.out, "%s --- %s ---\n", stamp(e.Timestamp), e.Title)
	if e.VotingData == nil {
		return
	}
	for _, c := range e.VotingData.Candidates {
		fmt.Fprintf(p.out, "  %-20s %d vote(s)\n", c.Name, c.VoteCount)
		for _, v := range c.Voters {
			fmt.Fprintf(p.out, "    %s: %s\n", v.VoterName, v.Reason)
		}
	}
	fmt.Fprintf(p.out, "  %d/%d votes cast\n", e.VotingData.TotalVotes, e.VotingData.TotalParticipants)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "[--:--:--]"
	}
	return t.Local().Format("[15:04:05]")
}
