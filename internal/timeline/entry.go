// Package timeline holds the reconciled, ordered view of a trial: the entry
// model, the fingerprint-based deduplication index, the sorted store, the
// post-reconnect resync filter and the streaming-message assembler.
//
// Entries arrive from two divergent sources (REST history and the live
// websocket channel) that overlap and race; everything in this package
// exists so the same logical event is admitted exactly once and lands in
// timestamp order regardless of which source delivered it first.
package timeline

import (
	"time"

	"github.com/reedyang/last-trial/internal/protocol/wire"
)

// EntryKind discriminates timeline entry variants.
type EntryKind string

const (
	// EntrySystem is a system note rendered as a centered banner line.
	EntrySystem EntryKind = "system"
	// EntryChat is a participant utterance, finalized or streaming.
	EntryChat EntryKind = "chat"
	// EntryVotingTable is a structured voting tally.
	EntryVotingTable EntryKind = "voting_table"
)

// Entry is one logical item in the displayed timeline.
//
// Entries are immutable once admitted, with a single exception: a streaming
// chat entry is finalized in place by the assembler when its complete or
// error event arrives.
type Entry struct {
	// Kind discriminates the variant.
	Kind EntryKind
	// Content is the note text or utterance text. While Streaming is true
	// it holds the accumulated partial text.
	Content string
	// ParticipantID identifies the speaker for chat entries.
	ParticipantID int
	// ParticipantName is the speaker display name for chat entries.
	ParticipantName string
	// Timestamp orders the entry. The zero value sorts at the epoch.
	Timestamp time.Time
	// Sequence is the server-side speech sequence, when known.
	Sequence int
	// MessageID groups streamed chunks; set only for streaming-origin
	// chat entries.
	MessageID string
	// Streaming is true while chunks are still being accumulated.
	Streaming bool
	// VotingData is the tally for voting table entries.
	VotingData *wire.VotingData
	// Title is the display title for voting table entries.
	Title string
}

// SystemNote builds a system note entry.
func SystemNote(content string, at time.Time) *Entry {
	return &Entry{Kind: EntrySystem, Content: content, Timestamp: at}
}

// before reports whether e sorts strictly before other. Equal timestamps
// compare as not-before so sorting stays stable.
func (e *Entry) before(other *Entry) bool {
	return e.Timestamp.Before(other.Timestamp)
}
