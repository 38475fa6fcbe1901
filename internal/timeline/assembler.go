package timeline

import (
	"fmt"
	"time"

	"github.com/reedyang/last-trial/pkg/logger"
)

// Assembler turns a start/chunk*/complete-or-error event sequence into one
// finalized chat entry, exposing the accumulating text through the entry it
// inserted at start time.
//
// The live channel may be imperfectly ordered across a reconnect boundary,
// so a chunk, complete or error referencing an unknown message id is logged
// and dropped, never fatal.
type Assembler struct {
	store *Store
	open  map[string]*Entry
}

// NewAssembler creates an assembler appending into the given store.
func NewAssembler(store *Store) *Assembler {
	return &Assembler{store: store, open: make(map[string]*Entry)}
}

// OpenCount returns the number of in-flight accumulators.
func (a *Assembler) OpenCount() int { return len(a.open) }

// Start opens an accumulator for a streamed utterance and inserts its
// (empty, in-progress) entry into the timeline immediately so viewers see
// the speaker typing. Returns the inserted entry, or nil when the message
// id is already open or already finalized (a replay across a reconnect).
func (a *Assembler) Start(id string, participantID int, name string, at time.Time) *Entry {
	if id == "" {
		logger.Warnf("stream start without message id from %q", name)
		return nil
	}
	if _, exists := a.open[id]; exists {
		logger.Warnf("stream start for already-open message %s", id)
		return nil
	}
	if a.store.Index().HasMessageID(id) {
		logger.Debugf("stream start for finalized message %s, ignoring replay", id)
		return nil
	}
	e := &Entry{
		Kind:            EntryChat,
		ParticipantID:   participantID,
		ParticipantName: name,
		Timestamp:       at,
		MessageID:       id,
		Streaming:       true,
	}
	a.store.InsertStreaming(e)
	a.open[id] = e
	return e
}

// Chunk appends a text fragment to the open accumulator for id.
func (a *Assembler) Chunk(id, text string) *Entry {
	e, ok := a.open[id]
	if !ok {
		logger.Debugf("chunk for unknown message %s dropped", id)
		return nil
	}
	e.Content += text
	return e
}

// Complete finalizes the accumulator with the authoritative final text.
// The final content always wins over the chunk concatenation; the server
// may re-send a corrected version.
func (a *Assembler) Complete(id, finalContent string) *Entry {
	e, ok := a.open[id]
	if !ok {
		logger.Debugf("complete for unknown message %s dropped", id)
		return nil
	}
	e.Content = finalContent
	a.finalize(e)
	return e
}

// Fail finalizes the accumulator with a rendered error placeholder.
func (a *Assembler) Fail(id, errText string) *Entry {
	e, ok := a.open[id]
	if !ok {
		logger.Debugf("error for unknown message %s dropped", id)
		return nil
	}
	e.Content = fmt.Sprintf("[speech error: %s]", errText)
	a.finalize(e)
	return e
}

func (a *Assembler) finalize(e *Entry) {
	e.Streaming = false
	delete(a.open, e.MessageID)
	// Register both identities: the message id rejects a live replay and
	// the speaker/timestamp fingerprint rejects the history copy of the
	// same utterance during a later merge.
	a.store.Index().AdmitMessageID(e.MessageID)
	a.store.Index().AdmitChatKey(e)
}
