package timeline

import (
	"strings"
	"time"
)

// RepeatablePhrases are system note texts that announce phase transitions
// the game legitimately repeats. Notes containing one of these are never
// treated as duplicates of an earlier occurrence.
var RepeatablePhrases = []string{
	"final defense phase begins",
	"additional debate phase begins",
	"final voting begins",
	"additional voting begins",
}

type votingStamp struct {
	key Key
	at  time.Time
}

// Index tracks which logical events have already been admitted to the
// timeline. It only grows for the lifetime of a viewing session.
type Index struct {
	messageIDs  map[string]struct{}
	systemNotes map[string]struct{}
	chatKeys    map[Key]struct{}
	voting      []votingStamp

	repeatable []string
	window     time.Duration
}

// NewIndex creates an empty index with the default repeatable-phrase
// allow-list and voting proximity window.
func NewIndex() *Index {
	return &Index{
		messageIDs:  make(map[string]struct{}),
		systemNotes: make(map[string]struct{}),
		chatKeys:    make(map[Key]struct{}),
		repeatable:  RepeatablePhrases,
		window:      VotingWindow,
	}
}

// SetRepeatablePhrases replaces the allow-list of repeatable system note
// texts.
func (x *Index) SetRepeatablePhrases(phrases []string) { x.repeatable = phrases }

// SetVotingWindow replaces the voting table proximity window.
func (x *Index) SetVotingWindow(d time.Duration) { x.window = d }

// TryAdmit registers the entry's fingerprint and reports whether the entry
// is new. It is idempotent: a second call with a fingerprint-equal entry
// returns false and changes nothing.
func (x *Index) TryAdmit(e *Entry) bool {
	switch e.Kind {
	case EntrySystem:
		return x.admitSystem(e)
	case EntryVotingTable:
		return x.admitVoting(e)
	default:
		return x.admitChat(e)
	}
}

func (x *Index) admitSystem(e *Entry) bool {
	if x.isRepeatable(e.Content) {
		// Phase transition announcements deliberately recur; record the
		// text but never reject on it.
		x.systemNotes[e.Content] = struct{}{}
		return true
	}
	if _, dup := x.systemNotes[e.Content]; dup {
		return false
	}
	x.systemNotes[e.Content] = struct{}{}
	return true
}

func (x *Index) admitChat(e *Entry) bool {
	if e.MessageID != "" {
		if _, dup := x.messageIDs[e.MessageID]; dup {
			return false
		}
	}
	if e.Streaming {
		// In-flight accumulators are keyed by message id alone; the
		// content fingerprint is registered at finalization.
		return true
	}
	key := Fingerprint(e)
	if _, dup := x.chatKeys[key]; dup {
		return false
	}
	x.chatKeys[key] = struct{}{}
	return true
}

func (x *Index) admitVoting(e *Entry) bool {
	key := Fingerprint(e)
	for _, seen := range x.voting {
		if seen.key == key && absDuration(e.Timestamp.Sub(seen.at)) < x.window {
			return false
		}
	}
	x.voting = append(x.voting, votingStamp{key: key, at: e.Timestamp})
	return true
}

// AdmitMessageID records a streamed message id as finalized so a replay of
// the same stream after a reconnect is rejected.
func (x *Index) AdmitMessageID(id string) {
	if id != "" {
		x.messageIDs[id] = struct{}{}
	}
}

// HasMessageID reports whether a streamed message id was already finalized.
func (x *Index) HasMessageID(id string) bool {
	_, ok := x.messageIDs[id]
	return ok
}

// AdmitChatKey registers a finalized chat fingerprint directly. The
// assembler uses this when a streaming entry finalizes, so the history copy
// of the same utterance is recognized during a later merge.
func (x *Index) AdmitChatKey(e *Entry) {
	x.chatKeys[Fingerprint(e)] = struct{}{}
}

func (x *Index) isRepeatable(content string) bool {
	for _, phrase := range x.repeatable {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
