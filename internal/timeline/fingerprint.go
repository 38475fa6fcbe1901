package timeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// VotingWindow is how close in time two voting tables with matching
// fingerprints must be to count as the same tally. The server issues no
// identifier for voting results, so proximity is the only identity signal.
const VotingWindow = 10 * time.Second

// Key is a stable equality key for one entry. Two entries describe the same
// logical event iff their Keys compare equal (voting tables additionally
// require timestamp proximity, handled by the Index).
type Key struct {
	class string
	text  string
}

// String renders the key for logging.
func (k Key) String() string { return k.class + ":" + k.text }

// Fingerprint computes the identity key for an entry.
//
// System notes are identified by exact content: two notes are the same
// event iff their text matches. Chat entries are identified by speaker and
// timestamp, which is the only pair both the history endpoint and the live
// channel agree on. Voting tables are identified by a structural digest of
// the tally.
func Fingerprint(e *Entry) Key {
	switch e.Kind {
	case EntrySystem:
		return Key{class: "system", text: e.Content}
	case EntryVotingTable:
		return Key{class: "voting", text: votingDigest(e)}
	default:
		return Key{class: "chat", text: fmt.Sprintf("%d|%d", e.ParticipantID, e.Timestamp.UnixMilli())}
	}
}

// votingDigest summarizes a tally as total votes, candidate count and a
// truncated serialization of the candidate list.
func votingDigest(e *Entry) string {
	if e.VotingData == nil {
		return "empty"
	}
	raw, err := json.Marshal(e.VotingData)
	if err != nil {
		raw = nil
	}
	const digestLen = 50
	if len(raw) > digestLen {
		raw = raw[:digestLen]
	}
	return fmt.Sprintf("%d_%d_%s", e.VotingData.TotalVotes, len(e.VotingData.Candidates), raw)
}
