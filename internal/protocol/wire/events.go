// Package wire defines the JSON shapes exchanged with the trial server:
// live websocket events, the outbound ping, and the REST payloads for game
// metadata and message history.
//
// The live channel and the history endpoint emit the same self-describing
// records (history carries finalized kinds only, never streaming chunks), so
// both sources decode into the same Event type.
package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies a live or historical event record.
type Kind string

// Live channel kinds. History responses additionally use KindChat,
// KindSystem, KindFinalDefense and KindAdditionalDebate for finalized
// records.
const (
	KindConnected     Kind = "connected"
	KindPong          Kind = "pong"
	KindSystemMessage Kind = "system_message"
	KindRoundStart    Kind = "round_start"
	KindNewMessage    Kind = "new_message"

	KindMessageStart    Kind = "message_start"
	KindMessageChunk    Kind = "message_chunk"
	KindMessageComplete Kind = "message_complete"
	KindMessageError    Kind = "message_error"

	KindDefenseStart    Kind = "defense_start"
	KindDefenseChunk    Kind = "defense_chunk"
	KindDefenseComplete Kind = "defense_complete"
	KindDefenseError    Kind = "defense_error"

	KindVotingStart            Kind = "voting_start"
	KindInitialVotingResult    Kind = "initial_voting_result"
	KindFinalDefenseStart      Kind = "final_defense_start"
	KindFinalDefenseSpeech     Kind = "final_defense_speech"
	KindFinalVotingStart       Kind = "final_voting_start"
	KindFinalVotingResult      Kind = "final_voting_result"
	KindAdditionalDebateStart  Kind = "additional_debate_start"
	KindAdditionalDebateSpeech Kind = "additional_debate_speech"
	KindAdditionalVotingStart  Kind = "additional_voting_start"
	KindVotingResult           Kind = "voting_result"
	KindGameEnded              Kind = "game_ended"
	KindVotingTable            Kind = "voting_table"

	KindChat             Kind = "chat"
	KindSystem           Kind = "system"
	KindFinalDefense     Kind = "final_defense"
	KindAdditionalDebate Kind = "additional_debate"
)

var knownKinds = map[Kind]struct{}{
	KindConnected:              {},
	KindPong:                   {},
	KindSystemMessage:          {},
	KindRoundStart:             {},
	KindNewMessage:             {},
	KindMessageStart:           {},
	KindMessageChunk:           {},
	KindMessageComplete:        {},
	KindMessageError:           {},
	KindDefenseStart:           {},
	KindDefenseChunk:           {},
	KindDefenseComplete:        {},
	KindDefenseError:           {},
	KindVotingStart:            {},
	KindInitialVotingResult:    {},
	KindFinalDefenseStart:      {},
	KindFinalDefenseSpeech:     {},
	KindFinalVotingStart:       {},
	KindFinalVotingResult:      {},
	KindAdditionalDebateStart:  {},
	KindAdditionalDebateSpeech: {},
	KindAdditionalVotingStart:  {},
	KindVotingResult:           {},
	KindGameEnded:              {},
	KindVotingTable:            {},
	KindChat:                   {},
	KindSystem:                 {},
	KindFinalDefense:           {},
	KindAdditionalDebate:       {},
}

// Known reports whether k is part of the protocol's closed kind set.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// PlayerRef identifies a participant inside a voting outcome payload.
type PlayerRef struct {
	// ID is the participant id when the server includes one.
	ID int `json:"id,omitempty"`
	// Name is the participant display name.
	Name string `json:"name"`
	// VoteCount is the number of votes received, for eliminated players.
	VoteCount int `json:"vote_count,omitempty"`
}

// VoteDetail is one voter's choice inside a voting_result payload.
type VoteDetail struct {
	// VoterName is the display name of the voter.
	VoterName string `json:"voter_name"`
	// TargetName is the display name of the voted participant.
	TargetName string `json:"target_name"`
	// Reason is the voter's stated reason.
	Reason string `json:"reason"`
}

// Voter is one voter entry inside a voting table candidate.
type Voter struct {
	// VoterName is the display name of the voter.
	VoterName string `json:"voter_name"`
	// Reason is the voter's stated reason.
	Reason string `json:"reason"`
}

// Candidate is one candidate row inside a voting table.
type Candidate struct {
	// Name is the candidate display name.
	Name string `json:"name"`
	// VoteCount is the number of votes the candidate received.
	VoteCount int `json:"vote_count"`
	// Voters lists who voted for the candidate.
	Voters []Voter `json:"voters,omitempty"`
}

// VotingData is the structured summary carried by voting_table events.
type VotingData struct {
	// Candidates lists the per-candidate tallies.
	Candidates []Candidate `json:"candidates"`
	// TotalVotes is the number of votes cast.
	TotalVotes int `json:"total_votes"`
	// TotalParticipants is the number of eligible voters.
	TotalParticipants int `json:"total_participants"`
}

// Event is one self-describing record from the live channel or the history
// endpoint. Only the fields relevant to the Kind are populated.
type Event struct {
	// Kind identifies the record type.
	Kind Kind `json:"type"`
	// Content is the free text payload (system notes, finalized speech).
	Content string `json:"content,omitempty"`
	// ParticipantID identifies the speaking participant.
	ParticipantID int `json:"participant_id,omitempty"`
	// ParticipantName is the speaking participant's display name.
	ParticipantName string `json:"participant_name,omitempty"`
	// Timestamp is the server-side event time (RFC 3339).
	Timestamp string `json:"timestamp,omitempty"`
	// Sequence orders finalized speech records within a round.
	Sequence int `json:"sequence,omitempty"`
	// RoundNumber is the debate round for round_start records.
	RoundNumber int `json:"round_number,omitempty"`
	// Topic is the debate topic announced by round_start.
	Topic string `json:"topic,omitempty"`
	// MessageID groups the start/chunk/complete events of one streamed
	// utterance.
	MessageID string `json:"message_id,omitempty"`
	// Chunk is an incremental text fragment of a streamed utterance.
	Chunk string `json:"chunk,omitempty"`
	// Error is the failure description for message_error/defense_error.
	Error string `json:"error,omitempty"`
	// EliminatedPlayer is the voted-out participant in outcome events.
	EliminatedPlayer *PlayerRef `json:"eliminated_player,omitempty"`
	// Winners lists the winning participants in outcome events.
	Winners []PlayerRef `json:"winners,omitempty"`
	// VoteDetails lists individual votes in outcome events.
	VoteDetails []VoteDetail `json:"vote_details,omitempty"`
	// ResultMessage is the server-rendered game_ended summary.
	ResultMessage string `json:"result_message,omitempty"`
	// VotingData carries the structured tally for voting_table events.
	VotingData *VotingData `json:"voting_data,omitempty"`
	// Title is the display title for voting_table events.
	Title string `json:"title,omitempty"`
}

// Time parses the event timestamp. Events without a parseable timestamp
// report the zero time; callers order such records at the epoch.
func (e Event) Time() time.Time {
	if e.Timestamp == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, e.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseEvent decodes one live channel frame.
//
// A decode failure or a record without a type tag is an error; an unknown
// but well-formed kind is not (callers log and skip it so new server-side
// kinds never break older clients).
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Kind == "" {
		return Event{}, fmt.Errorf("event missing type tag")
	}
	return ev, nil
}

// PingMessage is the only outbound payload on the live channel.
type PingMessage struct {
	// Kind is always "ping".
	Kind Kind `json:"type"`
	// Timestamp is the client send time in milliseconds since epoch.
	Timestamp int64 `json:"timestamp"`
}

// NewPing builds a ping payload for the given send time.
func NewPing(at time.Time) PingMessage {
	return PingMessage{Kind: "ping", Timestamp: at.UnixMilli()}
}

// NormalizeHistory rewrites legacy history records into their live-channel
// shape. The history endpoint encodes voting outcomes as voting_result
// records carrying voting_data; the live channel broadcasts the same tally
// as a voting_table, so the legacy form is folded into that shape here.
func NormalizeHistory(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind == KindVotingResult && ev.VotingData != nil {
			ev.Kind = KindVotingTable
			if ev.Title == "" {
				ev.Title = "Voting results"
			}
		}
		out = append(out, ev)
	}
	return out
}
