// Package session owns one game-viewing session: the reconciled timeline,
// the deduplication index, the streaming assembler, the phase tracker and
// the live channel supervisor, all mutated by a single serial loop.
//
// Inputs (live frames, resolved fetches, timer fires) are queued into the
// loop and applied to completion one at a time, so no internal locking is
// needed beyond the snapshot copy handed to readers.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reedyang/last-trial/internal/phase"
	"github.com/reedyang/last-trial/internal/protocol/wire"
	"github.com/reedyang/last-trial/internal/timeline"
)

// Default timing constants, matching the trial server's expectations.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
	DefaultMinLiveDuration   = 3 * time.Second
	DefaultPollInterval      = 10 * time.Second
)

// InterruptedNote is the advisory injected when the live channel drops.
// Contains ConnectionRestoredPhrase's counterpart wording so it can be
// cleared wholesale on reconnect.
const InterruptedNote = "Connection interrupted, attempting to reconnect..."

// PartialSyncNote is the advisory appended when a post-reconnect history
// fetch fails; the session keeps running on the existing timeline.
const PartialSyncNote = "Partial sync: history could not be reloaded after reconnecting, the record may be incomplete."

// GameAPI is the pull side of the engine: game metadata, status and
// finalized history.
type GameAPI interface {
	GetGame(ctx context.Context, gameID int) (*wire.Game, error)
	GetGameStatus(ctx context.Context, gameID int) (*wire.GameStatus, error)
	GetGameMessages(ctx context.Context, gameID int) ([]wire.Event, error)
}

// Conn is one live channel connection.
type Conn interface {
	Run(sink func(wire.Event), onClose func(code int, err error))
	SendPing(at time.Time) error
	Close() error
}

// DialFunc opens the live channel for a game.
type DialFunc func(ctx context.Context, gameID int) (Conn, error)

// Config parameterizes a Session. GameID, API and Dial are required; zero
// durations fall back to the defaults above.
type Config struct {
	GameID int
	API    GameAPI
	Dial   DialFunc

	// Clock overrides the time/timer source (tests).
	Clock Clock

	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
	MinLiveDuration   time.Duration
	PollInterval      time.Duration

	// ResyncPolicy filters history merged after a reconnect. Zero value
	// means timeline.DefaultResyncPolicy.
	ResyncPolicy *timeline.ResyncPolicy

	// OnEntry is invoked from the loop for every admitted entry, again
	// when a streaming entry finalizes. Must not block.
	OnEntry func(*timeline.Entry)
	// OnPhase is invoked from the loop when the phase label changes.
	OnPhase func(label string)
}

// Session is one live or replay viewing session for a single game id.
type Session struct {
	cfg    Config
	clock  Clock
	policy timeline.ResyncPolicy

	// token guards against stale fetch results being applied after the
	// session they belong to is gone.
	token string

	store *timeline.Store
	asm   *timeline.Assembler
	phase *phase.Tracker

	ctx    context.Context
	cancel context.CancelFunc

	inbox    chan input
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	// Everything below is loop-owned.
	conn            Conn
	connState       ConnState
	connectedAt     time.Time
	wasReconnecting bool
	outageNoted     bool
	historyMode     bool
	round           int
	participants    []wire.Participant
	lastPhase       string

	heartbeatTimer Timer
	reconnectTimer Timer
	pollTimer      Timer

	mu          sync.Mutex
	snap        Snapshot
	entriesSnap []timeline.Entry
}

// New creates a session. Call Start to load the baseline and begin the
// loop; call Close to tear everything down.
func New(cfg Config) (*Session, error) {
	if cfg.GameID <= 0 {
		return nil, fmt.Errorf("game id required")
	}
	if cfg.API == nil {
		return nil, fmt.Errorf("game API required")
	}
	if cfg.Dial == nil {
		return nil, fmt.Errorf("dial func required")
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.MinLiveDuration <= 0 {
		cfg.MinLiveDuration = DefaultMinLiveDuration
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	policy := timeline.DefaultResyncPolicy()
	if cfg.ResyncPolicy != nil {
		policy = *cfg.ResyncPolicy
	}

	ctx, cancel := context.WithCancel(context.Background())
	index := timeline.NewIndex()
	// Client-injected advisories recur across outages; exempt them from
	// the grow-only content dedup so each outage can note them again.
	index.SetRepeatablePhrases(append([]string{InterruptedNote, PartialSyncNote}, timeline.RepeatablePhrases...))
	store := timeline.NewStore(index)
	return &Session{
		cfg:       cfg,
		clock:     cfg.Clock,
		policy:    policy,
		token:     uuid.NewString(),
		store:     store,
		asm:       timeline.NewAssembler(store),
		phase:     phase.New(),
		ctx:       ctx,
		cancel:    cancel,
		inbox:     make(chan input, 256),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		connState: StateDisconnected,
	}, nil
}

// Start fetches the initial baseline and begins the session loop.
//
// A metadata or history fetch failure here is fatal: the timeline cannot
// be shown without its initial baseline. For a finished game the history
// is loaded wholesale and no live channel is opened.
func (s *Session) Start(ctx context.Context) error {
	game, err := s.cfg.API.GetGame(ctx, s.cfg.GameID)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	status, err := s.cfg.API.GetGameStatus(ctx, s.cfg.GameID)
	if err != nil {
		return fmt.Errorf("load game status: %w", err)
	}
	history, err := s.cfg.API.GetGameMessages(ctx, s.cfg.GameID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.phase.SeedStatus(game.Status)
	s.phase.SetRound(status.CurrentRound)
	s.round = status.CurrentRound
	s.participants = status.Participants

	events := wire.NormalizeHistory(history)
	// Restore the debate topic from the first round_start on record.
	for _, ev := range events {
		if ev.Kind == wire.KindRoundStart && ev.Topic != "" {
			s.phase.SetTopic(ev.Topic)
			break
		}
	}

	entries := entriesFromEvents(events)
	if game.Status == wire.GameStatusFinished {
		s.historyMode = true
		s.store.ReplaceAll(entries)
		for _, e := range s.store.Entries() {
			s.notifyEntry(e)
		}
	} else {
		for _, e := range s.store.MergeHistory(entries) {
			s.notifyEntry(e)
		}
		s.connState = StateConnecting
		go s.dial()
		s.schedulePoll()
	}
	s.notifyPhase()
	s.publishSnapshot()

	go s.loop()
	return nil
}

// Entries returns a value copy of the reconciled timeline as of the last
// applied input, including in-progress streaming text.
func (s *Session) Entries() []timeline.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]timeline.Entry, len(s.entriesSnap))
	copy(out, s.entriesSnap)
	return out
}

// Snapshot returns a copy of the externally visible session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Done returns a channel closed when the session loop exits.
func (s *Session) Done() <-chan struct{} { return s.doneCh }

// Close tears the session down: cancels in-flight fetches, stops all
// timers and closes the live channel. Safe to call multiple times.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.stopCh)
	})
	<-s.doneCh
}

func (s *Session) loop() {
	defer close(s.doneCh)
	defer s.teardown()

	for {
		select {
		case <-s.stopCh:
			return
		case in := <-s.inbox:
			s.apply(in)
			s.publishSnapshot()
		}
	}
}

// teardown runs on every loop exit path: timers stopped, channel closed.
func (s *Session) teardown() {
	s.stopTimer(&s.heartbeatTimer)
	s.stopTimer(&s.reconnectTimer)
	s.stopTimer(&s.pollTimer)
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *Session) apply(in input) {
	switch v := in.(type) {
	case liveEvent:
		s.handleLive(v.ev)
	case dialDone:
		s.handleDialDone(v)
	case socketClosed:
		s.handleSocketClosed(v)
	case historyLoaded:
		s.handleHistoryLoaded(v)
	case historyFailed:
		s.handleHistoryFailed(v)
	case statusRefreshed:
		s.handleStatusRefreshed(v)
	case heartbeatTick:
		s.handleHeartbeat()
	case reconnectDue:
		s.handleReconnectDue()
	case pollDue:
		s.handlePollDue()
	}
}

// post queues an input for the loop, giving up when the session stops.
func (s *Session) post(in input) {
	select {
	case s.inbox <- in:
	case <-s.stopCh:
	}
}

func (s *Session) publishSnapshot() {
	live := s.store.Entries()
	entries := make([]timeline.Entry, len(live))
	for i, e := range live {
		entries[i] = *e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entriesSnap = entries
	s.snap = Snapshot{
		ConnState:    s.connState,
		Phase:        s.phase.Label(),
		Topic:        s.phase.Topic(),
		Round:        s.round,
		HistoryMode:  s.historyMode,
		EntryCount:   s.store.Len(),
		Participants: s.participants,
	}
}

func (s *Session) notifyEntry(e *timeline.Entry) {
	if s.cfg.OnEntry != nil {
		s.cfg.OnEntry(e)
	}
}

func (s *Session) notifyPhase() {
	label := s.phase.Label()
	if label == s.lastPhase {
		return
	}
	s.lastPhase = label
	if s.cfg.OnPhase != nil {
		s.cfg.OnPhase(label)
	}
}

func (s *Session) addSystemNote(content string, at time.Time) {
	e := timeline.SystemNote(content, at)
	if s.store.AppendLive(e) {
		s.notifyEntry(e)
	}
}

func (s *Session) stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// entriesFromEvents converts displayable finalized events into timeline
// entries; lifecycle kinds (round_start, *_start, pongs) produce none.
func entriesFromEvents(events []wire.Event) []*timeline.Entry {
	out := make([]*timeline.Entry, 0, len(events))
	for _, ev := range events {
		if e, ok := entryFromEvent(ev); ok {
			out = append(out, e)
		}
	}
	return out
}

func entryFromEvent(ev wire.Event) (*timeline.Entry, bool) {
	switch ev.Kind {
	case wire.KindSystem, wire.KindSystemMessage:
		if ev.Content == "" {
			return nil, false
		}
		return timeline.SystemNote(ev.Content, ev.Time()), true
	case wire.KindChat, wire.KindNewMessage, wire.KindFinalDefenseSpeech, wire.KindAdditionalDebateSpeech:
		return chatEntry(ev, ""), true
	case wire.KindFinalDefense:
		return chatEntry(ev, " (final defense)"), true
	case wire.KindAdditionalDebate:
		return chatEntry(ev, " (additional debate)"), true
	case wire.KindVotingTable:
		title := ev.Title
		if title == "" {
			title = "Voting results"
		}
		return &timeline.Entry{
			Kind:       timeline.EntryVotingTable,
			VotingData: ev.VotingData,
			Title:      title,
			Timestamp:  ev.Time(),
		}, true
	default:
		return nil, false
	}
}

func chatEntry(ev wire.Event, nameSuffix string) *timeline.Entry {
	return &timeline.Entry{
		Kind:            timeline.EntryChat,
		Content:         ev.Content,
		ParticipantID:   ev.ParticipantID,
		ParticipantName: ev.ParticipantName + nameSuffix,
		Timestamp:       ev.Time(),
		Sequence:        ev.Sequence,
	}
}

func joinNames(players []wire.PlayerRef) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
