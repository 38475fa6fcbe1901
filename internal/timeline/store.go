package timeline

import (
	"sort"
	"strings"
)

// Store is the ordered, deduplicated collection of timeline entries.
//
// After every mutating operation the entries are sorted non-decreasing by
// timestamp, with equal timestamps preserving insertion order, and no two
// entries share a fingerprint. The store is not safe for concurrent use;
// the session loop is its only writer.
type Store struct {
	index   *Index
	entries []*Entry
}

// NewStore creates an empty store backed by the given index.
func NewStore(index *Index) *Store {
	return &Store{index: index}
}

// Index returns the deduplication index backing the store.
func (s *Store) Index() *Index { return s.index }

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a snapshot copy of the timeline in display order.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// ReplaceAll loads a finished game's full history, discarding anything
// already present. Entries still pass through the index so a history
// response carrying internal duplicates collapses to one entry each.
func (s *Store) ReplaceAll(entries []*Entry) {
	s.entries = s.entries[:0]
	for _, e := range entries {
		if s.index.TryAdmit(e) {
			s.entries = append(s.entries, e)
		}
	}
	s.sortStable()
}

// AppendLive admits one live-channel entry. It reports whether the entry
// was new; duplicates are dropped without touching the timeline. The entry
// is placed by timestamp, not at the tail, so a late-arriving record with
// an earlier stamp interleaves correctly.
func (s *Store) AppendLive(e *Entry) bool {
	if !s.index.TryAdmit(e) {
		return false
	}
	s.insert(e)
	return true
}

// MergeHistory unions freshly fetched history entries into the timeline.
// Both sources are treated as unordered sets: duplicates are dropped via
// the index and the result is re-sorted by timestamp, so the outcome does
// not depend on which source resolved first. Post-reconnect merges filter
// the raw history through a ResyncPolicy before conversion to entries.
func (s *Store) MergeHistory(entries []*Entry) []*Entry {
	var admitted []*Entry
	for _, e := range entries {
		if s.index.TryAdmit(e) {
			s.entries = append(s.entries, e)
			admitted = append(admitted, e)
		}
	}
	if len(admitted) > 0 {
		s.sortStable()
	}
	return admitted
}

// InsertStreaming places an in-flight streaming entry without consulting
// the content fingerprint; streaming entries are keyed by message id until
// finalized.
func (s *Store) InsertStreaming(e *Entry) {
	s.insert(e)
}

// RemoveSystemNotes deletes system notes whose content contains the given
// substring. Used to clear "connection interrupted" advisories once the
// connection is restored.
func (s *Store) RemoveSystemNotes(substr string) int {
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.Kind == EntrySystem && strings.Contains(e.Content, substr) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

func (s *Store) insert(e *Entry) {
	// Upper-bound position: after every entry that does not sort strictly
	// later, so equal timestamps keep arrival order.
	pos := sort.Search(len(s.entries), func(i int) bool {
		return e.before(s.entries[i])
	})
	s.entries = append(s.entries, nil)
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = e
}

func (s *Store) sortStable() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].before(s.entries[j])
	})
}
