// Package ledger implements the in-memory decision ledger: an append-only
// collection of decision records with a supersession/reversal lifecycle,
// lineage reconstruction, structured queries, and summary reports.
//
// The store is the single source of truth and the only component that
// mutates status and superseded_by links. All operations are synchronous
// and in-memory; persistence is a collaborator's concern (see
// internal/storage for the SQLite snapshot layer).
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/ashita-ai/keifu/internal/model"
)

// RecordInput carries the optional fields for a new record. Omitted fields
// default to empty containers.
type RecordInput struct {
	Alternatives []model.Alternative
	Stakeholders []string
	Context      string
	Tags         []string
}

// Store owns the ordered collection of decision records.
//
// A single RWMutex is the mutual-exclusion boundary for the whole ledger:
// the core operations themselves are single-timeline, and the HTTP/MCP host
// calls them from many goroutines. All reads return deep copies.
type Store struct {
	mu      sync.RWMutex
	seq     *Sequence
	records []model.Record
	now     func() time.Time

	// gen counts completed mutations. Persistence collaborators compare it
	// across snapshots to skip saves when nothing changed.
	gen uint64
}

// New creates an empty store with its own identifier sequence.
// If now is nil, time.Now (UTC) is used.
func New(prefix string, now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		seq: NewSequence(prefix),
		now: now,
	}
}

// Record creates a new active record and appends it to the ledger.
// Creation order is the canonical iteration order.
func (s *Store) Record(title, decision, rationale, decisionMaker string, in RecordInput) (model.Record, error) {
	if title == "" {
		return model.Record{}, fmt.Errorf("ledger: title is required")
	}
	if decision == "" {
		return model.Record{}, fmt.Errorf("ledger: decision is required")
	}
	if rationale == "" {
		return model.Record{}, fmt.Errorf("ledger: rationale is required")
	}
	if decisionMaker == "" {
		return model.Record{}, fmt.Errorf("ledger: decision_maker is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.record(title, decision, rationale, decisionMaker, in), nil
}

// record appends a new record. Caller must hold the write lock and must
// have validated the required fields.
func (s *Store) record(title, decision, rationale, decisionMaker string, in RecordInput) model.Record {
	rec := model.Record{
		ID:            s.seq.Next(),
		Timestamp:     s.now(),
		Title:         title,
		Decision:      decision,
		Rationale:     rationale,
		DecisionMaker: decisionMaker,
		Context:       in.Context,
		Status:        model.StatusActive,
	}
	if len(in.Alternatives) > 0 {
		rec.Alternatives = make([]model.Alternative, len(in.Alternatives))
		copy(rec.Alternatives, in.Alternatives)
	}
	if len(in.Stakeholders) > 0 {
		rec.Stakeholders = make([]string, len(in.Stakeholders))
		copy(rec.Stakeholders, in.Stakeholders)
	}
	if len(in.Tags) > 0 {
		rec.Tags = make([]string, len(in.Tags))
		copy(rec.Tags, in.Tags)
	}
	s.records = append(s.records, rec)
	return rec.Clone()
}

// SetOutcome records the real-world result of a decision. The previous
// outcome, if any, is overwritten. Works on superseded and reversed records
// too, since outcomes can be recorded retroactively.
func (s *Store) SetOutcome(id, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index(id)
	if !ok {
		return fmt.Errorf("ledger: set outcome %s: %w", id, ErrNotFound)
	}
	s.records[i].Outcome = outcome
	s.gen++
	return nil
}

// Supersede marks the original record as superseded by the replacement.
// The replacement must already exist in the ledger (typically from a prior
// Record call); the link is structural only, with no semantic validation.
// The replacement record itself is not mutated.
func (s *Store) Supersede(originalID string, replacement model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index(originalID)
	if !ok {
		return fmt.Errorf("ledger: supersede %s: %w", originalID, ErrNotFound)
	}
	if _, ok := s.index(replacement.ID); !ok {
		return fmt.Errorf("ledger: supersede %s by %s: %w", originalID, replacement.ID, ErrNotFound)
	}
	s.records[i].Status = model.StatusSuperseded
	s.records[i].SupersededBy = replacement.ID
	s.gen++
	return nil
}

// Reverse explicitly undoes a decision: it marks the original as reversed
// and creates a new record documenting the reversal, carrying the original's
// tags plus the reversal tag. The new record is returned.
func (s *Store) Reverse(id, reversalReason, decisionMaker string) (model.Record, error) {
	if reversalReason == "" {
		return model.Record{}, fmt.Errorf("ledger: reversal reason is required")
	}
	if decisionMaker == "" {
		return model.Record{}, fmt.Errorf("ledger: decision_maker is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index(id)
	if !ok {
		return model.Record{}, fmt.Errorf("ledger: reverse %s: %w", id, ErrNotFound)
	}
	orig := s.records[i]

	tags := make([]string, 0, len(orig.Tags)+1)
	tags = append(tags, orig.Tags...)
	tags = append(tags, model.TagReversal)

	rev := s.record(
		"Reversal of: "+orig.Title,
		fmt.Sprintf("Reverses %s: %s", orig.ID, reversalReason),
		reversalReason,
		decisionMaker,
		RecordInput{
			Context: "Reversed decision: " + orig.Decision,
			Tags:    tags,
		},
	)

	s.records[i].Status = model.StatusReversed
	s.records[i].SupersededBy = rev.ID
	s.gen++
	return rev, nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index(id)
	if !ok {
		return model.Record{}, fmt.Errorf("ledger: get %s: %w", id, ErrNotFound)
	}
	return s.records[i].Clone(), nil
}

// All returns a deep copy of every record in creation order.
func (s *Store) All() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Generation returns the number of mutations applied so far. It changes on
// every successful Record, SetOutcome, Supersede, Reverse, Import, and Clear.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Len returns the number of records in the ledger.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear empties the store and resets the identifier sequence.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.seq.Reset()
	s.gen++
}

// Export returns a deep copy of all records for persistence.
func (s *Store) Export() []model.Record {
	return s.All()
}

// Import replaces the entire collection with the supplied records and
// resumes the identifier sequence one past the highest numeric suffix seen.
// Lifecycle invariants of the imported data are not validated; the source
// is trusted; the lineage resolver's cycle guard covers malformed links.
func (s *Store) Import(records []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]model.Record, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		s.records[i] = r.Clone()
		ids[i] = r.ID
	}
	s.seq.Resume(ids)
	s.gen++
}

// index returns the position of id in creation order. Caller must hold a lock.
func (s *Store) index(id string) (int, bool) {
	for i := range s.records {
		if s.records[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// snapshot deep-copies the record slice. Caller must hold a lock.
func (s *Store) snapshot() []model.Record {
	out := make([]model.Record, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].Clone()
	}
	return out
}
