package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/keifu/internal/model"
)

// testClock returns a clock that advances one minute per call, so every
// record gets a distinct, ordered timestamp.
func testClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New("DEC", testClock())
}

func mustRecord(t *testing.T, s *Store, title, maker string, in RecordInput) model.Record {
	t.Helper()
	rec, err := s.Record(title, "decision for "+title, "rationale for "+title, maker, in)
	require.NoError(t, err)
	return rec
}

func TestRecord_AssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	first := mustRecord(t, s, "Use Postgres", "alice", RecordInput{})
	second := mustRecord(t, s, "Use Redis", "bob", RecordInput{})
	third := mustRecord(t, s, "Use Kafka", "alice", RecordInput{})

	assert.Equal(t, "DEC-001", first.ID)
	assert.Equal(t, "DEC-002", second.ID)
	assert.Equal(t, "DEC-003", third.ID)
	assert.Equal(t, model.StatusActive, first.Status)
	assert.False(t, first.Timestamp.IsZero())
	assert.True(t, second.Timestamp.After(first.Timestamp))
}

func TestRecord_RequiredFields(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		name                                string
		title, decision, rationale, maker   string
	}{
		{"missing title", "", "d", "r", "alice"},
		{"missing decision", "t", "", "r", "alice"},
		{"missing rationale", "t", "d", "", "alice"},
		{"missing decision_maker", "t", "d", "r", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Record(tc.title, tc.decision, tc.rationale, tc.maker, RecordInput{})
			require.Error(t, err)
		})
	}
	assert.Equal(t, 0, s.Len())
}

func TestRecord_CopiesOptionalFields(t *testing.T) {
	s := newTestStore(t)

	tags := []string{"storage", "urgent"}
	alts := []model.Alternative{{Description: "MySQL", RejectionReason: "weaker JSON support"}}
	rec := mustRecord(t, s, "Use Postgres", "alice", RecordInput{
		Tags:         tags,
		Alternatives: alts,
		Stakeholders: []string{"platform", "data"},
		Context:      "storage selection for v2",
	})

	// Mutating the caller's slices must not affect the stored record.
	tags[0] = "mutated"
	alts[0].Description = "mutated"

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"storage", "urgent"}, got.Tags)
	assert.Equal(t, "MySQL", got.Alternatives[0].Description)
	assert.Equal(t, "storage selection for v2", got.Context)
}

func TestGet_ReturnsDeepCopy(t *testing.T) {
	s := newTestStore(t)
	rec := mustRecord(t, s, "Use Postgres", "alice", RecordInput{Tags: []string{"storage"}})

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	got.Status = model.StatusReversed

	again, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"storage"}, again.Tags)
	assert.Equal(t, model.StatusActive, again.Status)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("DEC-999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetOutcome(t *testing.T) {
	s := newTestStore(t)
	rec := mustRecord(t, s, "Use Postgres", "alice", RecordInput{})

	require.NoError(t, s.SetOutcome(rec.ID, "migration completed without downtime"))
	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "migration completed without downtime", got.Outcome)

	// Re-setting overwrites; no history is kept.
	require.NoError(t, s.SetOutcome(rec.ID, "rolled back after incident"))
	got, err = s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "rolled back after incident", got.Outcome)

	require.ErrorIs(t, s.SetOutcome("DEC-999", "whatever"), ErrNotFound)
}

func TestSetOutcome_AllowedOnTerminalRecords(t *testing.T) {
	s := newTestStore(t)
	orig := mustRecord(t, s, "Use Postgres", "alice", RecordInput{})
	repl := mustRecord(t, s, "Use SQLite", "bob", RecordInput{})
	require.NoError(t, s.Supersede(orig.ID, repl))

	// Outcomes can be recorded retroactively on superseded records.
	require.NoError(t, s.SetOutcome(orig.ID, "served us well for two years"))
	got, err := s.Get(orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "served us well for two years", got.Outcome)
}

func TestSupersede(t *testing.T) {
	s := newTestStore(t)
	orig := mustRecord(t, s, "Use Postgres", "alice", RecordInput{})
	repl := mustRecord(t, s, "Use SQLite", "bob", RecordInput{})

	require.NoError(t, s.Supersede(orig.ID, repl))

	got, err := s.Get(orig.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuperseded, got.Status)
	assert.Equal(t, repl.ID, got.SupersededBy)

	// The replacement is never mutated by the link.
	gotRepl, err := s.Get(repl.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, gotRepl.Status)
	assert.Empty(t, gotRepl.SupersededBy)
}

func TestSupersede_NotFound(t *testing.T) {
	s := newTestStore(t)
	repl := mustRecord(t, s, "Use SQLite", "bob", RecordInput{})

	require.ErrorIs(t, s.Supersede("DEC-999", repl), ErrNotFound)

	// The replacement must exist at link time, never a dangling reference.
	orig := mustRecord(t, s, "Use Postgres", "alice", RecordInput{})
	require.ErrorIs(t, s.Supersede(orig.ID, model.Record{ID: "DEC-999"}), ErrNotFound)

	got, err := s.Get(orig.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
}

func TestReverse(t *testing.T) {
	s := newTestStore(t)
	orig := mustRecord(t, s, "Use SQLite", "bob", RecordInput{Tags: []string{"storage"}})

	rev, err := s.Reverse(orig.ID, "SQLite insufficient at scale", "alice")
	require.NoError(t, err)

	assert.Equal(t, "DEC-002", rev.ID)
	assert.Equal(t, model.StatusActive, rev.Status)
	assert.Equal(t, "alice", rev.DecisionMaker)
	assert.Contains(t, rev.Title, orig.Title)
	assert.Contains(t, rev.Decision, orig.ID)
	assert.Contains(t, rev.Decision, "SQLite insufficient at scale")
	assert.Contains(t, rev.Context, orig.Decision)
	assert.ElementsMatch(t, []string{"storage", model.TagReversal}, rev.Tags)

	got, err := s.Get(orig.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReversed, got.Status)
	assert.Equal(t, rev.ID, got.SupersededBy)
	// Original tags are untouched.
	assert.Equal(t, []string{"storage"}, got.Tags)
}

func TestReverse_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Reverse("DEC-999", "reason", "alice")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestAll_CreationOrder(t *testing.T) {
	s := newTestStore(t)
	a := mustRecord(t, s, "A", "alice", RecordInput{})
	b := mustRecord(t, s, "B", "bob", RecordInput{})
	c := mustRecord(t, s, "C", "carol", RecordInput{})

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	// Defensive copy: mutating the returned slice leaves the store intact.
	all[0].Title = "mutated"
	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
}

func TestClear_ResetsSequence(t *testing.T) {
	s := newTestStore(t)
	mustRecord(t, s, "A", "alice", RecordInput{})
	mustRecord(t, s, "B", "bob", RecordInput{})

	s.Clear()
	assert.Equal(t, 0, s.Len())

	rec := mustRecord(t, s, "C", "carol", RecordInput{})
	assert.Equal(t, "DEC-001", rec.ID)
}

func TestExportImport_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	orig := mustRecord(t, s, "Use Postgres", "alice", RecordInput{Tags: []string{"storage"}})
	repl := mustRecord(t, s, "Use SQLite", "bob", RecordInput{})
	require.NoError(t, s.Supersede(orig.ID, repl))
	require.NoError(t, s.SetOutcome(orig.ID, "retired"))

	exported := s.Export()
	require.Len(t, exported, 2)

	fresh := New("DEC", testClock())
	fresh.Import(exported)

	assert.Equal(t, exported, fresh.Export())

	// Sequence resumes one past the highest numeric suffix.
	next := mustRecord(t, fresh, "Use Kafka", "carol", RecordInput{})
	assert.Equal(t, "DEC-003", next.ID)
}

func TestImport_MalformedSuffixesTolerated(t *testing.T) {
	s := newTestStore(t)
	s.Import([]model.Record{
		{ID: "DEC-abc", Title: "A", Status: model.StatusActive},
		{ID: "no-dash-suffix-x", Title: "B", Status: model.StatusActive},
	})

	// No suffix parsed: the sequence defaults back to 1.
	rec := mustRecord(t, s, "C", "alice", RecordInput{})
	assert.Equal(t, "DEC-001", rec.ID)
}

func TestImport_MixedSuffixes(t *testing.T) {
	s := newTestStore(t)
	s.Import([]model.Record{
		{ID: "DEC-007", Title: "A", Status: model.StatusActive},
		{ID: "DEC-oops", Title: "B", Status: model.StatusActive},
		{ID: "ADR-012", Title: "C", Status: model.StatusActive},
	})

	rec := mustRecord(t, s, "D", "alice", RecordInput{})
	assert.Equal(t, "DEC-013", rec.ID)
}

// TestLifecycleScenario walks the supersede-then-reverse flow end to end.
func TestLifecycleScenario(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Record("Use Postgres", "Adopt Postgres for storage", "Durability needs", "alice", RecordInput{})
	require.NoError(t, err)
	assert.Equal(t, "DEC-001", first.ID)

	second, err := s.Record("Use SQLite", "Switch to SQLite", "Simplicity", "bob", RecordInput{})
	require.NoError(t, err)
	assert.Equal(t, "DEC-002", second.ID)

	require.NoError(t, s.Supersede("DEC-001", second))
	got, err := s.Get("DEC-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuperseded, got.Status)
	assert.Equal(t, "DEC-002", got.SupersededBy)

	third, err := s.Reverse("DEC-002", "SQLite insufficient at scale", "alice")
	require.NoError(t, err)
	assert.Equal(t, "DEC-003", third.ID)
	assert.True(t, third.HasTag(model.TagReversal))

	got, err = s.Get("DEC-002")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReversed, got.Status)
	assert.Equal(t, "DEC-003", got.SupersededBy)

	chain := s.Lineage("DEC-001")
	require.Len(t, chain, 3)
	assert.Equal(t, "DEC-001", chain[0].ID)
	assert.Equal(t, "DEC-002", chain[1].ID)
	assert.Equal(t, "DEC-003", chain[2].ID)
}

func TestSequence_CustomPrefix(t *testing.T) {
	s := New("ADR", testClock())
	rec, err := s.Record("t", "d", "r", "alice", RecordInput{})
	require.NoError(t, err)
	assert.Equal(t, "ADR-001", rec.ID)
}

func TestGeneration_TracksMutations(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, uint64(0), s.Generation())

	rec := mustRecord(t, s, "Use Postgres", "alice", RecordInput{})
	assert.Equal(t, uint64(1), s.Generation())

	require.NoError(t, s.SetOutcome(rec.ID, "worked"))
	assert.Equal(t, uint64(2), s.Generation())

	// Reads do not move the generation.
	_, err := s.Get(rec.ID)
	require.NoError(t, err)
	s.All()
	assert.Equal(t, uint64(2), s.Generation())

	// Failed mutations do not move it either.
	require.Error(t, s.SetOutcome("DEC-999", "nope"))
	assert.Equal(t, uint64(2), s.Generation())

	s.Clear()
	assert.Equal(t, uint64(3), s.Generation())
}

func TestReverse_RequiredInputs(t *testing.T) {
	s := newTestStore(t)
	rec := mustRecord(t, s, "Use Postgres", "alice", RecordInput{})

	// The reason and maker become the reversal record's rationale and
	// decision_maker, which Record requires to be non-empty.
	_, err := s.Reverse(rec.ID, "", "bob")
	require.Error(t, err)
	_, err = s.Reverse(rec.ID, "benchmarks regressed", "")
	require.Error(t, err)

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
	assert.Equal(t, 1, s.Len())
}
