package model

import (
	"time"
)

// Status is a record's lifecycle state.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuperseded Status = "superseded"
	StatusReversed   Status = "reversed"
)

// Valid reports whether s is one of the defined lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuperseded, StatusReversed:
		return true
	}
	return false
}

// TagReversal is added to every record created by a reversal.
const TagReversal = "reversal"

// Record is one entry in the decision ledger.
//
// Everything except Status, SupersededBy, and Outcome is immutable after
// creation. Status transitions are monotone: active → superseded or
// active → reversed, both terminal. SupersededBy is set exactly once, by
// the store, and always names a record that exists at link time.
type Record struct {
	ID            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	Title         string        `json:"title"`
	Decision      string        `json:"decision"`
	Rationale     string        `json:"rationale"`
	Alternatives  []Alternative `json:"alternatives,omitempty"`
	DecisionMaker string        `json:"decision_maker"`
	Stakeholders  []string      `json:"stakeholders,omitempty"`
	Context       string        `json:"context,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	Status        Status        `json:"status"`

	// SupersededBy is the ID of the record that replaced or reversed this
	// one. It is a plain identifier, not a structural reference; resolve
	// it through the store.
	SupersededBy string `json:"superseded_by,omitempty"`

	// Outcome is the real-world result of the decision, recorded once
	// known. Overwritten on re-set; no history of prior values is kept.
	Outcome string `json:"outcome,omitempty"`
}

// Alternative is an option considered and rejected for a decision. Immutable.
type Alternative struct {
	Description     string   `json:"description"`
	RejectionReason string   `json:"rejection_reason"`
	Score           *float32 `json:"score,omitempty"`
}

// Clone returns a deep copy of the record. Nested slices are copied so a
// caller holding the clone can never mutate ledger state in place.
func (r Record) Clone() Record {
	out := r
	if r.Alternatives != nil {
		out.Alternatives = make([]Alternative, len(r.Alternatives))
		copy(out.Alternatives, r.Alternatives)
	}
	if r.Stakeholders != nil {
		out.Stakeholders = make([]string, len(r.Stakeholders))
		copy(out.Stakeholders, r.Stakeholders)
	}
	if r.Tags != nil {
		out.Tags = make([]string, len(r.Tags))
		copy(out.Tags, r.Tags)
	}
	return out
}

// HasTag reports whether the record carries the given tag.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
