package keifu

import (
	"time"

	"github.com/ashita-ai/keifu/internal/model"
)

// Status is a decision record's lifecycle state.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuperseded Status = "superseded"
	StatusReversed   Status = "reversed"
)

// Record is the public representation of a ledger entry. It is a curated
// view of internal/model.Record for use by embedding consumers. No internal
// package imports in the field types, so it is safe to use from outside the
// module.
type Record struct {
	ID            string
	Timestamp     time.Time
	Title         string
	Decision      string
	Rationale     string
	Alternatives  []Alternative
	DecisionMaker string
	Stakeholders  []string
	Context       string
	Tags          []string
	Status        Status
	SupersededBy  string
	Outcome       string
}

// Alternative is an option considered and rejected for a decision.
type Alternative struct {
	Description     string
	RejectionReason string
	Score           *float32
}

func recordFromModel(r model.Record) Record {
	out := Record{
		ID:            r.ID,
		Timestamp:     r.Timestamp,
		Title:         r.Title,
		Decision:      r.Decision,
		Rationale:     r.Rationale,
		DecisionMaker: r.DecisionMaker,
		Stakeholders:  r.Stakeholders,
		Context:       r.Context,
		Tags:          r.Tags,
		Status:        Status(r.Status),
		SupersededBy:  r.SupersededBy,
		Outcome:       r.Outcome,
	}
	for _, alt := range r.Alternatives {
		out.Alternatives = append(out.Alternatives, Alternative{
			Description:     alt.Description,
			RejectionReason: alt.RejectionReason,
			Score:           alt.Score,
		})
	}
	return out
}
