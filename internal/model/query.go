package model

import (
	"time"
)

// QueryFilters defines the predicates for structured ledger queries.
// All fields are optional; an omitted predicate imposes no constraint.
// Supplied predicates compose with logical AND.
type QueryFilters struct {
	// Tags matches records carrying any of the supplied tags.
	Tags []string `json:"tags,omitempty"`
	// DecisionMaker matches exactly.
	DecisionMaker *string `json:"decision_maker,omitempty"`
	// Stakeholder matches records whose stakeholder set contains the value.
	Stakeholder *string `json:"stakeholder,omitempty"`
	// Status matches exactly.
	Status *Status `json:"status,omitempty"`
	// TimeRange bounds the record timestamp, inclusive on both ends.
	TimeRange *TimeRange `json:"time_range,omitempty"`
	// Search is a case-insensitive substring matched against title, decision,
	// and rationale; a record matches if any of the three contains it.
	Search *string `json:"search,omitempty"`
}

// TimeRange defines an inclusive time range for queries.
type TimeRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// QueryRequest is the request body for POST /v1/query.
type QueryRequest struct {
	Filters QueryFilters `json:"filters"`
	Limit   int          `json:"limit,omitempty"`
}
