package ledger

import (
	"sort"
	"strings"

	"github.com/ashita-ai/keifu/internal/model"
)

// Query filters the ledger by the supplied predicates and returns deep
// copies sorted by timestamp descending (most recent first). Predicates
// compose with AND; an empty filter set returns every record, sorted.
func (s *Store) Query(f model.QueryFilters) []model.Record {
	s.mu.RLock()
	out := make([]model.Record, 0, len(s.records))
	for i := range s.records {
		if matches(s.records[i], f) {
			out = append(out, s.records[i].Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func matches(r model.Record, f model.QueryFilters) bool {
	if len(f.Tags) > 0 && !hasAnyTag(r, f.Tags) {
		return false
	}
	if f.DecisionMaker != nil && r.DecisionMaker != *f.DecisionMaker {
		return false
	}
	if f.Stakeholder != nil && !hasStakeholder(r, *f.Stakeholder) {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.TimeRange != nil {
		if f.TimeRange.From != nil && r.Timestamp.Before(*f.TimeRange.From) {
			return false
		}
		if f.TimeRange.To != nil && r.Timestamp.After(*f.TimeRange.To) {
			return false
		}
	}
	if f.Search != nil && !containsFold(r, *f.Search) {
		return false
	}
	return true
}

// hasAnyTag reports whether r carries at least one of the given tags.
func hasAnyTag(r model.Record, tags []string) bool {
	for _, t := range tags {
		if r.HasTag(t) {
			return true
		}
	}
	return false
}

func hasStakeholder(r model.Record, who string) bool {
	for _, s := range r.Stakeholders {
		if s == who {
			return true
		}
	}
	return false
}

// containsFold matches a case-insensitive substring against title,
// decision, and rationale; any of the three suffices.
func containsFold(r model.Record, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(r.Title), needle) ||
		strings.Contains(strings.ToLower(r.Decision), needle) ||
		strings.Contains(strings.ToLower(r.Rationale), needle)
}
