package ledger

import (
	"github.com/ashita-ai/keifu/internal/model"
)

// Report summarizes the ledger: total count, per-status counts, the list of
// currently-active decisions, and the five most-recently-created records.
// It is built from Query calls plus creation-order slicing, with no independent
// bookkeeping.
func (s *Store) Report() model.Report {
	all := s.All() // creation order

	counts := make(map[model.Status]int, 3)
	for _, st := range []model.Status{model.StatusActive, model.StatusSuperseded, model.StatusReversed} {
		st := st
		counts[st] = len(s.Query(model.QueryFilters{Status: &st}))
	}

	active := model.StatusActive
	var activeEntries []model.ActiveEntry
	for _, r := range s.Query(model.QueryFilters{Status: &active}) {
		activeEntries = append(activeEntries, model.ActiveEntry{
			ID:            r.ID,
			Title:         r.Title,
			DecisionMaker: r.DecisionMaker,
		})
	}

	// Most recent by creation order, newest first.
	var recent []model.RecentEntry
	for i := len(all) - 1; i >= 0 && len(recent) < model.ReportRecentLimit; i-- {
		recent = append(recent, model.RecentEntry{
			Date:  all[i].Timestamp.Format("2006-01-02"),
			ID:    all[i].ID,
			Title: all[i].Title,
		})
	}

	return model.Report{
		GeneratedAt:  s.now(),
		Total:        len(all),
		StatusCounts: counts,
		Active:       activeEntries,
		Recent:       recent,
	}
}
