package model

import (
	"fmt"
	"strings"
	"time"
)

// ReportRecentLimit is how many recently-created records a report lists.
const ReportRecentLimit = 5

// Report is a point-in-time summary of the ledger.
type Report struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	Total        int            `json:"total"`
	StatusCounts map[Status]int `json:"status_counts"`
	Active       []ActiveEntry  `json:"active"`
	Recent       []RecentEntry  `json:"recent"`
}

// ActiveEntry is one currently-active decision in a report.
type ActiveEntry struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	DecisionMaker string `json:"decision_maker"`
}

// RecentEntry is one recently-created record in a report, with a day-level date.
type RecentEntry struct {
	Date  string `json:"date"` // YYYY-MM-DD
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Render formats the report as a human-readable summary.
func (r Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision ledger report (%s)\n", r.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total decisions: %d\n", r.Total)
	for _, s := range []Status{StatusActive, StatusSuperseded, StatusReversed} {
		fmt.Fprintf(&b, "  %s: %d\n", s, r.StatusCounts[s])
	}
	b.WriteString("Active decisions:\n")
	if len(r.Active) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, a := range r.Active {
		fmt.Fprintf(&b, "  %s  %s (%s)\n", a.ID, a.Title, a.DecisionMaker)
	}
	b.WriteString("Recent activity:\n")
	if len(r.Recent) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range r.Recent {
		fmt.Fprintf(&b, "  %s  %s  %s\n", e.Date, e.ID, e.Title)
	}
	return b.String()
}
