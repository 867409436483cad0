// Package backfill selects daily source files that never got a single-day
// report, so they can be generated after the fact.
package backfill

import (
	"sort"
	"time"
)

// Candidate pairs a daily source file with the report it should have.
type Candidate struct {
	Date       time.Time `json:"date"`
	SourceName string    `json:"source_name"`
	ReportName string    `json:"report_name"`
	HasReport  bool      `json:"has_report"`
}

// Summary captures one backfill pass over the candidates.
type Summary struct {
	Total          int         `json:"total"`
	AlreadyPresent int         `json:"already_present"`
	Missing        int         `json:"missing"`
	Selected       []Candidate `json:"selected"`
	Generated      int         `json:"generated"`
	Failed         int         `json:"failed"`
}

// SelectMissing picks the candidates without a report, newest first, up to
// limit. A non-positive limit selects all of them.
func SelectMissing(cands []Candidate, limit int) Summary {
	summary := Summary{Total: len(cands)}
	for _, c := range cands {
		if c.HasReport {
			summary.AlreadyPresent++
			continue
		}
		summary.Selected = append(summary.Selected, c)
	}
	summary.Missing = len(summary.Selected)

	sort.Slice(summary.Selected, func(i, j int) bool {
		return summary.Selected[i].Date.After(summary.Selected[j].Date)
	})
	if limit > 0 && len(summary.Selected) > limit {
		summary.Selected = summary.Selected[:limit]
	}
	return summary
}
