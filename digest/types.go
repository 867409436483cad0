package digest

import (
	"encoding/json"
	"time"
)

// Final statuses a run can report.
const (
	StatusGenerated     = "generated"
	StatusAlreadyExists = "already_exists"
	StatusNoSources     = "no_sources"
	StatusNoRecords     = "no_records"
	StatusUpToDate      = "up_to_date"
	StatusSwept         = "swept"
	StatusFailed        = "failed"
)

// priorityField is the only record field the engine interprets. A record
// without it sorts as zero.
const priorityField = "overall_priority_score"

// Record is one paper entry from a daily source file. The payload stays
// opaque and reaches the renderer byte for byte; the engine carries the
// priority score and the originating date alongside.
type Record struct {
	Raw        json.RawMessage
	Score      float64
	SourceDate time.Time
}

// SourceDateISO returns the originating date in ISO form.
func (r Record) SourceDateISO() string { return r.SourceDate.Format(SourceDateLayout) }

// LoadResult is what one pass over the source store produced.
type LoadResult struct {
	Records        []Record
	CoveredDates   []time.Time
	SkippedSources int
}

// Plan is the digest identity derived from the covered dates: the
// deduplicated date set ascending, its boundaries, and the output name those
// boundaries imply. Two plans over the same date set always carry the same
// name.
type Plan struct {
	OutputName string
	Start      time.Time
	End        time.Time
	Dates      []time.Time
}

// SingleDay reports whether the plan collapses to the single-day shape.
func (p Plan) SingleDay() bool { return p.Start.Equal(p.End) }

// SweepResult lists what one retention sweep did with each document.
type SweepResult struct {
	Kept    []string
	Deleted []string
	Skipped []string
}

// RunResult is the orchestrator's report of one run.
type RunResult struct {
	RunID        string
	Status       string
	OutputName   string
	DayCount     int
	RecordCount  int
	KeptCount    int
	DeletedCount int
}
