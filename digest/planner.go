package digest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNoDates is returned when a plan is requested over an empty window.
var ErrNoDates = errors.New("no covered dates to plan")

// PlanDigest derives the digest identity from the covered dates: the
// deduplicated date set plus the output name built from its minimum and
// maximum. A one-date window, or a window whose dates all collapse to the
// same day, yields the single-day name. Every generation path goes through
// here; there is exactly one place output names come from.
func PlanDigest(covered []time.Time) (Plan, error) {
	if len(covered) == 0 {
		return Plan{}, ErrNoDates
	}
	dates := dedupeDates(covered)
	start := dates[0]
	end := dates[len(dates)-1]
	if start.After(end) {
		return Plan{}, fmt.Errorf("digest plan: start %s after end %s",
			start.Format(SourceDateLayout), end.Format(SourceDateLayout))
	}
	plan := Plan{Start: start, End: end, Dates: dates}
	if start.Equal(end) {
		plan.OutputName = SingleDayName(end)
	} else {
		plan.OutputName = MultiDayName(start, end)
	}
	return plan, nil
}

// AlreadyExists reports whether a document with the planned name is present
// in the output store. It stats the filesystem every time; the directory is
// the source of truth, never a cached model.
func AlreadyExists(outputDir, name string) bool {
	_, err := os.Stat(filepath.Join(outputDir, name))
	return err == nil
}

func dedupeDates(in []time.Time) []time.Time {
	seen := make(map[string]struct{}, len(in))
	out := make([]time.Time, 0, len(in))
	for _, d := range in {
		d = DateOnly(d)
		key := d.Format(SourceDateLayout)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
