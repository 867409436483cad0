package digest

import (
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultKeepWindows retains multi-day digests whose end date falls within
// the last 10, 20, or 30 days. Windows are OR'ed; surviving any one is
// enough, so the longest window is the effective horizon.
var DefaultKeepWindows = []int{10, 20, 30}

// Sweep classifies every report in outputDir and deletes multi-day documents
// whose retention date has aged out of every keep window. Single-day reports
// are never deleted, no matter how old. Names that parse under neither shape
// are skipped with a warning and left untouched. A failed deletion is logged
// and the file counts as kept; the next sweep sees it again.
func Sweep(outputDir string, keepWindows []int, today time.Time) (SweepResult, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return SweepResult{}, err
	}
	if len(keepWindows) == 0 {
		keepWindows = DefaultKeepWindows
	}
	today = DateOnly(today)

	var res SweepResult
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != OutputExt {
			continue
		}
		doc, ok := ClassifyOutputName(name)
		if !ok {
			log.Warnf("cannot parse a report date from %s, leaving it alone", name)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if doc.Kind == KindSingleDay || retained(doc.RetentionDate, keepWindows, today) {
			res.Kept = append(res.Kept, name)
			continue
		}
		if err := os.Remove(filepath.Join(outputDir, name)); err != nil {
			log.Errorf("delete %s: %v", name, err)
			res.Kept = append(res.Kept, name)
			continue
		}
		log.Infof("deleted expired multi-day report %s (end date %s)", name, doc.RetentionDate.Format(SourceDateLayout))
		res.Deleted = append(res.Deleted, name)
	}
	return res, nil
}

// retained reports whether the retention date falls inside any keep window
// measured back from today.
func retained(retentionDate time.Time, keepWindows []int, today time.Time) bool {
	for _, days := range keepWindows {
		cutoff := today.AddDate(0, 0, -days)
		if !retentionDate.Before(cutoff) {
			return true
		}
	}
	return false
}
