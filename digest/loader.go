package digest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// MaxWindowDays caps the lookback window regardless of what the caller asks
// for, so one bad flag cannot aggregate an unbounded range.
const MaxWindowDays = 10

type datedFile struct {
	date time.Time
	name string
}

// Load enumerates sourceDir for daily source files, selects the maxDays most
// recent dates, and merges their records newest day first. A missing
// directory or an empty selection is a no-op, not an error. A source whose
// content does not parse is skipped with a warning and drops out of the
// covered dates; the window is not backfilled with an older file to make up
// the count.
func Load(sourceDir string, maxDays int) LoadResult {
	if maxDays <= 0 || maxDays > MaxWindowDays {
		maxDays = MaxWindowDays
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		log.Warnf("scan source dir %s: %v", sourceDir, err)
		return LoadResult{}
	}

	var files []datedFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != SourceExt {
			continue
		}
		date, ok := ParseSourceDate(entry.Name())
		if !ok {
			continue
		}
		files = append(files, datedFile{date: date, name: entry.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].date.After(files[j].date) })
	if len(files) > maxDays {
		files = files[:maxDays]
	}

	var out LoadResult
	for _, f := range files {
		path := filepath.Join(sourceDir, f.name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("read %s: %v", path, err)
			out.SkippedSources++
			continue
		}
		records, ok := parseRecords(data, f.date)
		if !ok {
			log.Warnf("skipping %s: content is not a JSON array of records", path)
			out.SkippedSources++
			continue
		}
		out.Records = append(out.Records, records...)
		out.CoveredDates = append(out.CoveredDates, f.date)
	}
	return out
}

// parseRecords decodes one daily source body, keeping each record's raw
// bytes intact and lifting out only the priority score.
func parseRecords(data []byte, date time.Time) ([]Record, bool) {
	if !gjson.ValidBytes(data) {
		return nil, false
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, false
	}
	var records []Record
	for _, item := range parsed.Array() {
		records = append(records, Record{
			Raw:        json.RawMessage(item.Raw),
			Score:      item.Get(priorityField).Float(),
			SourceDate: date,
		})
	}
	return records, true
}

// SortByPriority orders the combined record set by priority score
// descending. The sort is stable, so equal-score records keep their merge
// order and stay contiguous.
func SortByPriority(records []Record) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Score > records[j].Score })
}
