package digest

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// SourceDateLayout is the calendar-date stem of daily source files
	// (2024-01-02.json).
	SourceDateLayout = "2006-01-02"

	// outputDateLayout is the underscore form used in report filenames
	// (2024_01_02.html).
	outputDateLayout = "2006_01_02"

	// MultiDayMarker separates the start and end dates in a multi-day
	// report name.
	MultiDayMarker = "_to_"

	// SourceExt and OutputExt are the fixed file extensions of the source
	// and output stores.
	SourceExt = ".json"
	OutputExt = ".html"
)

// Kind classifies a report document by its filename shape.
type Kind int

const (
	KindSingleDay Kind = iota
	KindMultiDay
)

// OutputFile is a report document classified from its name alone.
type OutputFile struct {
	Name          string
	Kind          Kind
	RetentionDate time.Time
}

// ParseSourceDate extracts the calendar date from a daily source filename.
// The stem (base name without extension) must be an ISO date; anything else
// is not a daily source.
func ParseSourceDate(filename string) (time.Time, bool) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	t, err := time.Parse(SourceDateLayout, stem)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatOutputDate renders a date in the underscore filename form.
func FormatOutputDate(t time.Time) string { return t.Format(outputDateLayout) }

// ParseOutputDate parses the underscore filename form.
func ParseOutputDate(s string) (time.Time, bool) {
	t, err := time.Parse(outputDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SingleDayName returns the report filename covering exactly one date.
func SingleDayName(date time.Time) string {
	return FormatOutputDate(date) + OutputExt
}

// MultiDayName returns the report filename covering a start/end date pair.
func MultiDayName(start, end time.Time) string {
	return FormatOutputDate(start) + MultiDayMarker + FormatOutputDate(end) + OutputExt
}

// ClassifyOutputName determines a document's shape and retention date from
// its filename. Multi-day names take the date after the marker, which is the
// encoded end date and therefore the more recent boundary of the pair.
// Names that parse under neither shape return false and are never eligible
// for deletion.
func ClassifyOutputName(name string) (OutputFile, bool) {
	stem := strings.TrimSuffix(name, OutputExt)
	if !strings.Contains(stem, MultiDayMarker) {
		d, ok := ParseOutputDate(stem)
		if !ok {
			return OutputFile{}, false
		}
		return OutputFile{Name: name, Kind: KindSingleDay, RetentionDate: d}, true
	}
	parts := strings.Split(stem, MultiDayMarker)
	d, ok := ParseOutputDate(parts[len(parts)-1])
	if !ok {
		return OutputFile{}, false
	}
	return OutputFile{Name: name, Kind: KindMultiDay, RetentionDate: d}, true
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
