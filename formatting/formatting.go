package formatting

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTitlePrefix names the feed the reports are built from.
const DefaultTitlePrefix = "ArXiv CS.CV Papers (Image/Video Generation)"

const humanDateLayout = "January 02, 2006"

// HumanDate renders a calendar date the way report titles and bylines show it.
func HumanDate(t time.Time) string { return t.Format(humanDateLayout) }

// DateRange renders a start/end pair, collapsing to a single date when both
// ends fall on the same day.
func DateRange(start, end time.Time) string {
	if sameDay(start, end) {
		return HumanDate(start)
	}
	return fmt.Sprintf("%s - %s", HumanDate(start), HumanDate(end))
}

// ReportTitle builds the page title for a report covering start through end.
func ReportTitle(prefix string, start, end time.Time) string {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultTitlePrefix
	}
	return fmt.Sprintf("%s - %s", prefix, DateRange(start, end))
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
