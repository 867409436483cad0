package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSource(t *testing.T, dir string, day time.Time, body string) {
	t.Helper()
	name := day.Format(SourceDateLayout) + SourceExt
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write source %s: %v", name, err)
	}
}

func TestLoadSelectsMostRecentWindow(t *testing.T) {
	dir := t.TempDir()
	// Twelve consecutive days; only the newest ten may be loaded.
	for i := 1; i <= 12; i++ {
		day := date(2024, 1, i)
		writeSource(t, dir, day, fmt.Sprintf(`[{"title":"p%d","overall_priority_score":%d}]`, i, i))
	}

	out := Load(dir, 10)
	if len(out.CoveredDates) != 10 {
		t.Fatalf("expected 10 covered dates, got %d", len(out.CoveredDates))
	}
	plan, err := PlanDigest(out.CoveredDates)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.OutputName != "2024_01_03_to_2024_01_12.html" {
		t.Fatalf("expected window to drop the two oldest days, got %s", plan.OutputName)
	}
	if len(out.Records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(out.Records))
	}
}

func TestLoadCapsWindowAtTen(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 12; i++ {
		writeSource(t, dir, date(2024, 1, i), `[]`)
	}
	out := Load(dir, 45)
	if len(out.CoveredDates) != 10 {
		t.Fatalf("window should be capped at 10 days, got %d", len(out.CoveredDates))
	}
}

func TestLoadSkipsMalformedWithoutBackfill(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, date(2024, 1, 1), `[{"title":"old"}]`)
	writeSource(t, dir, date(2024, 1, 2), `[{"title":"a"}]`)
	writeSource(t, dir, date(2024, 1, 3), `{"title":"not an array"}`)
	writeSource(t, dir, date(2024, 1, 4), `[{"title":"b"}]`)

	out := Load(dir, 3)
	if out.SkippedSources != 1 {
		t.Fatalf("expected 1 skipped source, got %d", out.SkippedSources)
	}
	// The malformed day drops out of the covered dates, and the window is
	// not widened to pull in 2024-01-01.
	if len(out.CoveredDates) != 2 {
		t.Fatalf("expected 2 covered dates, got %v", out.CoveredDates)
	}
	for _, d := range out.CoveredDates {
		if d.Equal(date(2024, 1, 1)) {
			t.Fatal("window must not backfill with older files")
		}
		if d.Equal(date(2024, 1, 3)) {
			t.Fatal("malformed day must not be covered")
		}
	}
}

func TestLoadIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, date(2024, 1, 2), `[{"title":"a"}]`)
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "2024-01-03.txt"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	out := Load(dir, 10)
	if len(out.CoveredDates) != 1 {
		t.Fatalf("expected 1 covered date, got %v", out.CoveredDates)
	}
	if out.SkippedSources != 0 {
		t.Fatalf("foreign files are not skipped sources, got %d", out.SkippedSources)
	}
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	out := Load(filepath.Join(t.TempDir(), "nope"), 10)
	if len(out.Records) != 0 || len(out.CoveredDates) != 0 {
		t.Fatalf("missing dir should load nothing, got %+v", out)
	}
}

func TestRecordsKeepRawPayload(t *testing.T) {
	dir := t.TempDir()
	body := `[{"title":"a","nested":{"weird_field":[1,2,3]},"overall_priority_score":7.5}]`
	writeSource(t, dir, date(2024, 1, 2), body)

	out := Load(dir, 10)
	if len(out.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out.Records))
	}
	rec := out.Records[0]
	if rec.Score != 7.5 {
		t.Fatalf("expected score 7.5, got %v", rec.Score)
	}
	if rec.SourceDateISO() != "2024-01-02" {
		t.Fatalf("unexpected source date %s", rec.SourceDateISO())
	}
	if string(rec.Raw) != `{"title":"a","nested":{"weird_field":[1,2,3]},"overall_priority_score":7.5}` {
		t.Fatalf("raw payload was not preserved: %s", rec.Raw)
	}
}

func TestSortByPriorityStable(t *testing.T) {
	records := []Record{
		{Score: 1, Raw: []byte(`"a"`)},
		{Score: 5, Raw: []byte(`"b"`)},
		{Score: 5, Raw: []byte(`"c"`)},
		{Score: 3, Raw: []byte(`"d"`)},
	}
	SortByPriority(records)
	got := ""
	for _, r := range records {
		got += string(r.Raw)
	}
	if got != `"b""c""d""a"` {
		t.Fatalf("unexpected order: %s", got)
	}
}

func TestRecordWithoutScoreSortsAsZero(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, date(2024, 1, 2), `[{"title":"unscored"},{"title":"scored","overall_priority_score":2}]`)
	out := Load(dir, 10)
	SortByPriority(out.Records)
	if out.Records[0].Score != 2 || out.Records[1].Score != 0 {
		t.Fatalf("unexpected scores after sort: %v then %v", out.Records[0].Score, out.Records[1].Score)
	}
}
