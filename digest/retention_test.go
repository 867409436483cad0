package digest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeReport(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("<html></html>"), 0o644); err != nil {
		t.Fatalf("write report %s: %v", name, err)
	}
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func TestSweepDeletesAgedMultiDayKeepsSingleDay(t *testing.T) {
	dir := t.TempDir()
	today := date(2024, 2, 15)
	writeReport(t, dir, "2024_01_01_to_2024_01_10.html") // end date 36 days old
	writeReport(t, dir, "2024_02_01.html")               // single-day, old but exempt
	writeReport(t, dir, "2024_02_06_to_2024_02_15.html") // current window

	res, err := Sweep(dir, DefaultKeepWindows, today)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !contains(res.Deleted, "2024_01_01_to_2024_01_10.html") {
		t.Fatalf("expected aged multi-day report deleted, got %+v", res)
	}
	if !contains(res.Kept, "2024_02_01.html") || !contains(res.Kept, "2024_02_06_to_2024_02_15.html") {
		t.Fatalf("expected single-day and recent reports kept, got %+v", res)
	}
	if AlreadyExists(dir, "2024_01_01_to_2024_01_10.html") {
		t.Fatal("deleted report still on disk")
	}
	if !AlreadyExists(dir, "2024_02_01.html") {
		t.Fatal("single-day report was removed")
	}
}

func TestSweepBoundaryDates(t *testing.T) {
	dir := t.TempDir()
	today := date(2024, 2, 15)
	// End date exactly 30 days old sits on the longest window boundary and
	// survives; 31 days old does not.
	writeReport(t, dir, "2024_01_07_to_2024_01_16.html") // 30 days
	writeReport(t, dir, "2024_01_06_to_2024_01_15.html") // 31 days

	res, err := Sweep(dir, DefaultKeepWindows, today)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !contains(res.Kept, "2024_01_07_to_2024_01_16.html") {
		t.Fatalf("boundary report should be kept, got %+v", res)
	}
	if !contains(res.Deleted, "2024_01_06_to_2024_01_15.html") {
		t.Fatalf("report past the horizon should be deleted, got %+v", res)
	}
}

func TestSweepSkipsUnparsableNames(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, dir, "index.html")
	writeReport(t, dir, "report_to_archive.html")

	res, err := Sweep(dir, DefaultKeepWindows, date(2024, 2, 15))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(res.Deleted) != 0 {
		t.Fatalf("unparsable names must never be deleted, got %+v", res.Deleted)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped, got %+v", res.Skipped)
	}
	if !AlreadyExists(dir, "index.html") || !AlreadyExists(dir, "report_to_archive.html") {
		t.Fatal("skipped files must remain on disk")
	}
}

func TestSweepMissingDirErrors(t *testing.T) {
	if _, err := Sweep(filepath.Join(t.TempDir(), "nope"), DefaultKeepWindows, date(2024, 2, 15)); err == nil {
		t.Fatal("expected error for missing output dir")
	}
}

func TestRetentionMonotonic(t *testing.T) {
	// Anything retained by a shorter window is retained by a longer one, so
	// widening the windows can only keep more files.
	today := date(2024, 2, 15)
	for days := 0; days <= 40; days++ {
		end := today.AddDate(0, 0, -days)
		narrow := retained(end, []int{10}, today)
		wide := retained(end, []int{10, 20, 30}, today)
		if narrow && !wide {
			t.Fatalf("file retained by narrow windows but dropped by wide ones at age %d", days)
		}
	}
}

func TestRetainedWindowUnion(t *testing.T) {
	today := date(2024, 2, 15)
	cases := []struct {
		age  int
		want bool
	}{
		{0, true},
		{10, true},
		{25, true},
		{30, true},
		{31, false},
	}
	for _, tc := range cases {
		end := today.AddDate(0, 0, -tc.age)
		if got := retained(end, DefaultKeepWindows, today); got != tc.want {
			t.Fatalf("age %d: retained=%v, want %v", tc.age, got, tc.want)
		}
	}
}
