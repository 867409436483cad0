package digest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
)

// IndexDiff summarizes how an index repair changed the manifest.
type IndexDiff struct {
	Total int      `json:"total"`
	Stale []string `json:"stale"` // listed in the index but missing on disk
	Added []string `json:"added"` // on disk but absent from the index
}

// SnapshotNames lists the report documents currently in outputDir, sorted
// descending by name so the newest date strings come first.
func SnapshotNames(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != OutputExt {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// WriteIndex rewrites the manifest as a full snapshot of the output
// directory. It is never diffed against or merged with the previous index
// content, so it always agrees with the filesystem.
func WriteIndex(outputDir, indexPath string) (int, error) {
	names, err := SnapshotNames(outputDir)
	if err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(names, "", "    ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		return 0, err
	}
	return len(names), nil
}

// FixIndex reconciles the manifest with the output directory: it reports
// index entries pointing at files that no longer exist and files the index
// never learned about, then rewrites the manifest from disk truth.
func FixIndex(outputDir, indexPath string) (IndexDiff, error) {
	names, err := SnapshotNames(outputDir)
	if err != nil {
		return IndexDiff{}, err
	}
	onDisk := make(map[string]struct{}, len(names))
	for _, n := range names {
		onDisk[n] = struct{}{}
	}

	var current []string
	if data, err := os.ReadFile(indexPath); err == nil {
		if err := json.Unmarshal(data, &current); err != nil {
			log.Warnf("existing index %s is unreadable, rebuilding from scratch: %v", indexPath, err)
			current = nil
		}
	}
	listed := make(map[string]struct{}, len(current))
	for _, n := range current {
		listed[n] = struct{}{}
	}

	diff := IndexDiff{Total: len(names)}
	for _, n := range current {
		if _, ok := onDisk[n]; !ok {
			diff.Stale = append(diff.Stale, n)
		}
	}
	for _, n := range names {
		if _, ok := listed[n]; !ok {
			diff.Added = append(diff.Added, n)
		}
	}

	if _, err := WriteIndex(outputDir, indexPath); err != nil {
		return diff, err
	}
	return diff, nil
}
