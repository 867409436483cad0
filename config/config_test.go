package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBackfillLimitClamp(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("BACKFILL_LIMIT", "200")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BackfillLimit != maxBackfillLimit {
		t.Fatalf("expected backfill limit %d, got %d", maxBackfillLimit, cfg.BackfillLimit)
	}
}

func TestHTTPPortDefaultFormatting(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != ":9000" {
		t.Fatalf("expected HTTP_PORT to include colon, got %s", cfg.HTTPPort)
	}
}

func TestDigestMaxDaysHardCeiling(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DIGEST_MAX_DAYS", "45")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Digest.MaxDays != maxWindowDays {
		t.Fatalf("expected max days capped at %d, got %d", maxWindowDays, cfg.Digest.MaxDays)
	}
}

func TestKeepWindowsFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DIGEST_KEEP_WINDOWS", "7, 14,21")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	want := []int{7, 14, 21}
	if !reflect.DeepEqual(cfg.Digest.KeepWindows, want) {
		t.Fatalf("expected keep windows %v, got %v", want, cfg.Digest.KeepWindows)
	}
}

func TestKeepWindowsRejectedUnderStrictConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STRICT_CONFIG", "1")
	t.Setenv("DIGEST_KEEP_WINDOWS", "10,bogus")
	if _, err := Load(); err == nil {
		t.Fatal("expected strict config to reject malformed keep windows")
	}
}

func TestFileConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("source_dir: /srv/json\ndigest:\n  keep_windows: [5, 15]\n  title_prefix: Weekly Papers\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SOURCE_DIR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SourceDir != "/srv/json" {
		t.Fatalf("expected source dir from file, got %s", cfg.SourceDir)
	}
	if !reflect.DeepEqual(cfg.Digest.KeepWindows, []int{5, 15}) {
		t.Fatalf("expected keep windows from file, got %v", cfg.Digest.KeepWindows)
	}
	if cfg.Digest.TitlePrefix != "Weekly Papers" {
		t.Fatalf("expected title prefix from file, got %q", cfg.Digest.TitlePrefix)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("output_dir: /srv/html\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OUTPUT_DIR", "/var/digests")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.OutputDir != "/var/digests" {
		t.Fatalf("expected env to win over file, got %s", cfg.OutputDir)
	}
}
