package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration derived from environment variables
// layered over an optional config file.
type Config struct {
	HTTPPort      string
	SourceDir     string
	OutputDir     string
	IndexPath     string
	TemplatePath  string
	DBPath        string
	LogLevel      string
	QueueSize     int
	BackfillLimit int
	EnableWatcher bool
	StrictConfig  bool
	Digest        DigestConfig
}

// DigestConfig captures the consolidation and retention settings.
type DigestConfig struct {
	MaxDays        int
	KeepWindows    []int
	CleanupEnabled bool
	TitlePrefix    string
}

type fileConfig struct {
	SourceDir string           `json:"source_dir" yaml:"source_dir"`
	OutputDir string           `json:"output_dir" yaml:"output_dir"`
	IndexPath string           `json:"index_path" yaml:"index_path"`
	HTTPPort  string           `json:"http_port" yaml:"http_port"`
	DBPath    string           `json:"db_path" yaml:"db_path"`
	Digest    digestFileConfig `json:"digest" yaml:"digest"`
}

type digestFileConfig struct {
	MaxDays        *int   `json:"max_days" yaml:"max_days"`
	KeepWindows    []int  `json:"keep_windows" yaml:"keep_windows"`
	CleanupEnabled *bool  `json:"cleanup_enabled" yaml:"cleanup_enabled"`
	TitlePrefix    string `json:"title_prefix" yaml:"title_prefix"`
	TemplatePath   string `json:"template_path" yaml:"template_path"`
}

const (
	defaultPort          = ":8000"
	defaultSourceDir     = "daily_json"
	defaultOutputDir     = "daily_html"
	defaultIndexFile     = "reports.json"
	defaultDBFile        = "digest.db"
	defaultQueueSize     = 16
	maxQueueSize         = 256
	defaultBackfillLimit = 30
	maxBackfillLimit     = 100

	// maxWindowDays mirrors the loader's hard ceiling; no configuration can
	// push the lookback window past it.
	maxWindowDays = 10
)

func defaultDigestConfig() DigestConfig {
	return DigestConfig{
		MaxDays:        maxWindowDays,
		KeepWindows:    []int{10, 20, 30},
		CleanupEnabled: true,
	}
}

// Load reads configuration from the environment (and an optional .env file)
// layered over CONFIG_PATH, applying sane defaults. With STRICT_CONFIG set,
// anything that would otherwise be logged and defaulted becomes an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		QueueSize:     defaultQueueSize,
		BackfillLimit: defaultBackfillLimit,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableWatcher: parseBoolEnvDefault("ENABLE_WATCHER", true),
		StrictConfig:  parseBoolEnv("STRICT_CONFIG"),
		Digest:        defaultDigestConfig(),
	}

	configPath := getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil {
		if cfg.StrictConfig && !os.IsNotExist(fileErr) {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Debugf("config load failed (%s): %v (using defaults)", configPath, fileErr)
	}

	cfg.Digest = applyDigestOverrides(cfg.Digest, fileCfg.Digest)
	cfg.TemplatePath = firstNonEmpty(os.Getenv("TEMPLATE_PATH"), fileCfg.Digest.TemplatePath)

	cfg.SourceDir = firstNonEmpty(os.Getenv("SOURCE_DIR"), fileCfg.SourceDir, defaultSourceDir)
	cfg.OutputDir = firstNonEmpty(os.Getenv("OUTPUT_DIR"), fileCfg.OutputDir, defaultOutputDir)
	cfg.IndexPath = firstNonEmpty(os.Getenv("INDEX_PATH"), fileCfg.IndexPath, defaultIndexFile)
	cfg.DBPath = firstNonEmpty(os.Getenv("DB_PATH"), fileCfg.DBPath, defaultDBFile)

	cfg.HTTPPort = firstNonEmpty(os.Getenv("HTTP_PORT"), fileCfg.HTTPPort, defaultPort)
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}

	if v, ok, err := parseIntEnv("QUEUE_SIZE"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid QUEUE_SIZE: %w", err)
		}
		log.Warnf("invalid QUEUE_SIZE: %v (using default %d)", err, defaultQueueSize)
	} else if ok {
		cfg.QueueSize = clampInt(v, 1, maxQueueSize)
	}

	if v, ok, err := parseIntEnv("BACKFILL_LIMIT"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid BACKFILL_LIMIT: %w", err)
		}
		log.Warnf("invalid BACKFILL_LIMIT: %v (using default %d)", err, defaultBackfillLimit)
	} else if ok {
		cfg.BackfillLimit = clampInt(v, 1, maxBackfillLimit)
	}

	if v, ok, err := parseIntEnv("DIGEST_MAX_DAYS"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid DIGEST_MAX_DAYS: %w", err)
		}
		log.Warnf("invalid DIGEST_MAX_DAYS: %v (using default)", err)
	} else if ok && v > 0 {
		cfg.Digest.MaxDays = clampInt(v, 1, maxWindowDays)
	}

	if raw := strings.TrimSpace(os.Getenv("DIGEST_KEEP_WINDOWS")); raw != "" {
		windows, err := parseKeepWindows(raw)
		if err != nil {
			if cfg.StrictConfig {
				return cfg, fmt.Errorf("invalid DIGEST_KEEP_WINDOWS: %w", err)
			}
			log.Warnf("invalid DIGEST_KEEP_WINDOWS %q: %v (using default)", raw, err)
		} else {
			cfg.Digest.KeepWindows = windows
		}
	}

	if v := os.Getenv("DIGEST_CLEANUP_ENABLED"); strings.TrimSpace(v) != "" {
		cfg.Digest.CleanupEnabled = parseBoolEnv("DIGEST_CLEANUP_ENABLED")
	}
	if v := strings.TrimSpace(os.Getenv("REPORT_TITLE_PREFIX")); v != "" {
		cfg.Digest.TitlePrefix = v
	}

	if err := validate(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Warnf("config validation failed: %v (continuing)", err)
	}

	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func applyDigestOverrides(base DigestConfig, override digestFileConfig) DigestConfig {
	if override.MaxDays != nil && *override.MaxDays > 0 {
		base.MaxDays = clampInt(*override.MaxDays, 1, maxWindowDays)
	}
	if len(override.KeepWindows) > 0 {
		base.KeepWindows = override.KeepWindows
	}
	if override.CleanupEnabled != nil {
		base.CleanupEnabled = *override.CleanupEnabled
	}
	if strings.TrimSpace(override.TitlePrefix) != "" {
		base.TitlePrefix = strings.TrimSpace(override.TitlePrefix)
	}
	return base
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.SourceDir) == "" {
		return errors.New("SOURCE_DIR is required")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if strings.TrimSpace(cfg.IndexPath) == "" {
		return errors.New("INDEX_PATH is required")
	}
	if cfg.Digest.MaxDays <= 0 || cfg.Digest.MaxDays > maxWindowDays {
		return fmt.Errorf("digest max days must be within 1..%d", maxWindowDays)
	}
	if len(cfg.Digest.KeepWindows) == 0 {
		return errors.New("digest keep windows must not be empty")
	}
	for _, w := range cfg.Digest.KeepWindows {
		if w <= 0 {
			return fmt.Errorf("digest keep window must be positive (got %d)", w)
		}
	}
	return nil
}

func parseKeepWindows(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	windows := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("window must be positive (got %d)", n)
		}
		windows = append(windows, n)
	}
	if len(windows) == 0 {
		return nil, errors.New("no windows given")
	}
	return windows, nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return defaultVal
	}
	return parseBoolEnv(key)
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
