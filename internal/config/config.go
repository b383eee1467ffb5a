package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bilancio/internal/ledger"
	"bilancio/internal/log"
)

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"memory", "file", "sqlite", "bolt", "redis"}

type Config struct {
	// HTTP Server
	Port string `mapstructure:"port"`

	// Storage
	DataBackend   string `mapstructure:"data_backend"`
	DataFile      string `mapstructure:"data_file"`
	SQLiteDBPath  string `mapstructure:"sqlite_db_path"`
	BoltDBPath    string `mapstructure:"bolt_db_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`

	// AMQP; change events are disabled when AMQPURL is empty.
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Spreadsheet mirror
	GoogleSpreadsheetID string        `mapstructure:"google_spreadsheet_id"`
	GoogleSheetPrefix   string        `mapstructure:"google_sheet_prefix"`
	MirrorRetryDelay    time.Duration `mapstructure:"mirror_retry_delay"`
	// MirrorSyncInterval schedules a full resync; zero disables it.
	MirrorSyncInterval time.Duration `mapstructure:"mirror_sync_interval"`

	// Ledger
	VocabularyFile   string        `mapstructure:"vocabulary_file"`
	ImportIDPolicy   string        `mapstructure:"import_id_policy"`
	PersistQueueSize int           `mapstructure:"persist_queue_size"` // backlog that triggers a warning
	ViewCacheSize    int           `mapstructure:"view_cache_size"`
	ViewCacheTTL     time.Duration `mapstructure:"view_cache_ttl"`

	LogLevel string `mapstructure:"log_level"`
}

var defaults = map[string]any{
	"port":                  "8081",
	"data_backend":          "memory",
	"data_file":             "./data/ledger.json",
	"sqlite_db_path":        "./data/bilancio.db",
	"bolt_db_path":          "./data/bilancio.bolt",
	"redis_addr":            "",
	"redis_password":        "",
	"redis_db":              0,
	"redis_key":             "bilancio:ledger",
	"amqp_url":              "",
	"amqp_exchange":         "bilancio",
	"amqp_queue":            "ledger_changed",
	"google_spreadsheet_id": "",
	"google_sheet_prefix":   "Bilancio",
	"mirror_retry_delay":    2 * time.Second,
	"mirror_sync_interval":  time.Duration(0),
	"vocabulary_file":       "",
	"import_id_policy":      string(ledger.PolicyRegenerate),
	"persist_queue_size":    64,
	"view_cache_size":       256,
	"view_cache_ttl":        5 * time.Minute,
	"log_level":             "info",
}

// Load reads configuration from the environment, on top of an optional
// config file named by CONFIG_FILE. Environment variables are the upper-case
// keys (DATA_BACKEND, VIEW_CACHE_TTL, ...) and win over the file.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "file":
		errors = append(errors, checkPath("data file", c.DataFile)...)
	case "sqlite":
		errors = append(errors, checkPath("SQLite database", c.SQLiteDBPath)...)
	case "bolt":
		errors = append(errors, checkPath("bolt database", c.BoltDBPath)...)
	case "redis":
		if c.RedisAddr == "" {
			errors = append(errors, "redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid redis db %d: must not be negative", c.RedisDB))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.VocabularyFile != "" {
		if _, err := os.Stat(c.VocabularyFile); err != nil {
			errors = append(errors, fmt.Sprintf("vocabulary file '%s' is not readable: %v", c.VocabularyFile, err))
		}
	}
	if _, err := ledger.ParseIDPolicy(c.ImportIDPolicy); err != nil {
		errors = append(errors, fmt.Sprintf("invalid import id policy '%s': must be 'regenerate' or 'keep'", c.ImportIDPolicy))
	}
	if c.PersistQueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid persist queue size %d: must be at least 1", c.PersistQueueSize))
	}
	if c.ViewCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.ViewCacheSize))
	}
	if c.ViewCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid view cache ttl %v: must not be negative", c.ViewCacheTTL))
	}
	if c.MirrorRetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid mirror retry delay %v: must not be negative", c.MirrorRetryDelay))
	}
	if c.MirrorSyncInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid mirror sync interval %v: must not be negative", c.MirrorSyncInterval))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateMirror checks the settings the spreadsheet mirror needs on top of
// Validate.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the mirror worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the mirror worker")
	}
	if c.DataBackend == "memory" {
		errors = append(errors, "memory backend cannot be shared with the mirror worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// checkPath rejects an empty path and creates its directory when missing.
func checkPath(what, path string) []string {
	if path == "" {
		return []string{fmt.Sprintf("%s path cannot be empty", what)}
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return []string{fmt.Sprintf("cannot create %s directory '%s': %v", what, dir, err)}
		}
	}
	return nil
}
