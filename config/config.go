package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Session                string                         `yaml:"session"`
	CacheDir               string                         `yaml:"cache_dir"`
	CacheBackend           string                         `yaml:"cache_backend"`
	DBPath                 string                         `yaml:"db_path"`
	CacheTTLMinutes        int                            `yaml:"cache_ttl_minutes"`
	FetchTimeoutSecs       *int                           `yaml:"fetch_timeout_secs"`
	BaseURL                string                         `yaml:"base_url"` // API requests only; links stay on the public site
	ListenAddr             string                         `yaml:"listen_addr"`
	LogLevel               string                         `yaml:"log_level"`
	RefreshIntervalMinutes int                            `yaml:"refresh_interval_minutes"`
	Telegram               TelegramConfig                 `yaml:"telegram"`
	Leaderboards           []LeaderboardConfig            `yaml:"leaderboards"`
	Metadata               map[int]map[int]MemberMetadata `yaml:"metadata"`
}

// TelegramConfig enables the bot and the daily standings post when Token is set.
type TelegramConfig struct {
	Token    string `yaml:"token"`
	ChatID   int64  `yaml:"chat_id"`
	PostTime string `yaml:"post_time"`
	Timezone string `yaml:"timezone"`
	TopN     int    `yaml:"top_n"`
}

// LeaderboardConfig describes one private leaderboard to publish.
type LeaderboardConfig struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Slug   string `yaml:"slug"`
	Code   string `yaml:"code"`
	Year   int    `yaml:"year"`
	Header string `yaml:"header"`
	// Repositories maps member ids to solution repository URLs.
	Repositories map[int]string `yaml:"repositories"`
}

// MemberMetadata overrides what Advent of Code reports about a member for
// one event year.
type MemberMetadata struct {
	Name       string `yaml:"name"`
	Repository string `yaml:"repository"`
}

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const (
	// MinCacheTTLMinutes is the shortest refresh interval Advent of Code
	// tolerates for automated requests.
	MinCacheTTLMinutes = 15

	defaultFetchTimeoutSecs = 30
)

// ErrUnknownLeaderboard is returned by LeaderboardBySlug.
var ErrUnknownLeaderboard = errors.New("unknown leaderboard")

// postTimeRegex validates HH:MM format with proper ranges.
var postTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

var slugRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("AOC_LEADERBOARD_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

// LeaderboardBySlug returns the leaderboard published under slug.
func (c *Config) LeaderboardBySlug(slug string) (*LeaderboardConfig, error) {
	for i := range c.Leaderboards {
		if c.Leaderboards[i].Slug == slug {
			return &c.Leaderboards[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLeaderboard, slug)
}

// MetadataFor returns the member overrides for one event year. The result
// may be nil.
func (c *Config) MetadataFor(year int) map[int]MemberMetadata {
	return c.Metadata[year]
}

// CacheTTL is the minimum age of a cached document before it is refreshed.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// FetchTimeout is the upstream HTTP timeout. Zero disables it.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(*c.FetchTimeoutSecs) * time.Second
}

// RefreshInterval is the period of the cache warm-up job. Zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

func applyDefaults(cfg *Config) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = BackendFile
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./aoc-leaderboard.db"
	}
	if cfg.CacheTTLMinutes == 0 {
		cfg.CacheTTLMinutes = MinCacheTTLMinutes
	}
	if cfg.FetchTimeoutSecs == nil {
		secs := defaultFetchTimeoutSecs
		cfg.FetchTimeoutSecs = &secs
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://adventofcode.com"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "0.0.0.0:3000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Telegram.PostTime == "" {
		cfg.Telegram.PostTime = "09:00"
	}
	if cfg.Telegram.Timezone == "" {
		cfg.Telegram.Timezone = "UTC"
	}
	if cfg.Telegram.TopN == 0 {
		cfg.Telegram.TopN = 10
	}
}

// defaultCacheDir prefers the user cache directory, then the working
// directory, then the system temp directory.
func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	if dir, err := os.Getwd(); err == nil {
		return dir
	}
	return os.TempDir()
}

func applyEnvironmentOverrides(cfg *Config) {
	if session := os.Getenv("AOC_SESSION"); session != "" {
		cfg.Session = session
	}
	if dbPath := os.Getenv("AOC_LEADERBOARD_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if token := os.Getenv("AOC_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
}

func validate(cfg *Config) error {
	if cfg.Session == "" {
		return fmt.Errorf("session is required")
	}
	if len(cfg.Leaderboards) == 0 {
		return fmt.Errorf("at least one leaderboard is required")
	}

	seen := make(map[string]bool, len(cfg.Leaderboards))
	for i, lb := range cfg.Leaderboards {
		if !slugRegex.MatchString(lb.Slug) {
			return fmt.Errorf("leaderboards[%d]: slug must be non-empty and URL safe, got %q", i, lb.Slug)
		}
		if seen[lb.Slug] {
			return fmt.Errorf("leaderboards[%d]: duplicate slug %q", i, lb.Slug)
		}
		seen[lb.Slug] = true
		if lb.ID <= 0 {
			return fmt.Errorf("leaderboards[%d]: id must be positive, got %d", i, lb.ID)
		}
		if lb.Year < 2015 {
			return fmt.Errorf("leaderboards[%d]: year must be 2015 or later, got %d", i, lb.Year)
		}
	}

	switch cfg.CacheBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("cache_backend must be %q or %q, got %q", BackendFile, BackendSQLite, cfg.CacheBackend)
	}
	if cfg.CacheTTLMinutes < MinCacheTTLMinutes {
		return fmt.Errorf("cache_ttl_minutes must be at least %d, got %d", MinCacheTTLMinutes, cfg.CacheTTLMinutes)
	}
	if *cfg.FetchTimeoutSecs < 0 {
		return fmt.Errorf("fetch_timeout_secs must not be negative, got %d", *cfg.FetchTimeoutSecs)
	}
	if cfg.RefreshIntervalMinutes < 0 {
		return fmt.Errorf("refresh_interval_minutes must not be negative, got %d", cfg.RefreshIntervalMinutes)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	if !postTimeRegex.MatchString(cfg.Telegram.PostTime) {
		return fmt.Errorf("telegram.post_time must be in HH:MM format (00:00-23:59), got %q", cfg.Telegram.PostTime)
	}
	if _, err := time.LoadLocation(cfg.Telegram.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Telegram.Timezone, err)
	}
	return nil
}
