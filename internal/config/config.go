//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-boxoffice.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for pgedge-boxoffice.
type Config struct {
	// Connection is the PostgreSQL connection string of the warehouse.
	Connection string `mapstructure:"connection"`

	// Dataset is the warehouse schema holding the entity tables.
	Dataset string `mapstructure:"dataset"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is auto, console or json.
	LogFormat string `mapstructure:"log_format"`

	// LockDir holds the per-table writer lock files.
	LockDir string `mapstructure:"lock_dir"`

	Storage   StorageConfig   `mapstructure:"storage"`
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	Vimeo     VimeoConfig     `mapstructure:"vimeo"`
	BoxOffice BoxOfficeConfig `mapstructure:"boxoffice"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Match     MatchConfig     `mapstructure:"match"`
	Clean     CleanConfig     `mapstructure:"clean"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// StorageConfig describes the S3 compatible object store holding raw snapshots.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
	Region    string `mapstructure:"region"`

	// RawBucket stores the initial full snapshots.
	RawBucket string `mapstructure:"raw_bucket"`

	// UpdateBucket stores the weekly incremental snapshots.
	UpdateBucket string `mapstructure:"update_bucket"`
}

// TMDBConfig holds TMDB API settings.
type TMDBConfig struct {
	Token    string `mapstructure:"token"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`

	// Discover bounds the initial movie id sweep (release years).
	DiscoverFromYear int `mapstructure:"discover_from_year"`
	DiscoverToYear   int `mapstructure:"discover_to_year"`
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// VimeoConfig holds Vimeo API settings.
type VimeoConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// BoxOfficeConfig holds BoxOfficeMojo scraping settings.
type BoxOfficeConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	StartYear int    `mapstructure:"start_year"`
}

// ExtractConfig controls API fan-out, pacing and retries.
type ExtractConfig struct {
	// Workers is the bounded pool size for chunked API calls.
	Workers int `mapstructure:"workers"`

	CollectionChunkSize int `mapstructure:"collection_chunk_size"`
	PeopleChunkSize     int `mapstructure:"people_chunk_size"`
	MovieChunkSize      int `mapstructure:"movie_chunk_size"`
	VideoChunkSize      int `mapstructure:"video_chunk_size"`

	// RequestsPerSecond caps the request rate per source (0 = unlimited).
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// PaceEvery and PaceCooldownSeconds apply to video statistics sources.
	PaceEvery           int `mapstructure:"pace_every"`
	PaceCooldownSeconds int `mapstructure:"pace_cooldown_seconds"`

	MaxRetries       int `mapstructure:"max_retries"`
	InitialBackoffMs int `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `mapstructure:"max_backoff_ms"`

	// TimeoutSeconds is the per request HTTP timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// MatchConfig tunes the box office to movie reconciliation.
type MatchConfig struct {
	// MaxDaysDiff is the largest accepted distance between the estimated
	// and the catalogued release date.
	MaxDaysDiff int `mapstructure:"max_days_diff"`
}

// CleanConfig tunes entity cleaning.
type CleanConfig struct {
	// CollectionCutoffYear bounds the parts counted per collection.
	CollectionCutoffYear int `mapstructure:"collection_cutoff_year"`
}

// CacheConfig configures the dashboard query cache.
type CacheConfig struct {
	// Backend is "file" or "redis".
	Backend    string `mapstructure:"backend"`
	Dir        string `mapstructure:"dir"`
	RedisAddr  string `mapstructure:"redis_addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `mapstructure:"addr"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dataset:   "movie_dataset",
		LogLevel:  "info",
		LogFormat: "auto",
		LockDir:   filepath.Join(os.TempDir(), "pgedge-boxoffice"),
		Storage: StorageConfig{
			Endpoint:     "localhost:9000",
			RawBucket:    "movies-tmdb",
			UpdateBucket: "update-movies-tmdb",
		},
		TMDB: TMDBConfig{
			BaseURL:          "https://api.themoviedb.org/3",
			Language:         "en-US",
			DiscoverFromYear: 2010,
			DiscoverToYear:   2024,
		},
		YouTube: YouTubeConfig{
			BaseURL: "https://www.googleapis.com/youtube/v3",
		},
		Vimeo: VimeoConfig{
			BaseURL: "https://api.vimeo.com",
		},
		BoxOffice: BoxOfficeConfig{
			BaseURL:   "https://www.boxofficemojo.com",
			StartYear: 2021,
		},
		Extract: ExtractConfig{
			Workers:             4,
			CollectionChunkSize: 20,
			PeopleChunkSize:     50,
			MovieChunkSize:      50,
			VideoChunkSize:      50,
			RequestsPerSecond:   20,
			PaceEvery:           100,
			PaceCooldownSeconds: 10,
			MaxRetries:          5,
			InitialBackoffMs:    500,
			MaxBackoffMs:        30000,
			TimeoutSeconds:      30,
		},
		Match: MatchConfig{
			MaxDaysDiff: 50,
		},
		Clean: CleanConfig{
			CollectionCutoffYear: 2020,
		},
		Cache: CacheConfig{
			Backend:    "file",
			Dir:        "cache",
			TTLSeconds: 3600,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-boxoffice.yaml
// 3. ~/.config/pgedge-boxoffice/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-boxoffice")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-boxoffice"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	if c.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("storage endpoint is required")
	}
	if c.Storage.RawBucket == "" || c.Storage.UpdateBucket == "" {
		return fmt.Errorf("storage raw_bucket and update_bucket are required")
	}
	if c.Extract.Workers < 1 {
		return fmt.Errorf("extract workers must be at least 1")
	}
	for name, size := range map[string]int{
		"collection_chunk_size": c.Extract.CollectionChunkSize,
		"people_chunk_size":     c.Extract.PeopleChunkSize,
		"movie_chunk_size":      c.Extract.MovieChunkSize,
		"video_chunk_size":      c.Extract.VideoChunkSize,
	} {
		if size < 1 {
			return fmt.Errorf("extract %s must be at least 1", name)
		}
	}
	if c.Match.MaxDaysDiff < 0 {
		return fmt.Errorf("match max_days_diff must be non-negative")
	}
	return nil
}

// ValidateInit checks configuration required for the init command.
func (c *Config) ValidateInit(skipExtract bool) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if skipExtract {
		return nil
	}
	return c.validateSources()
}

// ValidateUpdate checks configuration required for the update command.
func (c *Config) ValidateUpdate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.validateSources()
}

// ValidateCache checks the dashboard cache settings.
func (c *Config) ValidateCache() error {
	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache dir is required for the file backend")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache backend must be 'file' or 'redis'")
	}
	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("cache ttl_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateSources() error {
	if c.TMDB.Token == "" {
		return fmt.Errorf("tmdb token is required")
	}
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("youtube api_key is required")
	}
	if c.Vimeo.Token == "" {
		return fmt.Errorf("vimeo token is required")
	}
	if c.BoxOffice.StartYear < 1982 {
		return fmt.Errorf("boxoffice start_year must be 1982 or later")
	}
	return nil
}
