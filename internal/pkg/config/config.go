package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Redis       RedisConfig       `yaml:"redis"`
	Stats       StatsConfig       `yaml:"stats"`
	Search      SearchConfig      `yaml:"search"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	APIFootball APIFootballConfig `yaml:"api_football"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Scanner     ScannerConfig     `yaml:"scanner"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	CORSOrigins       []string      `yaml:"cors_origins"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "postgres" or "sqlite"
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StatsTTL time.Duration `yaml:"stats_ttl"`
}

type StatsConfig struct {
	StreakMinLength int    `yaml:"streak_min_length"`
	CurrentSeason   int    `yaml:"current_season"`
	DefaultLast     int    `yaml:"default_last"` // 0 = whole history
	Timezone        string `yaml:"timezone"`
	HighlightBands  []Band `yaml:"highlight_bands"`
}

type Band struct {
	Name string `yaml:"name"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
}

type SearchConfig struct {
	HistoryLimit int           `yaml:"history_limit"`
	Concurrency  int           `yaml:"concurrency"`
	TeamTimeout  time.Duration `yaml:"team_timeout"`
}

type AnalysisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	APIURL      string        `yaml:"api_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheSize   int           `yaml:"cache_size"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type APIFootballConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type RefreshConfig struct {
	Lookback time.Duration `yaml:"lookback"`
}

type ScannerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Interval         time.Duration `yaml:"interval"`
	AlertCooldown    time.Duration `yaml:"alert_cooldown"`
	TelegramBotToken string        `yaml:"telegram_bot_token"`
	TelegramChatID   int64         `yaml:"telegram_chat_id"`
	// Search is the filter set the scanner runs on every tick, same JSON shape as POST /api/v1/search.
	Search map[string]any `yaml:"search"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // optional second sink
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults, applies env overrides and validates.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns the configuration used when a key is absent.
func Default() *Config {
	// температура 0 валидна, дефолт ставим только до разбора YAML
	c := &Config{Analysis: AnalysisConfig{Temperature: 0.4}}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Redis.StatsTTL <= 0 {
		c.Redis.StatsTTL = 10 * time.Minute
	}
	if c.Stats.StreakMinLength <= 0 {
		c.Stats.StreakMinLength = 1
	}
	if c.Stats.Timezone == "" {
		c.Stats.Timezone = "UTC"
	}
	if c.Search.HistoryLimit <= 0 {
		c.Search.HistoryLimit = 50
	}
	if c.Search.Concurrency <= 0 {
		c.Search.Concurrency = 8
	}
	if c.Search.TeamTimeout <= 0 {
		c.Search.TeamTimeout = 5 * time.Second
	}
	if c.Analysis.APIURL == "" {
		c.Analysis.APIURL = "https://api.openai.com/v1/chat/completions"
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = "gpt-4o-mini"
	}
	if c.Analysis.MaxTokens <= 0 {
		c.Analysis.MaxTokens = 500
	}
	if c.Analysis.Timeout <= 0 {
		c.Analysis.Timeout = 60 * time.Second
	}
	if c.Analysis.CacheSize <= 0 {
		c.Analysis.CacheSize = 200
	}
	if c.Analysis.CacheTTL <= 0 {
		c.Analysis.CacheTTL = time.Hour
	}
	if c.APIFootball.BaseURL == "" {
		c.APIFootball.BaseURL = "https://v3.football.api-sports.io"
	}
	if c.APIFootball.Timeout <= 0 {
		c.APIFootball.Timeout = 30 * time.Second
	}
	if c.Refresh.Lookback <= 0 {
		c.Refresh.Lookback = 10 * 24 * time.Hour
	}
	if c.Scanner.Interval <= 0 {
		c.Scanner.Interval = 15 * time.Minute
	}
	if c.Scanner.AlertCooldown <= 0 {
		c.Scanner.AlertCooldown = 12 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// applyEnv lets secrets and endpoints come from the environment.
func (c *Config) applyEnv() error {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
		c.Redis.Enabled = true
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Analysis.APIKey = key
	}
	if key := os.Getenv("API_FOOTBALL_KEY"); key != "" {
		c.APIFootball.APIKey = key
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Scanner.TelegramBotToken = token
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Scanner.TelegramChatID = chatID
	}
	return nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required when storage.driver is sqlite")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if _, err := time.LoadLocation(c.Stats.Timezone); err != nil {
		return fmt.Errorf("invalid stats.timezone: %w", err)
	}
	for _, b := range c.Stats.HighlightBands {
		if b.Min < 0 || b.Max > 100 || b.Min > b.Max {
			return fmt.Errorf("invalid highlight band %q: %d..%d", b.Name, b.Min, b.Max)
		}
	}
	return nil
}

// Location returns the time zone used for "today" in searches.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Stats.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
