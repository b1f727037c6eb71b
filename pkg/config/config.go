package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	KIS struct {
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		AppKey         string        `yaml:"app_key"`
		AppSecret      string        `yaml:"app_secret"`
		Timeout        time.Duration `yaml:"timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"kis"`
	Scan struct {
		Codes          []string      `yaml:"codes"`
		Cadence        time.Duration `yaml:"cadence"`
		HistoryBars    int           `yaml:"history_bars"`
		FetchRetries   int           `yaml:"fetch_retries"`
		FetchBackoff   time.Duration `yaml:"fetch_backoff"`
		MaxConcurrency int           `yaml:"max_concurrency"`
	} `yaml:"scan"`
	Cache struct {
		Backend         string        `yaml:"backend"` // memory, redis, layered
		MaxSize         int           `yaml:"max_size"`
		RankingTTL      time.Duration `yaml:"ranking_ttl"`
		HighLowTTL      time.Duration `yaml:"high_low_ttl"`
		LimitTTL        time.Duration `yaml:"limit_ttl"`
		SummaryTTL      time.Duration `yaml:"summary_ttl"`
		QuoteTTL        time.Duration `yaml:"quote_ttl"`
		HotKeyRatio     float64       `yaml:"hot_key_ratio"`
		HotKeyMinAccess int64         `yaml:"hot_key_min_access"`
		Redis           struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Alerts struct {
		DedupWindow time.Duration `yaml:"dedup_window"`
		MaxPerCode  int           `yaml:"max_per_code"`
		RecentCap   int           `yaml:"recent_cap"`
		Rules       []struct {
			Kind      string        `yaml:"kind"`
			Threshold float64       `yaml:"threshold"`
			Window    time.Duration `yaml:"window"`
			Priority  string        `yaml:"priority"`
		} `yaml:"rules"`
	} `yaml:"alerts"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Override with environment variables
	if v := os.Getenv("KIS_APP_KEY"); v != "" {
		c.KIS.AppKey = v
	}
	if v := os.Getenv("KIS_APP_SECRET"); v != "" {
		c.KIS.AppSecret = v
	}
	if v := os.Getenv("SCAN_CODES"); v != "" {
		c.Scan.Codes = strings.Split(v, ",")
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v)
		c.Cache.Redis.Host = host
		if port > 0 {
			c.Cache.Redis.Port = port
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Scan.Cadence == 0 {
		c.Scan.Cadence = 30 * time.Second
	}
	if c.Scan.HistoryBars == 0 {
		c.Scan.HistoryBars = 260
	}
	if c.Scan.FetchRetries == 0 {
		c.Scan.FetchRetries = 3
	}
	if c.Scan.FetchBackoff == 0 {
		c.Scan.FetchBackoff = 500 * time.Millisecond
	}
	if c.Scan.MaxConcurrency == 0 {
		c.Scan.MaxConcurrency = 8
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = 10000
	}
	if c.Cache.RankingTTL == 0 {
		c.Cache.RankingTTL = 60 * time.Second
	}
	if c.Cache.HighLowTTL == 0 {
		c.Cache.HighLowTTL = 300 * time.Second
	}
	if c.Cache.LimitTTL == 0 {
		c.Cache.LimitTTL = 30 * time.Second
	}
	if c.Cache.SummaryTTL == 0 {
		c.Cache.SummaryTTL = 120 * time.Second
	}
	if c.Cache.QuoteTTL == 0 {
		c.Cache.QuoteTTL = 10 * time.Second
	}
	if c.Cache.HotKeyRatio == 0 {
		c.Cache.HotKeyRatio = 0.8
	}
	if c.Cache.HotKeyMinAccess == 0 {
		c.Cache.HotKeyMinAccess = 10
	}
	if c.Alerts.DedupWindow == 0 {
		c.Alerts.DedupWindow = 5 * time.Minute
	}
	if c.Alerts.MaxPerCode == 0 {
		c.Alerts.MaxPerCode = 3
	}
	if c.Alerts.RecentCap == 0 {
		c.Alerts.RecentCap = 100
	}
	if c.KIS.Timeout == 0 {
		c.KIS.Timeout = 10 * time.Second
	}
	if c.KIS.ReconnectDelay == 0 {
		c.KIS.ReconnectDelay = 5 * time.Second
	}
	if c.KIS.PingInterval == 0 {
		c.KIS.PingInterval = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Scan.Codes) == 0 {
		return fmt.Errorf("scan.codes cannot be empty")
	}
	if c.KIS.AppKey == "" {
		return fmt.Errorf("kis.app_key is required")
	}
	if c.KIS.AppSecret == "" {
		return fmt.Errorf("kis.app_secret is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

func splitHostPort(addr string) (string, int) {
	host := addr
	port := 0
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
		fmt.Sscanf(addr[i+1:], "%d", &port)
	}
	return host, port
}
