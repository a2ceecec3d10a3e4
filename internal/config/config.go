package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to run a monitoring session.
type Config struct {
	Browser BrowserConfig  `yaml:"browser"`
	Targets []TargetConfig `yaml:"targets"`
	Monitor MonitorConfig  `yaml:"monitor"`
	Rules   RulesConfig    `yaml:"rules"`
	Output  OutputConfig   `yaml:"output"`
	Cache   CacheConfig    `yaml:"cache"`
	Logging LoggingConfig  `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// BrowserConfig controls how the Chromium instance is obtained and driven.
type BrowserConfig struct {
	DebuggerURL            string        `yaml:"debuggerURL"`
	Headless               bool          `yaml:"headless"`
	ViewportWidth          int           `yaml:"viewportWidth"`
	ViewportHeight         int           `yaml:"viewportHeight"`
	NavigationTimeout      time.Duration `yaml:"navigationTimeout"`
	ResponseSampleInterval time.Duration `yaml:"responseSampleInterval"`
}

// TargetConfig describes one page the session visits and verifies.
type TargetConfig struct {
	Name        string        `yaml:"name"`
	URL         string        `yaml:"url"`
	UserAction  string        `yaml:"userAction"`
	SettleDelay time.Duration `yaml:"settleDelay"`
	Screenshot  bool          `yaml:"screenshot"`
}

// MonitorConfig controls failure semantics during capture.
type MonitorConfig struct {
	ZeroTolerance      bool          `yaml:"zeroTolerance"`
	FailureTriggers    []string      `yaml:"failureTriggers"`
	MaxAllowedWarnings int           `yaml:"maxAllowedWarnings"`
	CorrelationWindow  time.Duration `yaml:"correlationWindow"`
}

// RulesConfig controls classifier rule-pack loading.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig controls where report artifacts land.
type OutputConfig struct {
	LogDir        string `yaml:"logDir"`
	ReportDir     string `yaml:"reportDir"`
	ScreenshotDir string `yaml:"screenshotDir"`
}

// CacheConfig controls Valkey-backed live status publishing.
type CacheConfig struct {
	Provider     string        `yaml:"provider"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	StatusTTL    time.Duration `yaml:"statusTTL"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONSOLE_SENTINEL_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if len(cfg.Targets) == 0 {
		return nil, errors.New("at least one target is required")
	}
	for i, target := range cfg.Targets {
		if target.URL == "" {
			return nil, fmt.Errorf("target %d has no url", i)
		}
	}

	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1440,
			ViewportHeight:    900,
			NavigationTimeout: 30 * time.Second,
		},
		Targets: []TargetConfig{
			{Name: "home", URL: "http://localhost:3000", SettleDelay: 2 * time.Second, Screenshot: true},
		},
		Monitor: MonitorConfig{
			ZeroTolerance:      false,
			FailureTriggers:    []string{"CRITICAL"},
			MaxAllowedWarnings: 5,
			CorrelationWindow:  5 * time.Second,
		},
		Rules: RulesConfig{Path: ""},
		Output: OutputConfig{
			LogDir:        "test-results/console-logs",
			ReportDir:     "test-results/correlation-reports",
			ScreenshotDir: "test-results/screenshots",
		},
		Cache: CacheConfig{
			Provider:     "none",
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			StatusTTL:    time.Minute,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Metrics: MetricsConfig{Enabled: false, Address: ":2112"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONSOLE_SENTINEL_TARGET_URL"); v != "" {
		cfg.Targets = []TargetConfig{{Name: "env", URL: v, SettleDelay: 2 * time.Second, Screenshot: true}}
	}
	if v := os.Getenv("CONSOLE_SENTINEL_DEBUGGER_URL"); v != "" {
		cfg.Browser.DebuggerURL = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_HEADLESS"); v != "" {
		cfg.Browser.Headless = isTruthy(v)
	}
	if v := os.Getenv("CONSOLE_SENTINEL_NAVIGATION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Browser.NavigationTimeout = d
		}
	}
	if v := os.Getenv("CONSOLE_SENTINEL_ZERO_TOLERANCE"); v != "" {
		cfg.Monitor.ZeroTolerance = isTruthy(v)
	}
	if v := os.Getenv("CONSOLE_SENTINEL_MAX_WARNINGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.MaxAllowedWarnings = n
		}
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CORRELATION_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Monitor.CorrelationWindow = d
		}
	}
	if v := os.Getenv("CONSOLE_SENTINEL_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_LOG_DIR"); v != "" {
		cfg.Output.LogDir = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_REPORT_DIR"); v != "" {
		cfg.Output.ReportDir = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_SCREENSHOT_DIR"); v != "" {
		cfg.Output.ScreenshotDir = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CACHE_PROVIDER"); v != "" {
		cfg.Cache.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CACHE_TLS"); isTruthy(v) {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("CONSOLE_SENTINEL_CACHE_STATUS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.StatusTTL = d
		}
	}
	if v := os.Getenv("CONSOLE_SENTINEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONSOLE_SENTINEL_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("CONSOLE_SENTINEL_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = isTruthy(v)
	}
	if v := os.Getenv("CONSOLE_SENTINEL_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
}

func isTruthy(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
