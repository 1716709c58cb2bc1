// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
	Probe    ProbeConfig    `mapstructure:"probe" yaml:"probe"`
	Search   SearchConfig   `mapstructure:"search" yaml:"search"`
	Launcher LauncherConfig `mapstructure:"launcher" yaml:"launcher"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	// Console enables a console core on stderr. Off by default because
	// stdout and stderr carry command output.
	Console    bool        `mapstructure:"console" yaml:"console"`
	LogFile    string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int         `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool        `mapstructure:"compress" yaml:"compress"`
	Colors     ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig describes how to reach the running browser.
type BrowserConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// TimeoutsConfig bounds whole invocations and individual page loads.
type TimeoutsConfig struct {
	Action      time.Duration `mapstructure:"action" yaml:"action"`
	Search      time.Duration `mapstructure:"search" yaml:"search"`
	Pick        time.Duration `mapstructure:"pick" yaml:"pick"`
	Navigation  time.Duration `mapstructure:"navigation" yaml:"navigation"`
	ContentLoad time.Duration `mapstructure:"content_load" yaml:"content_load"`
}

// ProbeConfig configures element readiness waits.
type ProbeConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// SearchConfig tunes the search subcommand.
type SearchConfig struct {
	DefaultResults int           `mapstructure:"default_results" yaml:"default_results"`
	MaxStart       int           `mapstructure:"max_start" yaml:"max_start"`
	PageInterval   time.Duration `mapstructure:"page_interval" yaml:"page_interval"`
	ContentLimit   int           `mapstructure:"content_limit" yaml:"content_limit"`
	// ResultsLoad bounds each Google results page load.
	ResultsLoad time.Duration `mapstructure:"results_load" yaml:"results_load"`
	// ResultFetch bounds each result page loaded for --content.
	ResultFetch time.Duration `mapstructure:"result_fetch" yaml:"result_fetch"`
}

// LauncherConfig controls how the start subcommand spawns Chrome.
type LauncherConfig struct {
	BaseDir       string        `mapstructure:"base_dir" yaml:"base_dir"`
	Port          int           `mapstructure:"port" yaml:"port"`
	ChromePath    string        `mapstructure:"chrome_path" yaml:"chrome_path"`
	RsyncExcludes []string      `mapstructure:"rsync_excludes" yaml:"rsync_excludes"`
	ReadyAttempts int           `mapstructure:"ready_attempts" yaml:"ready_attempts"`
	ReadyInterval time.Duration `mapstructure:"ready_interval" yaml:"ready_interval"`
}

// DefaultRsyncExcludes are the profile entries that are never copied.
var DefaultRsyncExcludes = []string{
	"IndexedDB",
	"Service Worker",
	"Cache",
	"Code Cache",
	"GPUCache",
	"DawnWebGPUCache",
	"File System",
	"blob_storage",
	"Shared Dictionary",
	"*Cache*",
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "browserctl")
	v.SetDefault("logger.console", false)
	v.SetDefault("logger.log_file", "~/.cache/browser-skill/browserctl.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.url", "http://localhost:9222")
	v.SetDefault("browser.connect_timeout", "5s")

	// -- Timeouts --
	v.SetDefault("timeouts.action", "30s")
	v.SetDefault("timeouts.search", "60s")
	v.SetDefault("timeouts.pick", "120s")
	v.SetDefault("timeouts.navigation", "20s")
	v.SetDefault("timeouts.content_load", "15s")

	// -- Probe --
	v.SetDefault("probe.timeout", "5s")
	v.SetDefault("probe.poll_interval", "100ms")

	// -- Search --
	v.SetDefault("search.default_results", 5)
	v.SetDefault("search.max_start", 100)
	v.SetDefault("search.page_interval", "250ms")
	v.SetDefault("search.content_limit", 5000)
	v.SetDefault("search.results_load", "15s")
	v.SetDefault("search.result_fetch", "10s")

	// -- Launcher --
	v.SetDefault("launcher.base_dir", "~/.cache/browser-skill")
	v.SetDefault("launcher.port", 9222)
	v.SetDefault("launcher.chrome_path", "")
	v.SetDefault("launcher.rsync_excludes", DefaultRsyncExcludes)
	v.SetDefault("launcher.ready_attempts", 30)
	v.SetDefault("launcher.ready_interval", "500ms")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in the path-valued settings.
func (c *Config) expandPaths() error {
	var err error
	if c.Logger.LogFile, err = homedir.Expand(c.Logger.LogFile); err != nil {
		return fmt.Errorf("logger.log_file: %w", err)
	}
	if c.Launcher.BaseDir, err = homedir.Expand(c.Launcher.BaseDir); err != nil {
		return fmt.Errorf("launcher.base_dir: %w", err)
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Browser.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("browser.url must be an absolute URL")
	}
	if c.Browser.ConnectTimeout <= 0 {
		return fmt.Errorf("browser.connect_timeout must be a positive duration")
	}
	if err := c.Timeouts.Validate(); err != nil {
		return fmt.Errorf("timeouts configuration invalid: %w", err)
	}
	if c.Probe.Timeout <= 0 || c.Probe.PollInterval <= 0 {
		return fmt.Errorf("probe.timeout and probe.poll_interval must be positive durations")
	}
	if c.Search.DefaultResults <= 0 {
		return fmt.Errorf("search.default_results must be a positive integer")
	}
	if c.Search.MaxStart < 0 {
		return fmt.Errorf("search.max_start must not be negative")
	}
	if c.Search.ContentLimit <= 0 {
		return fmt.Errorf("search.content_limit must be a positive integer")
	}
	if c.Search.ResultsLoad <= 0 || c.Search.ResultFetch <= 0 {
		return fmt.Errorf("search.results_load and search.result_fetch must be positive durations")
	}
	if err := c.Launcher.Validate(); err != nil {
		return fmt.Errorf("launcher configuration invalid: %w", err)
	}
	return nil
}

// Validate checks that every timeout is a positive duration.
func (t *TimeoutsConfig) Validate() error {
	for name, d := range map[string]time.Duration{
		"action":       t.Action,
		"search":       t.Search,
		"pick":         t.Pick,
		"navigation":   t.Navigation,
		"content_load": t.ContentLoad,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}
	return nil
}

// Validate checks the launcher settings.
func (l *LauncherConfig) Validate() error {
	if l.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if l.Port <= 0 || l.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if l.ReadyAttempts <= 0 {
		return fmt.Errorf("ready_attempts must be greater than 0")
	}
	if l.ReadyInterval <= 0 {
		return fmt.Errorf("ready_interval must be a positive duration")
	}
	return nil
}
