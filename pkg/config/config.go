package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Instrument struct {
	Symbol string `yaml:"symbol"`
	Label  string `yaml:"label"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		// AnalyzeLimit throttles POST /api/analyze per client IP.
		AnalyzeLimit struct {
			Burst     float64 `yaml:"burst" default:"5"`
			PerSecond float64 `yaml:"per_second" default:"1"`
		} `yaml:"analyze_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Analytics struct {
		BaseURL     string        `yaml:"base_url" default:"http://localhost:5000"`
		FetchPath   string        `yaml:"fetch_path" default:"/api/fetch-data"`
		HeatmapPath string        `yaml:"heatmap_path" default:"/api/heatmap"`
		Timeout     time.Duration `yaml:"timeout" default:"60s"`
	} `yaml:"analytics"`
	Dashboard struct {
		Instruments  []Instrument `yaml:"instruments"`
		DefaultStart string       `yaml:"default_start" default:"2019-01-01"`
		DefaultEnd   string       `yaml:"default_end" default:"2023-12-31"`
	} `yaml:"dashboard"`
	Render struct {
		Width  int `yaml:"width" default:"1024"`
		Height int `yaml:"height" default:"500"`
	} `yaml:"render"`
	Stream struct {
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"stream"`
}

// DefaultInstruments is the catalog offered when the config file lists none.
var DefaultInstruments = []Instrument{
	{Symbol: "AAPL", Label: "Apple (AAPL)"},
	{Symbol: "MSFT", Label: "Microsoft (MSFT)"},
	{Symbol: "AMZN", Label: "Amazon (AMZN)"},
	{Symbol: "AVGO", Label: "Broadcom (AVGO)"},
	{Symbol: "META", Label: "Meta (META)"},
	{Symbol: "NDX", Label: "NASDAQ-100 (NDX)"},
}

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	c.Dashboard.Instruments = append([]Instrument(nil), DefaultInstruments...)
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Dashboard.Instruments) == 0 {
		c.Dashboard.Instruments = append([]Instrument(nil), DefaultInstruments...)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are used instead.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr != nil && os.IsNotExist(statErr) {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("ANALYTICS_URL"); v != "" {
		c.Analytics.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Analytics.BaseURL == "" {
		return fmt.Errorf("analytics.base_url is required")
	}
	if u, err := url.Parse(c.Analytics.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("analytics.base_url must be an absolute URL, got '%s'", c.Analytics.BaseURL)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'console' or 'json', got '%s'", c.Log.Format)
	}
	start, err := time.Parse(time.DateOnly, c.Dashboard.DefaultStart)
	if err != nil {
		return fmt.Errorf("dashboard.default_start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, c.Dashboard.DefaultEnd)
	if err != nil {
		return fmt.Errorf("dashboard.default_end: %w", err)
	}
	if start.After(end) {
		return fmt.Errorf("dashboard.default_start must not be after dashboard.default_end")
	}
	seen := make(map[string]bool, len(c.Dashboard.Instruments))
	for _, in := range c.Dashboard.Instruments {
		if in.Symbol == "" {
			return fmt.Errorf("dashboard.instruments: symbol cannot be empty")
		}
		if seen[in.Symbol] {
			return fmt.Errorf("dashboard.instruments: duplicate symbol '%s'", in.Symbol)
		}
		seen[in.Symbol] = true
	}
	if c.Server.AnalyzeLimit.Burst < 1 || c.Server.AnalyzeLimit.PerSecond <= 0 {
		return fmt.Errorf("server.analyze_limit needs burst >= 1 and per_second > 0")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be positive")
	}
	return nil
}
