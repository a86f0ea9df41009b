package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Finnhub   FinnhubConfig  `mapstructure:"finnhub"`
	Log       LogConfig      `mapstructure:"log"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	Recorder  RecorderConfig `mapstructure:"recorder"`
	Chart     ChartConfig    `mapstructure:"chart"`
	UI        UIConfig       `mapstructure:"ui"`
	Bridge    BridgeConfig   `mapstructure:"bridge"`
	Watchlist []string       `mapstructure:"watchlist"` // symbol codes tracked at startup
}

type FinnhubConfig struct {
	REST  RESTConfig `mapstructure:"rest"`
	Token string     `mapstructure:"token"` // read from SSM in prod when empty
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"

	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// RecorderConfig selects where fetched price series are archived.
type RecorderConfig struct {
	Driver     string `mapstructure:"driver"`      // "none", "memory", "postgres" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"` // database file for the sqlite driver
	CreateDB   bool   `mapstructure:"create_db"`   // create the postgres database if missing

	Retention     time.Duration `mapstructure:"retention"`      // prune points older than this; 0 keeps everything
	PruneInterval time.Duration `mapstructure:"prune_interval"` // how often retention is applied
}

type ChartConfig struct {
	Width         float64      `mapstructure:"width"`
	Height        float64      `mapstructure:"height"`
	Margin        MarginConfig `mapstructure:"margin"`
	MovingAverage int          `mapstructure:"moving_average"` // window length in samples
	Location      string       `mapstructure:"location"`       // IANA zone that splits trading days
}

type MarginConfig struct {
	Top    float64 `mapstructure:"top"`
	Right  float64 `mapstructure:"right"`
	Bottom float64 `mapstructure:"bottom"`
	Left   float64 `mapstructure:"left"`
}

type UIConfig struct {
	Debounce time.Duration `mapstructure:"debounce"` // quiet period for search input and resize
}

type BridgeConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

var recorderDrivers = map[string]bool{
	"none":     true,
	"memory":   true,
	"postgres": true,
	"sqlite":   true,
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	var dir string
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		dir = filepath.Join(pwd, "../../config")
	} else {
		dir = filepath.Join(filepath.Dir(ex), "../config")
	}
	if env := os.Getenv("STOCKCHART_CONFIG_DIR"); env != "" {
		dir = env
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// LoadFrom reads config.yaml from dir, applies defaults and environment
// overrides (e.g. FINNHUB_REST_BASE_URL) and validates the result.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)

	// Support environment variables with dot notation (e.g., FINNHUB_TOKEN)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("finnhub.rest.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("finnhub.rest.timeout", 10*time.Second)
	v.SetDefault("finnhub.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)

	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")

	v.SetDefault("recorder.driver", "none")
	v.SetDefault("recorder.sqlite_path", "data/prices.db")
	v.SetDefault("recorder.retention", 0)
	v.SetDefault("recorder.prune_interval", time.Hour)

	v.SetDefault("chart.width", 960)
	v.SetDefault("chart.height", 480)
	v.SetDefault("chart.margin.top", 10)
	v.SetDefault("chart.margin.right", 10)
	v.SetDefault("chart.margin.bottom", 40)
	v.SetDefault("chart.margin.left", 50)
	v.SetDefault("chart.moving_average", 14)
	v.SetDefault("chart.location", "America/New_York")

	v.SetDefault("ui.debounce", 300*time.Millisecond)

	v.SetDefault("bridge.addr", ":8080")
	v.SetDefault("bridge.path", "/ws")
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Finnhub.REST.BaseURL == "" {
		return fmt.Errorf("finnhub.rest.base_url is required")
	}
	if c.Finnhub.REST.Timeout <= 0 {
		return fmt.Errorf("finnhub.rest.timeout must be positive")
	}
	if !recorderDrivers[c.Recorder.Driver] {
		return fmt.Errorf("unknown recorder driver %q", c.Recorder.Driver)
	}
	if c.Recorder.Driver == "sqlite" && c.Recorder.SQLitePath == "" {
		return fmt.Errorf("recorder.sqlite_path is required for the sqlite driver")
	}
	if c.Recorder.Retention < 0 {
		return fmt.Errorf("recorder.retention must not be negative")
	}
	if c.Recorder.Retention > 0 && c.Recorder.PruneInterval <= 0 {
		return fmt.Errorf("recorder.prune_interval must be positive when retention is set")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart size must be positive, got %vx%v", c.Chart.Width, c.Chart.Height)
	}
	if c.Chart.MovingAverage <= 0 {
		return fmt.Errorf("chart.moving_average must be positive")
	}
	if _, err := c.Chart.TimeLocation(); err != nil {
		return err
	}
	if c.UI.Debounce < 0 {
		return fmt.Errorf("ui.debounce must not be negative")
	}
	return nil
}

// TimeLocation loads the zone used to split trading days.
func (c ChartConfig) TimeLocation() (*time.Location, error) {
	if c.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("chart.location: %w", err)
	}
	return loc, nil
}
