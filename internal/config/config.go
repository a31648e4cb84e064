package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Simulation struct {
		NeedleLength float64 `yaml:"needle_length"`
		LineSpacing  float64 `yaml:"line_spacing"`
		FieldWidth   float64 `yaml:"field_width"`
		BatchSize    int     `yaml:"batch_size"`
		Seed         uint64  `yaml:"seed"`
		TickCron     string  `yaml:"tick_cron"`
		SnapshotCron string  `yaml:"snapshot_cron"`
	} `yaml:"simulation"`
	Betting struct {
		HouseEdge           *float64      `yaml:"house_edge"`
		TargetDigits        *int          `yaml:"convergence_target_digits"`
		InitialBalance      float64       `yaml:"initial_balance"`
		MaxOdds             float64       `yaml:"max_odds"`
		ResultDisplayDelay  time.Duration `yaml:"result_display_delay"`
		DefaultTargetTrials int64         `yaml:"default_target_trials"`
	} `yaml:"betting"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Address string `yaml:"address"`
	} `yaml:"http"`
	ReportFile string `yaml:"report_file"`
	Proxy      string `yaml:"proxy"`
}

// Defaults used when neither the file nor the environment sets a value.
const (
	DefaultNeedleLength        = 50.0
	DefaultLineSpacing         = 100.0
	DefaultBatchSize           = 300
	DefaultTickCron            = "@every 1s"
	DefaultSnapshotCron        = "0 * * * * *"
	DefaultHouseEdge           = 0.1
	DefaultTargetDigits        = 5
	DefaultInitialBalance      = 100.0
	DefaultMaxOdds             = 50.0
	DefaultResultDisplayDelay  = 5 * time.Second
	DefaultDefaultTargetTrials = 1000
)

// LoadDotEnv loads a .env file into the process environment when present.
// Variables already set take precedence.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"NEEDLE_LENGTH", &c.Simulation.NeedleLength},
		{"LINE_SPACING", &c.Simulation.LineSpacing},
		{"INITIAL_BALANCE", &c.Betting.InitialBalance},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("env %s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	if v := os.Getenv("HOUSE_EDGE"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env HOUSE_EDGE: %w", err)
		}
		c.Betting.HouseEdge = &n
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env BATCH_SIZE: %w", err)
		}
		c.Simulation.BatchSize = n
	}
	if v := os.Getenv("CONVERGENCE_TARGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env CONVERGENCE_TARGET: %w", err)
		}
		c.Betting.TargetDigits = &n
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("env SIM_SEED: %w", err)
		}
		c.Simulation.Seed = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"TICK_CRON", &c.Simulation.TickCron},
		{"TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &c.Telegram.ChatID},
		{"SQLITE_PATH", &c.Database.SQLitePath},
		{"HTTP_ADDRESS", &c.HTTP.Address},
		{"REPORT_FILE", &c.ReportFile},
		{"HTTPS_PROXY", &c.Proxy},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Simulation.NeedleLength == 0 {
		c.Simulation.NeedleLength = DefaultNeedleLength
	}
	if c.Simulation.LineSpacing == 0 {
		c.Simulation.LineSpacing = DefaultLineSpacing
	}
	if c.Simulation.FieldWidth == 0 {
		c.Simulation.FieldWidth = 8 * c.Simulation.LineSpacing
	}
	if c.Simulation.BatchSize == 0 {
		c.Simulation.BatchSize = DefaultBatchSize
	}
	if c.Simulation.TickCron == "" {
		c.Simulation.TickCron = DefaultTickCron
	}
	if c.Simulation.SnapshotCron == "" {
		c.Simulation.SnapshotCron = DefaultSnapshotCron
	}
	if c.Betting.HouseEdge == nil {
		e := DefaultHouseEdge
		c.Betting.HouseEdge = &e
	}
	if c.Betting.TargetDigits == nil {
		d := DefaultTargetDigits
		c.Betting.TargetDigits = &d
	}
	if c.Betting.InitialBalance == 0 {
		c.Betting.InitialBalance = DefaultInitialBalance
	}
	if c.Betting.MaxOdds == 0 {
		c.Betting.MaxOdds = DefaultMaxOdds
	}
	if c.Betting.ResultDisplayDelay == 0 {
		c.Betting.ResultDisplayDelay = DefaultResultDisplayDelay
	}
	if c.Betting.DefaultTargetTrials == 0 {
		c.Betting.DefaultTargetTrials = DefaultDefaultTargetTrials
	}
}

// Digits returns the convergence target, defaulted when unset.
func (c *Config) Digits() int {
	if c.Betting.TargetDigits == nil {
		return DefaultTargetDigits
	}
	return *c.Betting.TargetDigits
}

// Edge returns the house edge, defaulted when unset.
func (c *Config) Edge() float64 {
	if c.Betting.HouseEdge == nil {
		return DefaultHouseEdge
	}
	return *c.Betting.HouseEdge
}

// TelegramEnabled reports whether chat credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all values are in range.
func (c *Config) Validate() error {
	sim := c.Simulation
	for name, v := range map[string]float64{
		"simulation.needle_length": sim.NeedleLength,
		"simulation.line_spacing":  sim.LineSpacing,
		"simulation.field_width":   sim.FieldWidth,
		"betting.house_edge":       c.Edge(),
		"betting.initial_balance":  c.Betting.InitialBalance,
		"betting.max_odds":         c.Betting.MaxOdds,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	if sim.NeedleLength <= 0 {
		return fmt.Errorf("simulation.needle_length must be positive")
	}
	if sim.LineSpacing <= 0 {
		return fmt.Errorf("simulation.line_spacing must be positive")
	}
	if sim.NeedleLength > sim.LineSpacing {
		return fmt.Errorf("simulation.needle_length must not exceed line_spacing")
	}
	if sim.FieldWidth < sim.LineSpacing {
		return fmt.Errorf("simulation.field_width must be at least line_spacing")
	}
	if sim.BatchSize < 1 {
		return fmt.Errorf("simulation.batch_size must be at least 1")
	}
	if e := c.Edge(); e < 0 || e >= 1 {
		return fmt.Errorf("betting.house_edge must be in [0, 1)")
	}
	if d := c.Digits(); d < 0 || d > 5 {
		return fmt.Errorf("betting.convergence_target_digits must be in [0, 5]")
	}
	if c.Betting.InitialBalance <= 0 {
		return fmt.Errorf("betting.initial_balance must be positive")
	}
	if c.Betting.MaxOdds < 1 {
		return fmt.Errorf("betting.max_odds must be at least 1")
	}
	if c.Betting.ResultDisplayDelay < 0 {
		return fmt.Errorf("betting.result_display_delay must not be negative")
	}
	if c.Betting.DefaultTargetTrials <= 0 {
		return fmt.Errorf("betting.default_target_trials must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
