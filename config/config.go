// Package config loads the engine configuration from a YAML or JSON file,
// with optional environment overrides (a local .env is honored).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/updown/risk"
)

// Config is the complete runtime configuration.
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	State   StateConfig   `json:"state" yaml:"state"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// EngineConfig mirrors risk.Policy with serialization tags.
type EngineConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	FeePct         float64 `json:"fee_pct" yaml:"fee_pct"`

	KellyFraction float64 `json:"kelly_fraction" yaml:"kelly_fraction"`
	MinBet        float64 `json:"min_bet" yaml:"min_bet"`
	MaxBet        float64 `json:"max_bet" yaml:"max_bet"`

	MaxConcurrentPositions int     `json:"max_concurrent_positions" yaml:"max_concurrent_positions"`
	MinEntryPrice          float64 `json:"min_entry_price" yaml:"min_entry_price"`
	MaxEntryPrice          float64 `json:"max_entry_price" yaml:"max_entry_price"`
	MaxConsecutiveLosses   int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`
	DailyLossLimit         float64 `json:"daily_loss_limit" yaml:"daily_loss_limit"`
	CooldownMinutes        float64 `json:"cooldown_minutes" yaml:"cooldown_minutes"`
	EntryCooldownSeconds   float64 `json:"entry_cooldown_seconds" yaml:"entry_cooldown_seconds"`
	EntryDeadlineMinutes   float64 `json:"entry_deadline_minutes" yaml:"entry_deadline_minutes"`

	StopLossRoiPct             float64 `json:"stop_loss_roi_pct" yaml:"stop_loss_roi_pct"`
	StopLossGracePeriodSeconds float64 `json:"stop_loss_grace_period_seconds" yaml:"stop_loss_grace_period_seconds"`
	BreakevenTriggerRoiPct     float64 `json:"breakeven_trigger_roi_pct" yaml:"breakeven_trigger_roi_pct"`
	HalfTimeThresholdMinutes   float64 `json:"half_time_threshold_minutes" yaml:"half_time_threshold_minutes"`
	EarlyTakeProfitPrice       float64 `json:"early_take_profit_price" yaml:"early_take_profit_price"`
	EarlyTakeProfitRoiPct      float64 `json:"early_take_profit_roi_pct" yaml:"early_take_profit_roi_pct"`
	TakeProfitPrice            float64 `json:"take_profit_price" yaml:"take_profit_price"`
	TakeProfitRoiPct           float64 `json:"take_profit_roi_pct" yaml:"take_profit_roi_pct"`

	FlipProtectPrice float64 `json:"flip_protect_price" yaml:"flip_protect_price"`
}

// StateConfig selects where the ledger document lives.
type StateConfig struct {
	Backend   string `json:"backend" yaml:"backend"` // "file" or "redis"
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisKey  string `json:"redis_key,omitempty" yaml:"redis_key,omitempty"`
}

// JournalConfig selects the trade-event sink.
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "sqlite", "csv" or "postgres"
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	EventsFile  string `json:"events_file,omitempty" yaml:"events_file,omitempty"`
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint; empty Listen disables it.
type MetricsConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"` // zap level name
}

// Policy converts the engine section into the immutable policy value the
// engine is constructed with.
func (ec EngineConfig) Policy() risk.Policy {
	return risk.Policy{
		InitialBalance:             ec.InitialBalance,
		FeePct:                     ec.FeePct,
		KellyFraction:              ec.KellyFraction,
		MinBet:                     ec.MinBet,
		MaxBet:                     ec.MaxBet,
		MaxConcurrentPositions:     ec.MaxConcurrentPositions,
		MinEntryPrice:              ec.MinEntryPrice,
		MaxEntryPrice:              ec.MaxEntryPrice,
		MaxConsecutiveLosses:       ec.MaxConsecutiveLosses,
		DailyLossLimit:             ec.DailyLossLimit,
		CooldownMinutes:            ec.CooldownMinutes,
		EntryCooldownSeconds:       ec.EntryCooldownSeconds,
		EntryDeadlineMinutes:       ec.EntryDeadlineMinutes,
		StopLossRoiPct:             ec.StopLossRoiPct,
		StopLossGracePeriodSeconds: ec.StopLossGracePeriodSeconds,
		BreakevenTriggerRoiPct:     ec.BreakevenTriggerRoiPct,
		HalfTimeThresholdMinutes:   ec.HalfTimeThresholdMinutes,
		EarlyTakeProfitPrice:       ec.EarlyTakeProfitPrice,
		EarlyTakeProfitRoiPct:      ec.EarlyTakeProfitRoiPct,
		TakeProfitPrice:            ec.TakeProfitPrice,
		TakeProfitRoiPct:           ec.TakeProfitRoiPct,
		FlipProtectPrice:           ec.FlipProtectPrice,
	}
}

// Default returns a configuration matching the baseline policy with a
// local file store and SQLite journal.
func Default() *Config {
	p := risk.Default()
	return &Config{
		Engine: EngineConfig{
			InitialBalance:             p.InitialBalance,
			FeePct:                     p.FeePct,
			KellyFraction:              p.KellyFraction,
			MinBet:                     p.MinBet,
			MaxBet:                     p.MaxBet,
			MaxConcurrentPositions:     p.MaxConcurrentPositions,
			MinEntryPrice:              p.MinEntryPrice,
			MaxEntryPrice:              p.MaxEntryPrice,
			MaxConsecutiveLosses:       p.MaxConsecutiveLosses,
			DailyLossLimit:             p.DailyLossLimit,
			CooldownMinutes:            p.CooldownMinutes,
			EntryCooldownSeconds:       p.EntryCooldownSeconds,
			EntryDeadlineMinutes:       p.EntryDeadlineMinutes,
			StopLossRoiPct:             p.StopLossRoiPct,
			StopLossGracePeriodSeconds: p.StopLossGracePeriodSeconds,
			BreakevenTriggerRoiPct:     p.BreakevenTriggerRoiPct,
			HalfTimeThresholdMinutes:   p.HalfTimeThresholdMinutes,
			EarlyTakeProfitPrice:       p.EarlyTakeProfitPrice,
			EarlyTakeProfitRoiPct:      p.EarlyTakeProfitRoiPct,
			TakeProfitPrice:            p.TakeProfitPrice,
			TakeProfitRoiPct:           p.TakeProfitRoiPct,
			FlipProtectPrice:           p.FlipProtectPrice,
		},
		State: StateConfig{
			Backend: "file",
			Path:    "./updown-state.json",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./updown-journal.db",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadFromFile reads a config file, trying YAML first then JSON, and
// validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays UPDOWN_* environment variables. A .env file in the
// working directory is loaded first when present.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	envFloat("UPDOWN_INITIAL_BALANCE", &c.Engine.InitialBalance)
	envFloat("UPDOWN_FEE_PCT", &c.Engine.FeePct)
	envFloat("UPDOWN_KELLY_FRACTION", &c.Engine.KellyFraction)
	envFloat("UPDOWN_MIN_BET", &c.Engine.MinBet)
	envFloat("UPDOWN_MAX_BET", &c.Engine.MaxBet)
	envFloat("UPDOWN_DAILY_LOSS_LIMIT", &c.Engine.DailyLossLimit)
	envString("UPDOWN_STATE_BACKEND", &c.State.Backend)
	envString("UPDOWN_STATE_PATH", &c.State.Path)
	envString("UPDOWN_REDIS_ADDR", &c.State.RedisAddr)
	envString("UPDOWN_JOURNAL_TYPE", &c.Journal.Type)
	envString("UPDOWN_JOURNAL_DB", &c.Journal.DBPath)
	envString("UPDOWN_POSTGRES_DSN", &c.Journal.PostgresDSN)
	envString("UPDOWN_METRICS_LISTEN", &c.Metrics.Listen)
	envString("UPDOWN_LOG_LEVEL", &c.Log.Level)
}

// Validate checks structural invariants of the configuration.
func (c *Config) Validate() error {
	e := c.Engine
	if e.InitialBalance <= 0 {
		return fmt.Errorf("engine.initial_balance must be positive")
	}
	if e.FeePct < 0 {
		return fmt.Errorf("engine.fee_pct must not be negative")
	}
	if e.MinBet <= 0 || e.MaxBet < e.MinBet {
		return fmt.Errorf("engine.min_bet must be positive and <= max_bet")
	}
	if e.MaxConcurrentPositions <= 0 {
		return fmt.Errorf("engine.max_concurrent_positions must be positive")
	}
	if e.MinEntryPrice < 0 || e.MaxEntryPrice > 1 || e.MinEntryPrice >= e.MaxEntryPrice {
		return fmt.Errorf("engine entry price band must satisfy 0 <= min < max <= 1")
	}
	if e.KellyFraction <= 0 || e.KellyFraction > 1 {
		return fmt.Errorf("engine.kelly_fraction must be in (0, 1]")
	}

	switch c.State.Backend {
	case "file":
		if c.State.Path == "" {
			return fmt.Errorf("state.path required for file backend")
		}
	case "redis":
		if c.State.RedisAddr == "" {
			return fmt.Errorf("state.redis_addr required for redis backend")
		}
	default:
		return fmt.Errorf("state.backend must be 'file' or 'redis'")
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.EventsFile == "" {
			return fmt.Errorf("journal.events_file required for csv journal")
		}
	case "postgres":
		if c.Journal.PostgresDSN == "" {
			return fmt.Errorf("journal.postgres_dsn required for postgres journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv', 'postgres' or 'none'")
	}
	return nil
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = x
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
