// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"impulsebot-go/internal/strategy"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	PrettyLogs  bool   `yaml:"pretty_logs"`
}

// Feed describes where live ticks and seed history come from.
type Feed struct {
	Provider       string `yaml:"provider"` // stub|catapult|binance|dexscreener
	Symbol         string `yaml:"symbol"`
	TokenID        string `yaml:"token_id"`
	WSURL          string `yaml:"ws_url"`
	APIURL         string `yaml:"api_url"`
	StubIntervalMs int    `yaml:"stub_interval_ms"`
	WarmUp         bool   `yaml:"warm_up"`

	BinanceURL     string `yaml:"binance_url"`
	DexScreenerURL string `yaml:"dexscreener_url"`
	Pair           string `yaml:"pair"` // chain/address for dexscreener
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

// StrategyParams groups tunable knobs of the impulse engine.
type StrategyParams struct {
	WindowTicks         int     `yaml:"window_ticks"`
	AveragingWindow     int     `yaml:"averaging_window"`
	BodyCapacity        int     `yaml:"body_capacity"`
	ImpulseThreshold    float64 `yaml:"impulse_threshold"`
	RescueDropThreshold float64 `yaml:"rescue_drop_threshold"`
	TakeProfitStage1    float64 `yaml:"take_profit_stage1"`
	TakeProfitStage2    float64 `yaml:"take_profit_stage2"`
	MaxHoldMs           int     `yaml:"max_hold_ms"`
	CooldownMs          int     `yaml:"cooldown_ms"`
	ConfirmationTicks   int     `yaml:"confirmation_ticks"`
	StakeSize           float64 `yaml:"stake_size"`
}

// Strategy specifies the timeframe preset along with the parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode"` // scalper|trend
	Params StrategyParams `yaml:"params"`
}

// Risk encodes guard-rails for how much the bot may stake and lose.
type Risk struct {
	MaxStakePerTrade float64 `yaml:"max_stake_per_trade"`
	MaxSessionLoss   float64 `yaml:"max_session_loss"`
}

// Paper captures paper-trading account settings and decision sinks.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash"`
	EventsPath   string  `yaml:"events_path"`
	SQLitePath   string  `yaml:"sqlite_path"`
	ReportCron   string  `yaml:"report_cron"`
	JournalSize  int     `yaml:"journal_size"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Feed     Feed     `yaml:"feed"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Paper    Paper    `yaml:"paper"`
}

// Load reads a YAML file from disk, applies .env/environment overrides and defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	_ = godotenv.Load() // best-effort
	config.applyEnv()
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CATAPULT_TOKEN_ID"); v != "" {
		c.Feed.TokenID = v
	}
	if v := os.Getenv("FEED_PROVIDER"); v != "" {
		c.Feed.Provider = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.App.MetricsAddr = v
	}
	if v := os.Getenv("STAKE_SIZE"); v != "" {
		if stake, err := strconv.ParseFloat(v, 64); err == nil {
			c.Strategy.Params.StakeSize = stake
		}
	}
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "impulsebot"
	}
	if c.App.MetricsAddr == "" {
		c.App.MetricsAddr = ":9102"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	c.Feed.Provider = strings.ToLower(strings.TrimSpace(c.Feed.Provider))
	if c.Feed.Provider == "" {
		c.Feed.Provider = "stub"
	}
	if c.Strategy.Mode == "" {
		c.Strategy.Mode = strategy.Trend.Name
	}

	def := strategy.DefaultParams()
	p := &c.Strategy.Params
	if p.WindowTicks <= 0 {
		p.WindowTicks = strategy.ParseTimeframe(c.Strategy.Mode).Ticks
	}
	if p.AveragingWindow <= 0 {
		p.AveragingWindow = def.AveragingWindow
	}
	if p.BodyCapacity <= 0 {
		p.BodyCapacity = def.BodyCapacity
	}
	if p.ImpulseThreshold == 0 {
		p.ImpulseThreshold = def.ImpulseThreshold
	}
	if p.RescueDropThreshold == 0 {
		p.RescueDropThreshold = def.RescueDropThreshold
	}
	if p.TakeProfitStage1 == 0 {
		p.TakeProfitStage1 = def.TakeProfitStage1
	}
	if p.TakeProfitStage2 == 0 {
		p.TakeProfitStage2 = def.TakeProfitStage2
	}
	if p.MaxHoldMs <= 0 {
		p.MaxHoldMs = int(def.MaxHold / time.Millisecond)
	}
	if p.CooldownMs == 0 { // negative disables the cooldown
		p.CooldownMs = int(def.Cooldown / time.Millisecond)
	}
	if p.ConfirmationTicks <= 0 {
		p.ConfirmationTicks = def.ConfirmationTicks
	}
	if p.StakeSize == 0 {
		p.StakeSize = def.StakeSize
	}

	if c.Paper.JournalSize <= 0 {
		c.Paper.JournalSize = 100
	}
}

// StrategyParams maps the YAML knobs onto engine parameters.
func (c *Config) StrategyParams() strategy.Params {
	p := c.Strategy.Params
	return strategy.Params{
		WindowTicks:         p.WindowTicks,
		AveragingWindow:     p.AveragingWindow,
		BodyCapacity:        p.BodyCapacity,
		ImpulseThreshold:    p.ImpulseThreshold,
		RescueDropThreshold: p.RescueDropThreshold,
		TakeProfitStage1:    p.TakeProfitStage1,
		TakeProfitStage2:    p.TakeProfitStage2,
		MaxHold:             time.Duration(p.MaxHoldMs) * time.Millisecond,
		Cooldown:            time.Duration(p.CooldownMs) * time.Millisecond,
		ConfirmationTicks:   p.ConfirmationTicks,
		StakeSize:           p.StakeSize,
		BarInterval:         time.Duration(p.WindowTicks) * time.Second,
	}
}

// Validate checks that the strategy and risk sections can run.
func (c *Config) Validate() error {
	if err := c.StrategyParams().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	switch c.Feed.Provider {
	case "stub":
	case "catapult":
		if c.Feed.TokenID == "" {
			return fmt.Errorf("feed.token_id is required for the catapult provider")
		}
	case "binance":
		if c.Feed.Symbol == "" {
			return fmt.Errorf("feed.symbol is required for the binance provider")
		}
	case "dexscreener":
		if c.Feed.Pair == "" {
			return fmt.Errorf("feed.pair is required for the dexscreener provider")
		}
	default:
		return fmt.Errorf("unknown feed provider %q", c.Feed.Provider)
	}
	if c.Risk.MaxStakePerTrade > 0 && c.Strategy.Params.StakeSize > c.Risk.MaxStakePerTrade {
		return fmt.Errorf("stake size %.4f exceeds risk.max_stake_per_trade %.4f", c.Strategy.Params.StakeSize, c.Risk.MaxStakePerTrade)
	}
	return nil
}
