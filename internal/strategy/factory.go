package strategy

import (
	"strings"
	"time"
)

// Timeframe is a window-size preset selectable by name.
type Timeframe struct {
	Name  string
	Ticks int
	Key   string // chart-data key used by the history provider
	Label string
}

var (
	// Scalper closes a raw window every 5 ticks.
	Scalper = Timeframe{Name: "scalper", Ticks: 5, Key: "s5", Label: "Scalper (5s)"}
	// Trend closes a raw window every 15 ticks.
	Trend = Timeframe{Name: "trend", Ticks: 15, Key: "s15", Label: "Trend (15s)"}
)

// ParseTimeframe resolves a preset by name, falling back to Trend.
func ParseTimeframe(mode string) Timeframe {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "scalper", "scalp", "s5":
		return Scalper
	default:
		return Trend
	}
}

// Build returns an engine for the named timeframe. Explicit WindowTicks and
// BarInterval in params take precedence over the preset.
func Build(mode string, params Params, opts ...Option) *Engine {
	tf := ParseTimeframe(mode)
	if params.WindowTicks <= 0 {
		params.WindowTicks = tf.Ticks
	}
	if params.BarInterval <= 0 {
		params.BarInterval = time.Duration(params.WindowTicks) * time.Second
	}
	return NewEngine(params, opts...)
}
