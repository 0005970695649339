package strategy

import (
	"time"

	"impulsebot-go/internal/candle"
)

// ExitReason names the rule that closed a position.
type ExitReason string

const (
	ExitReversal     ExitReason = "reversal"
	ExitTarget       ExitReason = "target"
	ExitRescueTarget ExitReason = "rescue_target"
	ExitTimeLimit    ExitReason = "time_limit"
)

// Exit seals a position. It is set exactly once, when the position closes.
type Exit struct {
	Price  float64    `json:"price"`
	Time   time.Time  `json:"time"`
	PnL    float64    `json:"pnl"`
	ROI    float64    `json:"roi"`
	Reason ExitReason `json:"reason"`
}

// Position is the single trade the engine may hold.
type Position struct {
	ID                string    `json:"id"`
	EntryTime         time.Time `json:"entry_time"`
	InitialEntryPrice float64   `json:"initial_entry_price"`
	AvgPrice          float64   `json:"avg_price"`
	Stage             int       `json:"stage"` // 1 initial lot, 2 after rescue
	Exit              *Exit     `json:"exit,omitempty"`
}

// Open reports whether the position has not been sealed yet.
func (p Position) Open() bool { return p.Exit == nil }

// Event is a decision raised by the position machine.
type Event struct {
	Kind       candle.Signal `json:"kind"`
	Time       time.Time     `json:"time"`
	Price      float64       `json:"price"`
	Multiplier float64       `json:"multiplier,omitempty"` // impulse multiple at entry
	Position   Position      `json:"position"`             // state after the transition
}

// latch is per-position trend confirmation state.
type latch struct {
	seenGreen bool
	redTicks  int
}

func (l *latch) observe(forming candle.Smoothed) {
	switch {
	case forming.Green():
		l.seenGreen = true
		l.redTicks = 0
	case forming.Red() && l.seenGreen:
		l.redTicks++
	}
}
