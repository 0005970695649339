// Package paper keeps the session record of engine decisions: an in-memory
// journal with statistics, append-only JSONL and SQLite sinks, and a paper
// account that mirrors fills against starting cash.
package paper

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"impulsebot-go/internal/candle"
	"impulsebot-go/internal/strategy"
)

// DefaultLogSize bounds the journal's event log.
const DefaultLogSize = 100

// EntryType classifies a log line for display.
type EntryType string

const (
	EntryInfo    EntryType = "info"
	EntryWarning EntryType = "warning"
	EntryBuy     EntryType = "buy"
	EntryRescue  EntryType = "dca"
	EntryProfit  EntryType = "profit"
	EntryLoss    EntryType = "loss"
)

// Entry is one line of the session log.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Type    EntryType `json:"type"`
	Message string    `json:"message"`
}

// Trade is a closed position.
type Trade struct {
	ID         string              `json:"id"`
	EntryTime  time.Time           `json:"entry_time"`
	ExitTime   time.Time           `json:"exit_time"`
	EntryPrice float64             `json:"entry_price"`
	AvgPrice   float64             `json:"avg_price"`
	ExitPrice  float64             `json:"exit_price"`
	Stage      int                 `json:"stage"`
	PnL        float64             `json:"pnl"`
	ROI        float64             `json:"roi"`
	Reason     strategy.ExitReason `json:"reason"`
}

// Stats summarizes closed trades of the session.
type Stats struct {
	Trades   int
	Wins     int
	WinRate  float64 // percent
	TotalPnL decimal.Decimal
}

// Journal accumulates closed trades and a bounded decision log.
type Journal struct {
	mu      sync.Mutex
	logSize int
	log     []Entry
	trades  []Trade
	total   decimal.Decimal
	wins    int
}

// NewJournal keeps at most logSize log entries; non-positive means DefaultLogSize.
func NewJournal(logSize int) *Journal {
	if logSize <= 0 {
		logSize = DefaultLogSize
	}
	return &Journal{logSize: logSize, log: make([]Entry, 0, logSize)}
}

// Record logs a decision and books the trade when it is an EXIT.
func (j *Journal) Record(event strategy.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	pos := event.Position
	switch event.Kind {
	case candle.SignalEntry:
		j.appendLocked(event.Time, EntryBuy, fmt.Sprintf("IMPULSE %.1fx, entering @ %.4f", event.Multiplier, event.Price))
	case candle.SignalRescue:
		j.appendLocked(event.Time, EntryRescue, fmt.Sprintf("RESCUE @ %.4f, new avg %.4f", event.Price, pos.AvgPrice))
	case candle.SignalExit:
		if pos.Exit == nil {
			return fmt.Errorf("exit event for position %s carries no exit", pos.ID)
		}
		trade := Trade{
			ID:         pos.ID,
			EntryTime:  pos.EntryTime,
			ExitTime:   pos.Exit.Time,
			EntryPrice: pos.InitialEntryPrice,
			AvgPrice:   pos.AvgPrice,
			ExitPrice:  pos.Exit.Price,
			Stage:      pos.Stage,
			PnL:        pos.Exit.PnL,
			ROI:        pos.Exit.ROI,
			Reason:     pos.Exit.Reason,
		}
		j.trades = append(j.trades, trade)
		j.total = j.total.Add(decimal.NewFromFloat(trade.PnL))
		typ := EntryLoss
		if trade.PnL > 0 {
			j.wins++
			typ = EntryProfit
		}
		j.appendLocked(event.Time, typ, fmt.Sprintf("CLOSE @ %.4f (%s) | PnL: $%.4f", trade.ExitPrice, trade.Reason, trade.PnL))
	default:
		return fmt.Errorf("unexpected event kind %q", event.Kind)
	}
	return nil
}

// Note appends a free-form line such as warm-up progress.
func (j *Journal) Note(at time.Time, typ EntryType, message string) {
	j.mu.Lock()
	j.appendLocked(at, typ, message)
	j.mu.Unlock()
}

func (j *Journal) appendLocked(at time.Time, typ EntryType, message string) {
	j.log = append(j.log, Entry{ID: uuid.NewString(), Time: at, Type: typ, Message: message})
	if over := len(j.log) - j.logSize; over > 0 {
		j.log = append(j.log[:0], j.log[over:]...)
	}
}

// Stats returns totals over all closed trades.
func (j *Journal) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()
	stats := Stats{Trades: len(j.trades), Wins: j.wins, TotalPnL: j.total}
	if stats.Trades > 0 {
		stats.WinRate = float64(j.wins) / float64(stats.Trades) * 100
	}
	return stats
}

// Trades returns a copy of closed trades, oldest first.
func (j *Journal) Trades() []Trade {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Trade, len(j.trades))
	copy(out, j.trades)
	return out
}

// Log returns a copy of the retained log lines, oldest first.
func (j *Journal) Log() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.log))
	copy(out, j.log)
	return out
}
