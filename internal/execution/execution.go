// Package execution turns engine decisions into paper orders and fills.
package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"impulsebot-go/internal/candle"
	"impulsebot-go/internal/metrics"
	"impulsebot-go/internal/strategy"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy opens or adds to the long.
	Buy Side = "BUY"
	// Sell flattens the long.
	Sell Side = "SELL"
)

// Order represents a placement request the executor can process.
type Order struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Qty        float64 `json:"qty"`
	Price      float64 `json:"price"`
	PositionID string  `json:"position_id"`
	Reason     string  `json:"reason,omitempty"`
}

// Fill is the paper execution of an order at its limit price.
type Fill struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Qty        float64   `json:"qty"`
	Price      float64   `json:"price"`
	Notional   float64   `json:"notional"`
	PositionID string    `json:"position_id"`
	Time       time.Time `json:"time"`
}

// Executor fills orders locally and tracks how many units each open position holds.
type Executor struct {
	log   zerolog.Logger
	stake float64

	mu   sync.Mutex
	held map[string]float64 // position id -> units bought
}

// NewExecutor wraps a zerolog logger; every ENTRY/RESCUE lot spends stake quote units.
func NewExecutor(log zerolog.Logger, stake float64) *Executor {
	return &Executor{log: log, stake: stake, held: make(map[string]float64)}
}

// OrderFor maps a decision event to the order that mirrors it.
// ENTRY and RESCUE buy one stake-sized lot, EXIT sells everything the position holds.
func (executor *Executor) OrderFor(symbol string, event strategy.Event) (Order, error) {
	if event.Price <= 0 {
		return Order{}, fmt.Errorf("event price must be positive, got %.8f", event.Price)
	}
	order := Order{Symbol: symbol, Price: event.Price, PositionID: event.Position.ID}
	switch event.Kind {
	case candle.SignalEntry, candle.SignalRescue:
		order.Side = Buy
		order.Qty = executor.stake / event.Price
		order.Reason = string(event.Kind)
	case candle.SignalExit:
		executor.mu.Lock()
		order.Qty = executor.held[event.Position.ID]
		executor.mu.Unlock()
		if order.Qty <= 0 {
			return Order{}, fmt.Errorf("no units held for position %s", event.Position.ID)
		}
		order.Side = Sell
		if event.Position.Exit != nil {
			order.Reason = string(event.Position.Exit.Reason)
		}
	default:
		return Order{}, fmt.Errorf("event kind %q has no order", event.Kind)
	}
	return order, nil
}

// Submit fills the order at its price and logs the request. Held units only
// change once the fill is settled.
func (executor *Executor) Submit(order Order, at time.Time) (Fill, error) {
	if order.Qty <= 0 {
		return Fill{}, fmt.Errorf("order quantity must be positive")
	}
	if order.Side != Buy && order.Side != Sell {
		return Fill{}, fmt.Errorf("unknown order side %q", order.Side)
	}

	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	executor.log.Info().
		Str("sym", order.Symbol).
		Str("side", string(order.Side)).
		Str("position", order.PositionID).
		Str("reason", order.Reason).
		Float64("qty", order.Qty).
		Float64("px", order.Price).
		Msg("submit order (paper)")

	return Fill{
		ID:         uuid.NewString(),
		Symbol:     order.Symbol,
		Side:       order.Side,
		Qty:        order.Qty,
		Price:      order.Price,
		Notional:   order.Qty * order.Price,
		PositionID: order.PositionID,
		Time:       at,
	}, nil
}

// Settle books an accepted fill against the position's held units.
func (executor *Executor) Settle(fill Fill) {
	executor.mu.Lock()
	defer executor.mu.Unlock()
	switch fill.Side {
	case Buy:
		executor.held[fill.PositionID] += fill.Qty
	case Sell:
		delete(executor.held, fill.PositionID)
	}
}

// Held reports units currently bought for a position.
func (executor *Executor) Held(positionID string) float64 {
	executor.mu.Lock()
	defer executor.mu.Unlock()
	return executor.held[positionID]
}
