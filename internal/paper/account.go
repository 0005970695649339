package paper

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"impulsebot-go/internal/execution"
)

// qtyTolerance absorbs float rounding between the executor's unit count and ours.
var qtyTolerance = decimal.New(1, -9)

type holding struct {
	Qty  decimal.Decimal
	Cost decimal.Decimal // quote spent on the open units
}

// Account mirrors paper fills against a starting bankroll.
type Account struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	realized     decimal.Decimal
	holdings     map[string]holding
}

// Snapshot is a point-in-time view of the account marked at a price.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	Equity      float64
	Qty         float64
	Unrealized  float64
}

// NewAccount constructs an account with the given starting cash.
func NewAccount(startingCash float64) *Account {
	start := decimal.NewFromFloat(startingCash)
	return &Account{
		startingCash: start,
		cash:         start,
		holdings:     make(map[string]holding),
	}
}

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() float64 { return a.startingCash.InexactFloat64() }

// Apply books a fill. Buys spend cash; a sell must close exactly the units held.
func (a *Account) Apply(fill execution.Fill) error {
	if fill.Qty <= 0 {
		return errors.New("quantity must be positive")
	}
	if fill.Price <= 0 {
		return errors.New("price must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.holdings[fill.Symbol]
	qty := decimal.NewFromFloat(fill.Qty)
	notional := qty.Mul(decimal.NewFromFloat(fill.Price))

	switch fill.Side {
	case execution.Buy:
		if notional.GreaterThan(a.cash) {
			return fmt.Errorf("insufficient cash for buy: need %s, have %s", notional.StringFixed(4), a.cash.StringFixed(4))
		}
		a.cash = a.cash.Sub(notional)
		a.holdings[fill.Symbol] = holding{Qty: h.Qty.Add(qty), Cost: h.Cost.Add(notional)}

	case execution.Sell:
		if h.Qty.IsZero() {
			return errors.New("insufficient position to sell")
		}
		if qty.Sub(h.Qty).Abs().GreaterThan(h.Qty.Mul(qtyTolerance)) {
			return fmt.Errorf("sell of %s units does not match holding of %s", qty.String(), h.Qty.String())
		}
		proceeds := h.Qty.Mul(decimal.NewFromFloat(fill.Price))
		a.cash = a.cash.Add(proceeds)
		a.realized = a.realized.Add(proceeds.Sub(h.Cost))
		delete(a.holdings, fill.Symbol)

	default:
		return errors.New("unknown order side")
	}
	return nil
}

// Record implements the fill sink used by the runner.
func (a *Account) Record(fill execution.Fill) error { return a.Apply(fill) }

// Snapshot returns balances for symbol marked at price.
func (a *Account) Snapshot(symbol string, mark float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.holdings[symbol]
	value := h.Qty.Mul(decimal.NewFromFloat(mark))
	equity := a.cash
	unrealized := decimal.Zero
	if mark > 0 && !h.Qty.IsZero() {
		equity = equity.Add(value)
		unrealized = value.Sub(h.Cost)
	}
	return Snapshot{
		Cash:        a.cash.InexactFloat64(),
		RealizedPnL: a.realized.InexactFloat64(),
		Equity:      equity.InexactFloat64(),
		Qty:         h.Qty.InexactFloat64(),
		Unrealized:  unrealized.InexactFloat64(),
	}
}

// RealizedPnL returns total closed-trade profit and loss.
func (a *Account) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realized.InexactFloat64()
}
