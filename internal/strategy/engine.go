package strategy

import (
	"time"

	"github.com/google/uuid"

	"impulsebot-go/internal/candle"
)

// Update is everything one tick produces.
type Update struct {
	Time      time.Time
	Price     float64
	Ticks     int              // ticks in the forming window, including this one
	Preview   candle.Smoothed  // forming Heikin-Ashi candle
	Finalized *candle.Smoothed // set when this tick completed the window
	Impulse   Impulse
	Event     *Event // at most one decision per tick
}

// Engine sequences window building, impulse detection, the position machine
// and window finalization for one instrument. It is not safe for concurrent
// use; feed it ticks from a single goroutine. Discarding the engine drops all
// of its state at once.
type Engine struct {
	params       Params
	now          func() time.Time
	window       *candle.Window
	bodies       *BodyHistory
	candles      []candle.Smoothed
	machine      machine
	windowSignal candle.Signal
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock injects the time source used for cooldown, hold time and stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how position ids are minted.
func WithIDGenerator(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.machine.newID = next
		}
	}
}

// NewEngine builds an engine; zero-valued params fall back to DefaultParams.
// A negative Cooldown turns the cooldown off.
func NewEngine(params Params, opts ...Option) *Engine {
	params = params.withDefaults()
	e := &Engine{
		params:       params,
		now:          time.Now,
		window:       candle.NewWindow(params.WindowTicks),
		bodies:       NewBodyHistory(params.BodyCapacity),
		machine:      machine{params: params, newID: uuid.NewString},
		windowSignal: candle.SignalNone,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns the effective configuration.
func (e *Engine) Params() Params { return e.params }

// Seed warms the engine with historical windows, oldest first. Bodies feed the
// rolling average and smoothed candles are chained with synthetic timestamps
// spaced by BarInterval and ending now.
func (e *Engine) Seed(history []candle.OHLC) {
	now := e.now()
	n := len(history)
	for i, raw := range history {
		e.bodies.Record(raw.Body())
		ha := candle.HeikinAshi(raw, e.last())
		ha.Timestamp = now.Add(-time.Duration(n-1-i) * e.params.BarInterval)
		e.candles = append(e.candles, ha)
	}
}

// OnTick processes one price: observe, preview, decide, then finalize the
// window if it is full. Decisions always see the forming window before reset.
func (e *Engine) OnTick(price float64) Update {
	now := e.now()

	e.window.Observe(price)
	raw := e.window.Snapshot()
	preview := candle.HeikinAshi(raw, e.last())
	preview.Timestamp = now

	imp := EvaluateImpulse(raw.Open, price, e.bodies.MovingAverage(e.params.AveragingWindow), e.params.ImpulseThreshold)
	ev := e.machine.step(now, price, imp, preview)
	if ev != nil {
		e.windowSignal = ev.Kind
	}
	preview.Signal = e.windowSignal

	upd := Update{
		Time:    now,
		Price:   price,
		Ticks:   e.window.Len(),
		Preview: preview,
		Impulse: imp,
		Event:   ev,
	}

	if e.window.IsFull(e.params.WindowTicks) {
		final := e.finalize(raw, now)
		upd.Finalized = &final
	}
	return upd
}

func (e *Engine) finalize(raw candle.OHLC, now time.Time) candle.Smoothed {
	e.bodies.Record(raw.Body())
	final := candle.HeikinAshi(raw, e.last())
	final.Timestamp = now
	final.Signal = e.windowSignal
	e.candles = append(e.candles, final)
	e.window.Reset()
	e.windowSignal = candle.SignalNone
	return final
}

func (e *Engine) last() *candle.Smoothed {
	if len(e.candles) == 0 {
		return nil
	}
	return &e.candles[len(e.candles)-1]
}

// Position returns a copy of the open position, if any.
func (e *Engine) Position() (Position, bool) {
	if e.machine.pos == nil {
		return Position{}, false
	}
	return *e.machine.pos, true
}

// Candles returns a copy of the finalized smoothed candle history.
func (e *Engine) Candles() []candle.Smoothed {
	out := make([]candle.Smoothed, len(e.candles))
	copy(out, e.candles)
	return out
}

// AverageBody is the current rolling average used for impulse detection.
func (e *Engine) AverageBody() float64 {
	return e.bodies.MovingAverage(e.params.AveragingWindow)
}

// LastClose is the time the most recent position closed, zero if none has.
func (e *Engine) LastClose() time.Time { return e.machine.lastClose }

// CooldownRemaining reports how long entries stay blocked as of now.
func (e *Engine) CooldownRemaining() time.Duration {
	return CooldownRemaining(e.now(), e.machine.lastClose, e.params.Cooldown)
}
