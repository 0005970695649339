// Package bot drives a strategy engine from a tick stream and fans its
// decisions out to journals, recorders, the paper executor and metrics.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"impulsebot-go/internal/candle"
	"impulsebot-go/internal/execution"
	"impulsebot-go/internal/metrics"
	"impulsebot-go/internal/paper"
	"impulsebot-go/internal/risk"
	"impulsebot-go/internal/signal"
	"impulsebot-go/internal/strategy"
)

// ErrSessionLossLimit stops the runner once realized losses reach the risk limit.
var ErrSessionLossLimit = errors.New("session loss limit reached")

// HistoryProvider supplies seed windows, oldest first.
type HistoryProvider interface {
	LoadHistory(ctx context.Context) ([]candle.OHLC, error)
}

// EventSink receives every decision event.
type EventSink interface {
	Record(strategy.Event) error
}

// FillSink receives paper fills produced by the executor.
type FillSink interface {
	Record(execution.Fill) error
}

// Runner owns the engine and feeds it from a single goroutine.
type Runner struct {
	engine   *strategy.Engine
	log      zerolog.Logger
	symbol   string
	limits   risk.Limits
	journal  *paper.Journal
	sinks    []EventSink
	executor *execution.Executor
	fills    []FillSink
	onUpdate func(strategy.Update)
	now      func() time.Time
	realized float64
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSymbol labels metrics and logs when ticks carry no symbol.
func WithSymbol(symbol string) Option {
	return func(r *Runner) { r.symbol = symbol }
}

// WithLimits enables the stake cap and session loss kill switch.
func WithLimits(limits risk.Limits) Option {
	return func(r *Runner) { r.limits = limits }
}

// WithJournal records decisions and warm-up notes into j.
func WithJournal(j *paper.Journal) Option {
	return func(r *Runner) {
		r.journal = j
		r.sinks = append(r.sinks, j)
	}
}

// WithSinks adds event sinks such as file or database recorders.
func WithSinks(sinks ...EventSink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithExecutor mirrors every decision as a paper order whose fill goes to fills.
func WithExecutor(executor *execution.Executor, fills ...FillSink) Option {
	return func(r *Runner) {
		r.executor = executor
		r.fills = append(r.fills, fills...)
	}
}

// WithClock sets the time source for journal notes; pass the engine's clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithUpdateHook observes every per-tick update, e.g. for a live display.
func WithUpdateHook(fn func(strategy.Update)) Option {
	return func(r *Runner) { r.onUpdate = fn }
}

// NewRunner wraps an engine.
func NewRunner(engine *strategy.Engine, log zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{engine: engine, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RealizedPnL is the PnL of positions closed during this run.
func (r *Runner) RealizedPnL() float64 { return r.realized }

// Warmup seeds the engine from provider. Failures and empty history leave the
// engine cold; the returned count is the number of windows seeded.
func (r *Runner) Warmup(ctx context.Context, provider HistoryProvider) int {
	r.note(paper.EntryInfo, "fetching history")
	history, err := provider.LoadHistory(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("warm up failed, continuing with live data only")
		r.note(paper.EntryLoss, fmt.Sprintf("warm up failed: %v", err))
		return 0
	}
	if len(history) == 0 {
		r.log.Warn().Msg("no history found, starting fresh")
		r.note(paper.EntryWarning, "no history found, starting fresh")
		return 0
	}
	r.engine.Seed(history)
	r.log.Info().
		Int("windows", len(history)).
		Float64("avg_body", r.engine.AverageBody()).
		Msg("warm up complete")
	r.note(paper.EntryProfit, fmt.Sprintf("warm up complete: %d historical candles", len(history)))
	return len(history)
}

// Run consumes ticks until ctx is done, the channel closes, or the session
// loss limit trips.
func (r *Runner) Run(ctx context.Context, ticks <-chan signal.Tick) error {
	if stake := r.engine.Params().StakeSize; !r.limits.AllowStake(stake) {
		return fmt.Errorf("stake %.4f exceeds per-trade limit %.4f", stake, r.limits.MaxStakePerTrade)
	}
	r.log.Info().Str("sym", r.symbol).Int("window_ticks", r.engine.Params().WindowTicks).Msg("runner started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("runner stopping")
			return nil
		case tick, ok := <-ticks:
			if !ok {
				return nil
			}
			if err := r.Handle(tick); err != nil {
				return err
			}
		}
	}
}

// Handle processes a single tick.
func (r *Runner) Handle(tick signal.Tick) error {
	symbol := tick.Symbol
	if symbol == "" {
		symbol = r.symbol
	}

	update := r.engine.OnTick(tick.Price)
	metrics.ImpulseMultiplier.WithLabelValues(symbol).Set(update.Impulse.Multiplier)
	metrics.CooldownSeconds.WithLabelValues(symbol).Set(r.engine.CooldownRemaining().Seconds())

	if update.Finalized != nil {
		metrics.CandlesTotal.WithLabelValues(symbol).Inc()
		r.log.Debug().
			Str("sym", symbol).
			Float64("open", update.Finalized.Open).
			Float64("close", update.Finalized.Close).
			Str("signal", string(update.Finalized.Signal)).
			Msg("candle")
	}
	if r.onUpdate != nil {
		r.onUpdate(update)
	}
	if update.Event == nil {
		return nil
	}
	return r.handleEvent(symbol, *update.Event)
}

func (r *Runner) handleEvent(symbol string, event strategy.Event) error {
	metrics.DecisionsTotal.WithLabelValues(symbol, string(event.Kind)).Inc()
	pos := event.Position

	switch event.Kind {
	case candle.SignalEntry:
		r.log.Info().Str("sym", symbol).Str("position", pos.ID).
			Float64("impulse", event.Multiplier).Float64("price", event.Price).Msg("entry")
	case candle.SignalRescue:
		r.log.Info().Str("sym", symbol).Str("position", pos.ID).
			Float64("price", event.Price).Float64("avg_price", pos.AvgPrice).Msg("rescue")
	case candle.SignalExit:
		r.realized += pos.Exit.PnL
		metrics.ExitReasonsTotal.WithLabelValues(symbol, string(pos.Exit.Reason)).Inc()
		metrics.RealizedPnL.WithLabelValues(symbol).Set(r.realized)
		r.log.Info().Str("sym", symbol).Str("position", pos.ID).
			Str("reason", string(pos.Exit.Reason)).
			Float64("pnl", pos.Exit.PnL).Float64("roi", pos.Exit.ROI).
			Dur("held", pos.Exit.Time.Sub(pos.EntryTime)).Msg("exit")
	}

	for _, sink := range r.sinks {
		if err := sink.Record(event); err != nil {
			r.log.Error().Err(err).Str("kind", string(event.Kind)).Msg("record event")
		}
	}
	r.execute(symbol, event)

	if event.Kind == candle.SignalExit && r.limits.Breached(r.realized) {
		r.log.Error().Float64("realized", r.realized).Float64("limit", r.limits.MaxSessionLoss).Msg("session loss limit reached")
		r.note(paper.EntryLoss, fmt.Sprintf("kill switch: realized %.4f", r.realized))
		return ErrSessionLossLimit
	}
	return nil
}

func (r *Runner) execute(symbol string, event strategy.Event) {
	if r.executor == nil {
		return
	}
	order, err := r.executor.OrderFor(symbol, event)
	if err != nil {
		r.log.Error().Err(err).Msg("build order")
		return
	}
	fill, err := r.executor.Submit(order, event.Time)
	if err != nil {
		r.log.Error().Err(err).Msg("submit order")
		return
	}
	accepted := true
	for _, sink := range r.fills {
		if err := sink.Record(fill); err != nil {
			accepted = false
			r.log.Error().Err(err).Str("side", string(fill.Side)).Str("position", fill.PositionID).Msg("fill rejected")
		}
	}
	if accepted {
		r.executor.Settle(fill)
	}
}

func (r *Runner) note(typ paper.EntryType, message string) {
	if r.journal != nil {
		r.journal.Note(r.now(), typ, message)
	}
}
