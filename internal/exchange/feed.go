// Package exchange hosts the live tick sources and the seed history provider.
package exchange

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"impulsebot-go/internal/metrics"
	"impulsebot-go/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic ticks (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderCatapult subscribes to the Catapult GraphQL price stream over websockets.
	ProviderCatapult = "catapult"
	// ProviderBinance streams public trades for one Binance spot symbol.
	ProviderBinance = "binance"
	// ProviderDexScreener polls the DexScreener REST API for one pool.
	ProviderDexScreener = "dexscreener"
)

const (
	defaultStubInterval     = 500 * time.Millisecond
	defaultCatapultWSURL    = "wss://catapult.trade/graphql"
	defaultCatapultAPIURL   = "https://catapult.trade/graphql"
	catapultSubprotocol     = "graphql-transport-ws"
	defaultBinanceWSURL     = "wss://stream.binance.com:9443/ws"
	defaultDexScreenerURL   = "https://api.dexscreener.com"
	defaultPollInterval     = 2 * time.Second
	defaultStubStartingMark = 100.0
)

// Feed streams ticks for a single instrument from the configured provider.
type Feed struct {
	provider     string
	symbol       string
	tokenID      string
	wsURL        string
	log          zerolog.Logger
	stubInterval time.Duration
	minBackoff   time.Duration
	maxBackoff   time.Duration
	wait         func(context.Context, time.Duration) error
	emitted      uint64 // ticks delivered; only touched by the Run goroutine

	binanceURL   string
	dexURL       string
	pair         string // chain/address for DexScreener
	pollInterval time.Duration
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithStubInterval overrides the cadence of synthetic ticks.
func WithStubInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.stubInterval = d
		}
	}
}

// WithCatapultConfig points the websocket feed at a token's price subscription.
func WithCatapultConfig(wsURL, tokenID string) Option {
	return func(f *Feed) {
		if wsURL != "" {
			f.wsURL = wsURL
		}
		if tokenID != "" {
			f.tokenID = strings.TrimSpace(tokenID)
		}
	}
}

// WithBinanceURL overrides the Binance websocket base URL.
func WithBinanceURL(url string) Option {
	return func(f *Feed) {
		if url != "" {
			f.binanceURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithDexScreenerPair selects the pool to poll as "chain/address".
func WithDexScreenerPair(baseURL, pair string) Option {
	return func(f *Feed) {
		if baseURL != "" {
			f.dexURL = strings.TrimSuffix(baseURL, "/")
		}
		f.pair = strings.TrimSpace(pair)
	}
}

// WithPollInterval overrides the cadence of polling providers.
func WithPollInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithMaxBackoff caps the reconnect delay of streaming providers.
func WithMaxBackoff(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.maxBackoff = d
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		symbol:       strings.TrimSpace(symbol),
		log:          log,
		wsURL:        defaultCatapultWSURL,
		stubInterval: defaultStubInterval,
		minBackoff:   time.Second,
		maxBackoff:   30 * time.Second,
		wait:         sleepCtx,
		binanceURL:   defaultBinanceWSURL,
		dexURL:       defaultDexScreenerURL,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.symbol == "" {
		f.symbol = f.tokenID
	}
	if f.symbol == "" && f.pair != "" {
		f.symbol = f.pair
	}
	return f
}

// Symbol returns the label attached to emitted ticks.
func (f *Feed) Symbol() string { return f.symbol }

// Run pushes ticks onto the provided channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- signal.Tick) error {
	switch f.provider {
	case ProviderCatapult:
		return f.runCatapult(ctx, out)
	case ProviderBinance:
		return f.runBinance(ctx, out)
	case ProviderDexScreener:
		return f.runDexScreener(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

// reconnect runs consume until ctx ends, backing off between failed sessions.
// A session that emitted ticks resets the delay to minBackoff.
func (f *Feed) reconnect(ctx context.Context, provider string, consume func(context.Context) error) error {
	backoff := f.minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		before := f.emitted
		err := consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.emitted > before {
			backoff = f.minBackoff
		}
		f.log.Warn().Err(err).Str("provider", provider).Str("sym", f.symbol).Dur("backoff", backoff).Msg("feed disconnected, retrying")
		if err := f.wait(ctx, backoff); err != nil {
			return err
		}
		backoff = time.Duration(math.Min(float64(f.maxBackoff), float64(backoff)*1.8))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- signal.Tick, tick signal.Tick) error {
	select {
	case out <- tick:
		f.emitted++
		metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runStub oscillates gently around the mark and dumps every 90 ticks so the
// impulse rules have something to react to offline.
func (f *Feed) runStub(ctx context.Context, out chan<- signal.Tick) error {
	ticker := time.NewTicker(f.stubInterval)
	defer ticker.Stop()

	px := defaultStubStartingMark
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			px *= 1 + 0.002*math.Sin(float64(n)/4)
			if n%90 == 0 {
				px *= 0.94
			}
			if err := f.emit(ctx, out, signal.Tick{Symbol: f.symbol, Price: px, Ts: ts}); err != nil {
				return err
			}
		}
	}
}
