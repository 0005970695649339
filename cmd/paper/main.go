package main

import (
	"context"
	"errors"
	"flag"
	"math"
	"os"
	ossignal "os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"impulsebot-go/internal/bot"
	"impulsebot-go/internal/config"
	"impulsebot-go/internal/exchange"
	"impulsebot-go/internal/execution"
	"impulsebot-go/internal/metrics"
	"impulsebot-go/internal/paper"
	"impulsebot-go/internal/risk"
	sig "impulsebot-go/internal/signal"
	"impulsebot-go/internal/strategy"
	"impulsebot-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info", false)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel, cfg.App.PrettyLogs)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	srv := metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tf := strategy.ParseTimeframe(cfg.Strategy.Mode)
	params := cfg.StrategyParams()
	engine := strategy.Build(tf.Name, params)

	feed := exchange.NewFeed(cfg.Feed.Provider, cfg.Feed.Symbol, log,
		exchange.WithStubInterval(time.Duration(cfg.Feed.StubIntervalMs)*time.Millisecond),
		exchange.WithCatapultConfig(cfg.Feed.WSURL, cfg.Feed.TokenID),
		exchange.WithBinanceURL(cfg.Feed.BinanceURL),
		exchange.WithDexScreenerPair(cfg.Feed.DexScreenerURL, cfg.Feed.Pair),
		exchange.WithPollInterval(time.Duration(cfg.Feed.PollIntervalMs)*time.Millisecond),
	)
	symbol := feed.Symbol()
	if symbol == "" {
		symbol = "STUB"
	}

	journal := paper.NewJournal(cfg.Paper.JournalSize)
	account := paper.NewAccount(cfg.Paper.StartingCash)
	opts := []bot.Option{
		bot.WithSymbol(symbol),
		bot.WithJournal(journal),
		bot.WithLimits(risk.Limits{
			MaxStakePerTrade: cfg.Risk.MaxStakePerTrade,
			MaxSessionLoss:   cfg.Risk.MaxSessionLoss,
		}),
		bot.WithExecutor(execution.NewExecutor(log, engine.Params().StakeSize), account),
	}

	if cfg.Paper.EventsPath != "" {
		rec, err := paper.NewJSONLRecorder(cfg.Paper.EventsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open events recorder")
		}
		defer rec.Close()
		opts = append(opts, bot.WithSinks(rec))
	}
	var store *paper.SQLiteRecorder
	if cfg.Paper.SQLitePath != "" {
		store, err = paper.NewSQLiteRecorder(cfg.Paper.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("open sqlite recorder")
		}
		defer store.Close()
		opts = append(opts, bot.WithSinks(store))
	}

	var lastPrice atomic.Uint64
	opts = append(opts, bot.WithUpdateHook(func(u strategy.Update) {
		lastPrice.Store(math.Float64bits(u.Price))
	}))
	mark := func() float64 { return math.Float64frombits(lastPrice.Load()) }

	runner := bot.NewRunner(engine, log, opts...)
	if cfg.Feed.WarmUp && cfg.Feed.Provider == exchange.ProviderCatapult {
		history := exchange.NewHistoryClient(cfg.Feed.APIURL, cfg.Feed.TokenID, tf.Key)
		runner.Warmup(ctx, history)
	}

	ticks := make(chan sig.Tick, 1024)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	if cfg.Paper.ReportCron != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.Paper.ReportCron, func() {
			report(log, symbol, journal, account, mark(), store)
		}); err != nil {
			log.Fatal().Err(err).Str("cron", cfg.Paper.ReportCron).Msg("register report")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Info().Str("mode", tf.Label).Str("sym", symbol).Str("provider", cfg.Feed.Provider).Msg("paper engine started")
	if err := runner.Run(ctx, ticks); err != nil {
		log.Error().Err(err).Msg("runner stopped")
	}
	cancel()

	if pos, ok := engine.Position(); ok {
		log.Warn().Str("position", pos.ID).Int("stage", pos.Stage).Float64("avg_price", pos.AvgPrice).Msg("stopped with open position")
	}
	report(log, symbol, journal, account, mark(), store)
	shutdown, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = srv.Shutdown(shutdown)
	log.Info().Msg("shutting down")
}

func report(log zerolog.Logger, symbol string, journal *paper.Journal, account *paper.Account, mark float64, store *paper.SQLiteRecorder) {
	stats := journal.Stats()
	snap := account.Snapshot(symbol, mark)

	evt := log.Info().
		Int("trades", stats.Trades).
		Int("wins", stats.Wins).
		Float64("win_rate", stats.WinRate).
		Str("total_pnl", stats.TotalPnL.StringFixed(4)).
		Float64("cash", snap.Cash).
		Float64("equity", snap.Equity).
		Float64("mark", mark)
	if store != nil {
		if all, err := store.Summary(); err == nil {
			evt = evt.Int("all_time_trades", all.Trades).Float64("all_time_pnl", all.TotalPnL)
		}
	}
	evt.Msg("session report")
}
