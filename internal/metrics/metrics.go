package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks ingested"},
		[]string{"symbol"},
	)
	CandlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candles_total", Help: "Raw windows finalized into smoothed candles"},
		[]string{"symbol"},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "decisions_total", Help: "Entry, rescue and exit decisions"},
		[]string{"symbol", "kind"},
	)
	ExitReasonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "exit_reasons_total", Help: "Closed positions split by exit reason"},
		[]string{"symbol", "reason"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	RealizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "realized_pnl", Help: "Session realized PnL in stake units"},
		[]string{"symbol"},
	)
	ImpulseMultiplier = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "impulse_multiplier", Help: "Forming window body over the rolling average body"},
		[]string{"symbol"},
	)
	CooldownSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "cooldown_seconds", Help: "Seconds until a new entry is allowed"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal, CandlesTotal, DecisionsTotal, ExitReasonsTotal,
		OrdersTotal, RealizedPnL, ImpulseMultiplier, CooldownSeconds,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
