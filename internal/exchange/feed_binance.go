package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"impulsebot-go/internal/signal"
)

type binanceTrade struct {
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

func (f *Feed) runBinance(ctx context.Context, out chan<- signal.Tick) error {
	if f.symbol == "" {
		return fmt.Errorf("binance feed requires a symbol")
	}
	url := fmt.Sprintf("%s/%s@trade", f.binanceURL, strings.ToLower(f.symbol))
	return f.reconnect(ctx, ProviderBinance, func(ctx context.Context) error {
		return f.consumeBinanceStream(ctx, url, out)
	})
}

func (f *Feed) consumeBinanceStream(ctx context.Context, url string, out chan<- signal.Tick) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	f.log.Info().Str("provider", ProviderBinance).Str("sym", f.symbol).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		var trade binanceTrade
		if err := json.Unmarshal(message, &trade); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}
		px, err := strconv.ParseFloat(trade.Price, 64)
		if err != nil || px <= 0 {
			f.log.Warn().Str("price", trade.Price).Msg("invalid price from binance")
			continue
		}
		tick := signal.Tick{Symbol: f.symbol, Price: px, Ts: time.UnixMilli(trade.TradeTime).UTC()}
		if err := f.emit(ctx, out, tick); err != nil {
			return err
		}
	}
}
