package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"impulsebot-go/internal/signal"
)

type dexscreenerPairsResponse struct {
	Pairs []dexscreenerPair `json:"pairs"`
	Pair  *dexscreenerPair  `json:"pair"`
}

type dexscreenerPair struct {
	ChainID     string `json:"chainId"`
	PairAddress string `json:"pairAddress"`
	PriceUsd    string `json:"priceUsd"`
	PriceNative string `json:"priceNative"`
}

func (r *dexscreenerPairsResponse) firstPair() (*dexscreenerPair, bool) {
	if len(r.Pairs) > 0 {
		return &r.Pairs[0], true
	}
	if r.Pair != nil {
		return r.Pair, true
	}
	return nil, false
}

// runDexScreener polls one pool. Polled prices arrive far slower than a
// websocket stream, so each poll is one tick.
func (f *Feed) runDexScreener(ctx context.Context, out chan<- signal.Tick) error {
	chain, address, err := splitDexPair(f.pair)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", f.dexURL, chain, address)
	client := &http.Client{Timeout: 10 * time.Second}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		px, err := fetchDexScreenerPrice(ctx, client, url)
		switch {
		case err == nil:
			if err := f.emit(ctx, out, signal.Tick{Symbol: f.symbol, Price: px, Ts: time.Now().UTC()}); err != nil {
				return err
			}
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			return ctx.Err()
		default:
			f.log.Warn().Err(err).Str("pair", f.pair).Msg("dexscreener poll failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func fetchDexScreenerPrice(ctx context.Context, client *http.Client, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "impulsebot-go/1.0 (paper)")
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload dexscreenerPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	pair, ok := payload.firstPair()
	if !ok {
		return 0, fmt.Errorf("no pair data returned")
	}
	return parseDexScreenerPrice(pair)
}

func parseDexScreenerPrice(pair *dexscreenerPair) (float64, error) {
	if pair == nil {
		return 0, fmt.Errorf("pair missing")
	}
	for _, raw := range []string{pair.PriceUsd, pair.PriceNative} {
		if raw == "" {
			continue
		}
		if px, err := strconv.ParseFloat(raw, 64); err == nil && px > 0 {
			return px, nil
		}
	}
	return 0, fmt.Errorf("pair missing price")
}

// splitDexPair parses "chain/address".
func splitDexPair(pair string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(pair), "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("dexscreener pair %q must be chain/address", pair)
	}
	chain := strings.ToLower(strings.TrimSpace(parts[0]))
	address := strings.TrimSpace(parts[1])
	if chain == "" || address == "" {
		return "", "", fmt.Errorf("dexscreener pair %q missing chain or address", pair)
	}
	return chain, address, nil
}
