package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"impulsebot-go/internal/candle"
)

const chartDataQuery = `query TurboTokenChartData($tokenId: String!) { turboTokenChartData(tokenId: $tokenId) { %s { open high low close } } }`

// HistoryClient fetches historical windows used to warm up the engine.
type HistoryClient struct {
	apiURL       string
	tokenID      string
	timeframeKey string
	client       *http.Client
}

type gqlRequest struct {
	OperationName string            `json:"operationName"`
	Variables     map[string]string `json:"variables"`
	Query         string            `json:"query"`
}

type chartDataResponse struct {
	Data struct {
		TurboTokenChartData map[string][]candle.OHLC `json:"turboTokenChartData"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// NewHistoryClient builds a provider for one token and chart timeframe key (e.g. "s15").
func NewHistoryClient(apiURL, tokenID, timeframeKey string) *HistoryClient {
	if apiURL == "" {
		apiURL = defaultCatapultAPIURL
	}
	return &HistoryClient{
		apiURL:       strings.TrimSuffix(apiURL, "/"),
		tokenID:      strings.TrimSpace(tokenID),
		timeframeKey: timeframeKey,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// LoadHistory returns the token's windows oldest first. An empty slice means
// the venue has no history yet.
func (h *HistoryClient) LoadHistory(ctx context.Context) ([]candle.OHLC, error) {
	body, err := json.Marshal(gqlRequest{
		OperationName: "TurboTokenChartData",
		Variables:     map[string]string{"tokenId": h.tokenID},
		Query:         fmt.Sprintf(chartDataQuery, h.timeframeKey),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "impulsebot-go/1.0 (history)")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload chartDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", payload.Errors[0].Message)
	}

	// venue returns newest first
	bars := payload.Data.TurboTokenChartData[h.timeframeKey]
	out := make([]candle.OHLC, len(bars))
	for i, bar := range bars {
		out[len(bars)-1-i] = bar
	}
	return out, nil
}
