package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"impulsebot-go/internal/signal"
)

const priceSubscription = `subscription TurboTokenPrice($tokenId: String!) { turboTokenPrice(tokenId: $tokenId) { price } }`

// gqlMessage is a graphql-transport-ws protocol frame.
type gqlMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type gqlSubscribe struct {
	Query         string            `json:"query"`
	OperationName string            `json:"operationName"`
	Variables     map[string]string `json:"variables"`
}

type priceNext struct {
	Data struct {
		TurboTokenPrice *struct {
			Price flexFloat `json:"price"`
		} `json:"turboTokenPrice"`
	} `json:"data"`
}

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (v *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		px, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*v = flexFloat(px)
		return nil
	}
	var px float64
	if err := json.Unmarshal(b, &px); err != nil {
		return err
	}
	*v = flexFloat(px)
	return nil
}

var errStreamCompleted = errors.New("catapult subscription completed")

func (f *Feed) runCatapult(ctx context.Context, out chan<- signal.Tick) error {
	if f.tokenID == "" {
		return fmt.Errorf("catapult feed requires a token id")
	}
	return f.reconnect(ctx, ProviderCatapult, func(ctx context.Context) error {
		return f.consumeCatapultStream(ctx, out)
	})
}

func (f *Feed) consumeCatapultStream(ctx context.Context, out chan<- signal.Tick) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{catapultSubprotocol},
	}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage when the context ends
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	conn.SetReadLimit(1 << 20)
	if err := conn.WriteJSON(gqlMessage{Type: "connection_init", Payload: json.RawMessage(`{}`)}); err != nil {
		return fmt.Errorf("connection_init: %w", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		var msg gqlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch msg.Type {
		case "connection_ack":
			if err := f.subscribe(conn); err != nil {
				return err
			}
			f.log.Info().Str("provider", ProviderCatapult).Str("token", f.tokenID).Msg("connected market data feed")
		case "ping":
			if err := conn.WriteJSON(gqlMessage{Type: "pong"}); err != nil {
				return fmt.Errorf("pong: %w", err)
			}
		case "next":
			px, ok := parseCatapultPrice(msg.Payload)
			if !ok {
				f.log.Warn().RawJSON("payload", msg.Payload).Msg("invalid price from catapult")
				continue
			}
			tick := signal.Tick{Symbol: f.symbol, Price: px, Ts: time.Now().UTC()}
			if err := f.emit(ctx, out, tick); err != nil {
				return err
			}
		case "error":
			return fmt.Errorf("subscription error: %s", string(msg.Payload))
		case "complete":
			return errStreamCompleted
		}
	}
}

func (f *Feed) subscribe(conn *websocket.Conn) error {
	payload, err := json.Marshal(gqlSubscribe{
		Query:         priceSubscription,
		OperationName: "TurboTokenPrice",
		Variables:     map[string]string{"tokenId": f.tokenID},
	})
	if err != nil {
		return fmt.Errorf("encode subscribe: %w", err)
	}
	if err := conn.WriteJSON(gqlMessage{ID: uuid.NewString(), Type: "subscribe", Payload: payload}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func parseCatapultPrice(payload json.RawMessage) (float64, bool) {
	var next priceNext
	if err := json.Unmarshal(payload, &next); err != nil {
		return 0, false
	}
	if next.Data.TurboTokenPrice == nil {
		return 0, false
	}
	px := float64(next.Data.TurboTokenPrice.Price)
	if px <= 0 || math.IsNaN(px) || math.IsInf(px, 0) {
		return 0, false
	}
	return px, true
}
