package execution

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"impulsebot-go/internal/candle"
	"impulsebot-go/internal/strategy"
)

func event(kind candle.Signal, price float64, id string) strategy.Event {
	return strategy.Event{Kind: kind, Price: price, Position: strategy.Position{ID: id}}
}

func TestSubmitLogsOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	exec := NewExecutor(logger, 1)
	fill, err := exec.Submit(Order{Symbol: "MEME", Side: Buy, Qty: 1, Price: 2, PositionID: "p1"}, time.Unix(10, 0))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if fill.Notional != 2 || fill.ID == "" {
		t.Fatalf("unexpected fill: %+v", fill)
	}
	if !strings.Contains(buf.String(), "MEME") {
		t.Fatalf("log does not contain symbol: %s", buf.String())
	}
}

func TestLifecycleSellsEveryHeldUnit(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), 10)
	now := time.Unix(0, 0)

	for _, ev := range []strategy.Event{
		event(candle.SignalEntry, 100, "p1"),
		event(candle.SignalRescue, 80, "p1"),
	} {
		order, err := exec.OrderFor("MEME", ev)
		if err != nil {
			t.Fatalf("OrderFor(%s) error: %v", ev.Kind, err)
		}
		if order.Side != Buy {
			t.Fatalf("expected buy for %s, got %s", ev.Kind, order.Side)
		}
		fill, err := exec.Submit(order, now)
		if err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		exec.Settle(fill)
	}

	want := 10.0/100 + 10.0/80
	if got := exec.Held("p1"); math.Abs(got-want) > 1e-12 {
		t.Fatalf("held = %.6f, want %.6f", got, want)
	}

	exit := event(candle.SignalExit, 95, "p1")
	exit.Position.Exit = &strategy.Exit{Price: 95, Reason: strategy.ExitRescueTarget}
	order, err := exec.OrderFor("MEME", exit)
	if err != nil {
		t.Fatalf("OrderFor(exit) error: %v", err)
	}
	if order.Side != Sell || math.Abs(order.Qty-want) > 1e-12 || order.Reason != "rescue_target" {
		t.Fatalf("unexpected exit order: %+v", order)
	}
	fill, err := exec.Submit(order, now)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	exec.Settle(fill)
	if exec.Held("p1") != 0 {
		t.Fatalf("expected position flattened")
	}
}

func TestOrderForRejectsUnknownPosition(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), 1)
	if _, err := exec.OrderFor("MEME", event(candle.SignalExit, 1, "ghost")); err == nil {
		t.Fatalf("expected error selling a position with no units")
	}
	if _, err := exec.OrderFor("MEME", event(candle.SignalNone, 1, "p")); err == nil {
		t.Fatalf("expected error for NONE event")
	}
	if _, err := exec.OrderFor("MEME", event(candle.SignalEntry, 0, "p")); err == nil {
		t.Fatalf("expected error for zero price")
	}
}

func TestUnsettledFillIsNotHeld(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), 10)
	now := time.Unix(0, 0)

	entry, _ := exec.OrderFor("MEME", event(candle.SignalEntry, 100, "p1"))
	fill, err := exec.Submit(entry, now)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	exec.Settle(fill)

	rescue, _ := exec.OrderFor("MEME", event(candle.SignalRescue, 91, "p1"))
	if _, err := exec.Submit(rescue, now); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if got := exec.Held("p1"); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("rejected rescue must not be held, got %.6f", got)
	}

	exit := event(candle.SignalExit, 96.5, "p1")
	order, err := exec.OrderFor("MEME", exit)
	if err != nil {
		t.Fatalf("OrderFor(exit) error: %v", err)
	}
	if math.Abs(order.Qty-0.1) > 1e-12 {
		t.Fatalf("exit should sell only settled units, got %.6f", order.Qty)
	}
	if _, err := exec.Submit(Order{Symbol: "MEME", Side: "HOLD", Qty: 1, Price: 1}, now); err == nil {
		t.Fatalf("expected unknown side to be rejected")
	}
}
