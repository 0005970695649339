package paper

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"impulsebot-go/internal/candle"
	"impulsebot-go/internal/strategy"
)

func entryEvent(id string, price float64, at time.Time) strategy.Event {
	return strategy.Event{
		Kind:       candle.SignalEntry,
		Time:       at,
		Price:      price,
		Multiplier: 5,
		Position:   strategy.Position{ID: id, EntryTime: at, InitialEntryPrice: price, AvgPrice: price, Stage: 1},
	}
}

func exitEvent(id string, avg, price, pnl float64, reason strategy.ExitReason, at time.Time) strategy.Event {
	return strategy.Event{
		Kind:  candle.SignalExit,
		Time:  at,
		Price: price,
		Position: strategy.Position{
			ID:                id,
			EntryTime:         at.Add(-time.Minute),
			InitialEntryPrice: avg,
			AvgPrice:          avg,
			Stage:             1,
			Exit:              &strategy.Exit{Price: price, Time: at, PnL: pnl, ROI: (price - avg) / avg, Reason: reason},
		},
	}
}

func TestJournalStats(t *testing.T) {
	j := NewJournal(10)
	now := time.Unix(1_000, 0)

	if s := j.Stats(); s.Trades != 0 || s.WinRate != 0 || !s.TotalPnL.IsZero() {
		t.Fatalf("expected empty stats, got %+v", s)
	}

	events := []strategy.Event{
		entryEvent("a", 100, now),
		exitEvent("a", 100, 104, 0.1, strategy.ExitTarget, now),
		entryEvent("b", 100, now),
		exitEvent("b", 100, 90, -0.2, strategy.ExitTimeLimit, now),
		entryEvent("c", 100, now),
		exitEvent("c", 100, 100, 0, strategy.ExitReversal, now),
	}
	for _, ev := range events {
		if err := j.Record(ev); err != nil {
			t.Fatalf("Record(%s) error: %v", ev.Kind, err)
		}
	}

	s := j.Stats()
	if s.Trades != 3 || s.Wins != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if !s.TotalPnL.Equal(decimal.RequireFromString("-0.1")) {
		t.Fatalf("total pnl = %s, want -0.1", s.TotalPnL)
	}
	if s.WinRate < 33.3 || s.WinRate > 33.4 {
		t.Fatalf("win rate = %.2f, want ~33.3", s.WinRate)
	}

	trades := j.Trades()
	if len(trades) != 3 || trades[1].Reason != strategy.ExitTimeLimit {
		t.Fatalf("unexpected trades: %+v", trades)
	}
	trades[0].PnL = 99
	if j.Trades()[0].PnL == 99 {
		t.Fatalf("Trades must return a copy")
	}

	log := j.Log()
	if len(log) != 6 || log[0].Type != EntryBuy || log[1].Type != EntryProfit || log[3].Type != EntryLoss {
		t.Fatalf("unexpected log: %+v", log)
	}
	if !strings.Contains(log[1].Message, "target") {
		t.Fatalf("exit line should name the reason: %q", log[1].Message)
	}
}

func TestJournalLogIsBounded(t *testing.T) {
	j := NewJournal(3)
	for i := 0; i < 5; i++ {
		j.Note(time.Unix(int64(i), 0), EntryInfo, string(rune('a'+i)))
	}
	log := j.Log()
	if len(log) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(log))
	}
	if log[0].Message != "c" || log[2].Message != "e" {
		t.Fatalf("expected oldest entries dropped, got %+v", log)
	}
	if NewJournal(0).logSize != DefaultLogSize {
		t.Fatalf("expected default log size")
	}
}

func TestJournalRejectsMalformedEvents(t *testing.T) {
	j := NewJournal(10)
	bad := exitEvent("x", 1, 1, 0, strategy.ExitTarget, time.Unix(0, 0))
	bad.Position.Exit = nil
	if err := j.Record(bad); err == nil {
		t.Fatalf("expected error for exit without exit data")
	}
	if err := j.Record(strategy.Event{Kind: candle.SignalNone}); err == nil {
		t.Fatalf("expected error for NONE event")
	}
	if j.Stats().Trades != 0 {
		t.Fatalf("malformed events must not book trades")
	}
}
