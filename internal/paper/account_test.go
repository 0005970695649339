package paper

import (
	"math"
	"testing"

	"impulsebot-go/internal/execution"
)

func fill(side execution.Side, qty, price float64) execution.Fill {
	return execution.Fill{Symbol: "MEME", Side: side, Qty: qty, Price: price, PositionID: "p1"}
}

func TestAccountBuyRescueSell(t *testing.T) {
	account := NewAccount(100)

	if err := account.Apply(fill(execution.Buy, 0.1, 100)); err != nil {
		t.Fatalf("unexpected buy error: %v", err)
	}
	if err := account.Apply(fill(execution.Buy, 0.125, 80)); err != nil {
		t.Fatalf("unexpected rescue error: %v", err)
	}

	snap := account.Snapshot("MEME", 90)
	if math.Abs(snap.Cash-80) > 1e-9 {
		t.Fatalf("expected 80 cash after two 10-unit lots, got %.4f", snap.Cash)
	}
	if math.Abs(snap.Qty-0.225) > 1e-9 {
		t.Fatalf("expected qty 0.225, got %.6f", snap.Qty)
	}
	if math.Abs(snap.Equity-(80+0.225*90)) > 1e-9 {
		t.Fatalf("equity did not balance: %+v", snap)
	}

	if err := account.Record(fill(execution.Sell, 0.225, 90)); err != nil {
		t.Fatalf("unexpected sell error: %v", err)
	}
	if got := account.RealizedPnL(); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("expected realized 0.25, got %.6f", got)
	}
	snap = account.Snapshot("MEME", 90)
	if snap.Qty != 0 || math.Abs(snap.Equity-100.25) > 1e-9 {
		t.Fatalf("expected flat account with 100.25 equity, got %+v", snap)
	}
	if account.StartingCash() != 100 {
		t.Fatalf("starting cash changed")
	}
}

func TestAccountInsufficientCash(t *testing.T) {
	account := NewAccount(10)
	if err := account.Apply(fill(execution.Buy, 1, 200)); err == nil {
		t.Fatalf("expected cash error")
	}
}

func TestAccountInsufficientPosition(t *testing.T) {
	account := NewAccount(1000)
	if err := account.Apply(fill(execution.Sell, 0.01, 1000)); err == nil {
		t.Fatalf("expected insufficient position error")
	}
	if err := account.Apply(fill(execution.Buy, 0, 1)); err == nil {
		t.Fatalf("expected quantity error")
	}
}

func TestAccountRejectsSellOfUnheldUnits(t *testing.T) {
	account := NewAccount(15)
	if err := account.Apply(fill(execution.Buy, 0.1, 100)); err != nil {
		t.Fatalf("unexpected buy error: %v", err)
	}
	if err := account.Apply(fill(execution.Buy, 10.0/91, 91)); err == nil {
		t.Fatalf("expected rescue buy beyond cash to fail")
	}
	if err := account.Apply(fill(execution.Sell, 0.1+10.0/91, 96.5)); err == nil {
		t.Fatalf("expected sell above the holding to fail")
	}
	if err := account.Apply(fill(execution.Sell, 0.1, 96.5)); err != nil {
		t.Fatalf("unexpected sell error: %v", err)
	}
	snap := account.Snapshot("MEME", 96.5)
	if math.Abs(snap.RealizedPnL+0.35) > 1e-9 || math.Abs(snap.Cash-14.65) > 1e-9 {
		t.Fatalf("expected realized -0.35 and cash 14.65, got %+v", snap)
	}
}
