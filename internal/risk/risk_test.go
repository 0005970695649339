package risk

import "testing"

func TestAllowStake(t *testing.T) {
	limits := Limits{MaxStakePerTrade: 50}
	if !limits.AllowStake(49.9) {
		t.Fatalf("expected stake under limit to pass")
	}
	if limits.AllowStake(50.1) {
		t.Fatalf("expected stake above limit to fail")
	}
	if !(Limits{}).AllowStake(1e9) {
		t.Fatalf("zero limit should disable the cap")
	}
}

func TestBreached(t *testing.T) {
	limits := Limits{MaxSessionLoss: 5}
	if limits.Breached(-4.99) {
		t.Fatalf("loss under limit should not breach")
	}
	if !limits.Breached(-5) {
		t.Fatalf("loss at limit should breach")
	}
	if (Limits{}).Breached(-1e9) {
		t.Fatalf("zero limit should never breach")
	}
}
