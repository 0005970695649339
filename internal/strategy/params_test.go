package strategy

import (
	"testing"
	"time"
)

func TestWithDefaultsCooldown(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero takes default", 0, 30 * time.Second},
		{"negative disables", -time.Second, 0},
		{"explicit kept", 5 * time.Second, 5 * time.Second},
	}
	for _, tc := range cases {
		p := Params{Cooldown: tc.in}.withDefaults()
		if p.Cooldown != tc.want {
			t.Fatalf("%s: cooldown = %s, want %s", tc.name, p.Cooldown, tc.want)
		}
	}
}

func TestNewEngineZeroParamsUseDefaults(t *testing.T) {
	e := NewEngine(Params{})
	if got := e.Params(); got != DefaultParams() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}
