package candle

import "testing"

func TestWindowSnapshot(t *testing.T) {
	w := NewWindow(5)
	for _, px := range []float64{100, 103, 97, 101} {
		w.Observe(px)
	}
	got := w.Snapshot()
	want := OHLC{Open: 100, High: 103, Low: 97, Close: 101}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if again := w.Snapshot(); again != got {
		t.Fatalf("snapshot mutated window: %+v vs %+v", again, got)
	}
	if w.Len() != 4 {
		t.Fatalf("expected 4 ticks, got %d", w.Len())
	}
}

func TestWindowIsFullAndReset(t *testing.T) {
	w := NewWindow(3)
	w.Observe(1)
	w.Observe(2)
	if w.IsFull(3) {
		t.Fatalf("window with 2 ticks should not be full at 3")
	}
	w.Observe(3)
	if !w.IsFull(3) {
		t.Fatalf("expected full window")
	}

	w.Reset()
	if w.Len() != 0 || w.Open() != 0 {
		t.Fatalf("expected empty window after reset")
	}
	w.Observe(50)
	if snap := w.Snapshot(); snap != (OHLC{Open: 50, High: 50, Low: 50, Close: 50}) {
		t.Fatalf("stale extremes after reset: %+v", snap)
	}
}

func TestOHLCBody(t *testing.T) {
	if b := (OHLC{Open: 100, Close: 95}).Body(); b != 5 {
		t.Fatalf("expected body 5, got %.2f", b)
	}
	if b := (OHLC{Open: 95, Close: 100}).Body(); b != 5 {
		t.Fatalf("expected body 5, got %.2f", b)
	}
}
