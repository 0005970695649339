package candle

// Window accumulates the ticks of the raw candle currently forming.
type Window struct {
	prices []float64
	high   float64
	low    float64
}

// NewWindow returns an empty window pre-sized for capacity ticks.
func NewWindow(capacity int) *Window {
	if capacity < 0 {
		capacity = 0
	}
	return &Window{prices: make([]float64, 0, capacity)}
}

// Observe appends a price to the forming window.
func (w *Window) Observe(price float64) {
	if len(w.prices) == 0 || price > w.high {
		w.high = price
	}
	if len(w.prices) == 0 || price < w.low {
		w.low = price
	}
	w.prices = append(w.prices, price)
}

// Snapshot returns the window's OHLC without mutating it.
// Callers must observe at least one price first.
func (w *Window) Snapshot() OHLC {
	return OHLC{
		Open:  w.prices[0],
		High:  w.high,
		Low:   w.low,
		Close: w.prices[len(w.prices)-1],
	}
}

// Open returns the first price of the window, or 0 when empty.
func (w *Window) Open() float64 {
	if len(w.prices) == 0 {
		return 0
	}
	return w.prices[0]
}

// Len reports how many ticks the window holds.
func (w *Window) Len() int { return len(w.prices) }

// IsFull reports whether the window reached the required tick count.
func (w *Window) IsFull(required int) bool { return len(w.prices) >= required }

// Reset clears accumulated prices, keeping the backing storage.
func (w *Window) Reset() {
	w.prices = w.prices[:0]
	w.high, w.low = 0, 0
}
