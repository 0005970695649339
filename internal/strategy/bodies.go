package strategy

// BodyHistory keeps a bounded, ordered record of finalized raw window bodies.
type BodyHistory struct {
	bodies   []float64
	capacity int
}

// NewBodyHistory returns a history that evicts its oldest body beyond capacity.
func NewBodyHistory(capacity int) *BodyHistory {
	if capacity <= 0 {
		capacity = defaultBodyCapacity
	}
	return &BodyHistory{bodies: make([]float64, 0, capacity), capacity: capacity}
}

// Record appends a finalized body size.
func (h *BodyHistory) Record(body float64) {
	if len(h.bodies) == h.capacity {
		copy(h.bodies, h.bodies[1:])
		h.bodies[len(h.bodies)-1] = body
		return
	}
	h.bodies = append(h.bodies, body)
}

// MovingAverage returns the mean of the latest window bodies (all of them if
// fewer exist). It returns 0 when nothing has been recorded; 0 means no signal.
func (h *BodyHistory) MovingAverage(window int) float64 {
	n := len(h.bodies)
	if n == 0 {
		return 0
	}
	if window <= 0 || window > n {
		window = n
	}
	var sum float64
	for _, b := range h.bodies[n-window:] {
		sum += b
	}
	return sum / float64(window)
}

// Len reports how many bodies are retained.
func (h *BodyHistory) Len() int { return len(h.bodies) }
