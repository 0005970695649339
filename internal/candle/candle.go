// Package candle turns raw price ticks into OHLC windows and Heikin-Ashi candles.
package candle

import "time"

// OHLC is a raw window or a smoothed candle body.
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Body returns the absolute open/close distance.
func (o OHLC) Body() float64 {
	if o.Close > o.Open {
		return o.Close - o.Open
	}
	return o.Open - o.Close
}

// Signal annotates a candle with the decision raised while it was forming.
type Signal string

const (
	SignalNone   Signal = "NONE"
	SignalEntry  Signal = "ENTRY"
	SignalExit   Signal = "EXIT"
	SignalRescue Signal = "RESCUE"
)

// Smoothed is a Heikin-Ashi candle stamped with the logical close time of its window.
type Smoothed struct {
	OHLC
	Timestamp time.Time `json:"timestamp"`
	Signal    Signal    `json:"signal"`
}

// Green reports an up candle (close above open).
func (s Smoothed) Green() bool { return s.Close > s.Open }

// Red reports a down candle (close below open).
func (s Smoothed) Red() bool { return s.Close < s.Open }
