package candle

import "math"

// HeikinAshi maps a raw window and the previous smoothed candle to a new smoothed candle.
//
//	close = (o + h + l + c) / 4
//	open  = (prev.open + prev.close) / 2, or (o + c) / 2 without a previous candle
//	high  = max(h, open, close)
//	low   = min(l, open, close)
//
// It holds no state, so it is safe for both forming and finalized windows.
// The returned candle carries no timestamp or signal; the caller stamps it.
func HeikinAshi(raw OHLC, prev *Smoothed) Smoothed {
	haClose := (raw.Open + raw.High + raw.Low + raw.Close) / 4
	haOpen := (raw.Open + raw.Close) / 2
	if prev != nil {
		haOpen = (prev.Open + prev.Close) / 2
	}
	return Smoothed{
		OHLC: OHLC{
			Open:  haOpen,
			High:  math.Max(raw.High, math.Max(haOpen, haClose)),
			Low:   math.Min(raw.Low, math.Min(haOpen, haClose)),
			Close: haClose,
		},
		Signal: SignalNone,
	}
}
