// Package risk holds the session guard-rails applied around the engine.
package risk

// Limits caps the per-lot stake and the realized loss a session may take.
// Zero disables a limit.
type Limits struct {
	MaxStakePerTrade float64
	MaxSessionLoss   float64
}

// AllowStake reports whether a lot of the given stake may be placed.
func (l Limits) AllowStake(stake float64) bool {
	if l.MaxStakePerTrade <= 0 {
		return true
	}
	return stake <= l.MaxStakePerTrade
}

// Breached reports whether realized session PnL has hit the loss limit.
func (l Limits) Breached(realizedPnL float64) bool {
	if l.MaxSessionLoss <= 0 {
		return false
	}
	return realizedPnL <= -l.MaxSessionLoss
}
