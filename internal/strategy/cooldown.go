package strategy

import "time"

// CooldownRemaining reports how long new entries stay blocked after the close
// at lastClose. A zero lastClose means no position has closed yet.
func CooldownRemaining(now, lastClose time.Time, cooldown time.Duration) time.Duration {
	if lastClose.IsZero() || cooldown <= 0 {
		return 0
	}
	remaining := cooldown - now.Sub(lastClose)
	if remaining < 0 {
		return 0
	}
	return remaining
}
