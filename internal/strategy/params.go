// Package strategy turns raw ticks into impulse entries, rescue averaging and
// Heikin-Ashi confirmed exits for a single instrument.
package strategy

import (
	"fmt"
	"time"
)

// Params holds every tunable knob of the engine. It is fixed at construction.
type Params struct {
	WindowTicks         int           // ticks per raw window
	AveragingWindow     int           // finalized bodies averaged for impulse detection
	BodyCapacity        int           // bodies retained; never smaller than AveragingWindow
	ImpulseThreshold    float64       // body multiple of the average that counts as an impulse
	RescueDropThreshold float64       // price/avg ratio that triggers the single rescue buy
	TakeProfitStage1    float64       // price/avg exit ratio before rescue
	TakeProfitStage2    float64       // price/avg exit ratio after rescue
	MaxHold             time.Duration // hard exit after this long in a position
	Cooldown            time.Duration // idle period after every close; negative disables it
	ConfirmationTicks   int           // consecutive red ticks (after a green) that confirm reversal
	StakeSize           float64       // quote amount per lot
	BarInterval         time.Duration // spacing of synthetic timestamps for seeded history
}

const defaultBodyCapacity = 200

// DefaultParams returns the tuned trend-mode configuration.
func DefaultParams() Params {
	return Params{
		WindowTicks:         Trend.Ticks,
		AveragingWindow:     50,
		BodyCapacity:        defaultBodyCapacity,
		ImpulseThreshold:    4.0,
		RescueDropThreshold: 0.92,
		TakeProfitStage1:    1.04,
		TakeProfitStage2:    1.01,
		MaxHold:             10 * time.Minute,
		Cooldown:            30 * time.Second,
		ConfirmationTicks:   3,
		StakeSize:           1,
		BarInterval:         time.Duration(Trend.Ticks) * time.Second,
	}
}

// withDefaults fills zero-valued fields from DefaultParams.
func (p Params) withDefaults() Params {
	def := DefaultParams()
	if p.WindowTicks <= 0 {
		p.WindowTicks = def.WindowTicks
	}
	if p.AveragingWindow <= 0 {
		p.AveragingWindow = def.AveragingWindow
	}
	if p.BodyCapacity <= 0 {
		p.BodyCapacity = def.BodyCapacity
	}
	if p.BodyCapacity < p.AveragingWindow {
		p.BodyCapacity = p.AveragingWindow
	}
	if p.ImpulseThreshold <= 0 {
		p.ImpulseThreshold = def.ImpulseThreshold
	}
	if p.RescueDropThreshold <= 0 {
		p.RescueDropThreshold = def.RescueDropThreshold
	}
	if p.TakeProfitStage1 <= 0 {
		p.TakeProfitStage1 = def.TakeProfitStage1
	}
	if p.TakeProfitStage2 <= 0 {
		p.TakeProfitStage2 = def.TakeProfitStage2
	}
	if p.MaxHold <= 0 {
		p.MaxHold = def.MaxHold
	}
	switch {
	case p.Cooldown == 0:
		p.Cooldown = def.Cooldown
	case p.Cooldown < 0:
		p.Cooldown = 0
	}
	if p.ConfirmationTicks <= 0 {
		p.ConfirmationTicks = def.ConfirmationTicks
	}
	if p.StakeSize <= 0 {
		p.StakeSize = def.StakeSize
	}
	if p.BarInterval <= 0 {
		p.BarInterval = time.Duration(p.WindowTicks) * time.Second
	}
	return p
}

// Validate rejects parameter sets that cannot produce sane decisions.
func (p Params) Validate() error {
	switch {
	case p.WindowTicks <= 0:
		return fmt.Errorf("window ticks must be positive, got %d", p.WindowTicks)
	case p.AveragingWindow <= 0:
		return fmt.Errorf("averaging window must be positive, got %d", p.AveragingWindow)
	case p.ImpulseThreshold <= 0:
		return fmt.Errorf("impulse threshold must be positive, got %.4f", p.ImpulseThreshold)
	case p.RescueDropThreshold <= 0 || p.RescueDropThreshold >= 1:
		return fmt.Errorf("rescue drop threshold must be in (0,1), got %.4f", p.RescueDropThreshold)
	case p.TakeProfitStage1 <= 1 || p.TakeProfitStage2 <= 1:
		return fmt.Errorf("take profit ratios must exceed 1, got %.4f/%.4f", p.TakeProfitStage1, p.TakeProfitStage2)
	case p.ConfirmationTicks <= 0:
		return fmt.Errorf("confirmation ticks must be positive, got %d", p.ConfirmationTicks)
	case p.StakeSize <= 0:
		return fmt.Errorf("stake size must be positive, got %.4f", p.StakeSize)
	}
	return nil
}
