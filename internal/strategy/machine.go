package strategy

import (
	"fmt"
	"time"

	"impulsebot-go/internal/candle"
)

// machine owns the open position, its latch and the cooldown clock.
type machine struct {
	params    Params
	newID     func() string
	pos       *Position
	latch     latch
	lastClose time.Time
}

// step runs entry, latch, rescue and exit rules once for a tick. An entry or a
// rescue consumes the tick; exits are checked from the next tick on.
func (m *machine) step(now time.Time, price float64, imp Impulse, forming candle.Smoothed) *Event {
	if m.pos == nil {
		if CooldownRemaining(now, m.lastClose, m.params.Cooldown) > 0 {
			return nil
		}
		if imp.Triggered && imp.Down {
			return m.open(now, price, imp.Multiplier)
		}
		return nil
	}

	m.latch.observe(forming)

	if m.pos.Stage == 1 && price/m.pos.AvgPrice <= m.params.RescueDropThreshold {
		return m.rescue(now, price)
	}
	if reason, ok := m.exitReason(now, price); ok {
		return m.close(now, price, reason)
	}
	return nil
}

func (m *machine) exitReason(now time.Time, price float64) (ExitReason, bool) {
	ratio := price / m.pos.AvgPrice
	switch {
	case m.latch.redTicks >= m.params.ConfirmationTicks:
		return ExitReversal, true
	case m.pos.Stage == 1 && ratio >= m.params.TakeProfitStage1:
		return ExitTarget, true
	case m.pos.Stage == 2 && ratio >= m.params.TakeProfitStage2:
		return ExitRescueTarget, true
	case now.Sub(m.pos.EntryTime) > m.params.MaxHold:
		return ExitTimeLimit, true
	}
	return "", false
}

func (m *machine) open(now time.Time, price, multiplier float64) *Event {
	if m.pos != nil {
		panic(fmt.Sprintf("strategy: entry while position %s is open", m.pos.ID))
	}
	m.pos = &Position{
		ID:                m.newID(),
		EntryTime:         now,
		InitialEntryPrice: price,
		AvgPrice:          price,
		Stage:             1,
	}
	m.latch = latch{}
	return &Event{Kind: candle.SignalEntry, Time: now, Price: price, Multiplier: multiplier, Position: *m.pos}
}

func (m *machine) rescue(now time.Time, price float64) *Event {
	if m.pos == nil {
		panic("strategy: rescue while flat")
	}
	if m.pos.Stage != 1 {
		panic(fmt.Sprintf("strategy: rescue at stage %d for position %s", m.pos.Stage, m.pos.ID))
	}
	m.pos.AvgPrice = (m.pos.AvgPrice + price) / 2
	m.pos.Stage = 2
	return &Event{Kind: candle.SignalRescue, Time: now, Price: price, Position: *m.pos}
}

func (m *machine) close(now time.Time, price float64, reason ExitReason) *Event {
	if m.pos == nil {
		panic("strategy: exit while flat")
	}
	roi := (price - m.pos.AvgPrice) / m.pos.AvgPrice
	sealed := *m.pos
	sealed.Exit = &Exit{
		Price:  price,
		Time:   now,
		ROI:    roi,
		PnL:    roi * m.params.StakeSize * float64(sealed.Stage),
		Reason: reason,
	}
	m.pos = nil
	m.latch = latch{}
	m.lastClose = now
	return &Event{Kind: candle.SignalExit, Time: now, Price: price, Position: sealed}
}
