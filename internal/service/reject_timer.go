package service

import (
	"github.com/opsfin/be-cc-approvals/internal/apperr"
)

// CountdownState is one of the three reject-countdown states.
type CountdownState int

const (
	// CountdownIdle means no rejection is pending.
	CountdownIdle CountdownState = iota
	// CountdownArmed means the countdown is running; cancelling now
	// means the rejection never fires.
	CountdownArmed
	// CountdownFired means the reject call was issued exactly once.
	CountdownFired
)

// DefaultRejectTicks is the countdown length in ticks (one per second).
const DefaultRejectTicks = 10

// RejectCountdown is the user-cancellable delay before a rejection
// fires. It is driven entirely by external clock ticks, so behaviour
// is deterministic under test. While a countdown is armed no second
// countdown may start for the same target; the only moves are cancel
// or let it expire. A confirm on the same target disarms the countdown
// before the confirm is issued, so an armed rejection can never fire
// after a confirm was accepted.
type RejectCountdown struct {
	state     CountdownState
	remaining int
	ticks     int
	fire      func()
}

// NewRejectCountdown creates an idle countdown of the given length
// that invokes fire when it expires. A non-positive length falls back
// to DefaultRejectTicks.
func NewRejectCountdown(ticks int, fire func()) *RejectCountdown {
	if ticks <= 0 {
		ticks = DefaultRejectTicks
	}
	return &RejectCountdown{state: CountdownIdle, ticks: ticks, fire: fire}
}

// Arm starts the countdown. Arming while already armed is refused.
func (c *RejectCountdown) Arm() error {
	if c.state == CountdownArmed {
		return apperr.New(apperr.CodeValidation, "a reject countdown is already running")
	}
	c.state = CountdownArmed
	c.remaining = c.ticks
	return nil
}

// Cancel disarms an armed countdown. It reports whether a countdown
// was actually cancelled; a cancelled rejection never fires.
func (c *RejectCountdown) Cancel() bool {
	if c.state != CountdownArmed {
		return false
	}
	c.state = CountdownIdle
	c.remaining = 0
	return true
}

// Tick advances the external clock by one second. When the countdown
// reaches zero the fire callback is invoked exactly once and the
// timer disarms. Ticks in any other state are ignored.
func (c *RejectCountdown) Tick() (fired bool) {
	if c.state != CountdownArmed {
		return false
	}
	c.remaining--
	if c.remaining > 0 {
		return false
	}
	c.state = CountdownFired
	if c.fire != nil {
		c.fire()
	}
	return true
}

// State returns the current countdown state.
func (c *RejectCountdown) State() CountdownState { return c.state }

// Remaining returns the ticks left while armed.
func (c *RejectCountdown) Remaining() int { return c.remaining }
