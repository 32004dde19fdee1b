package game

import "time"

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// TurnTimer is the advisory wall-clock timer of the time-limit rule. It holds
// no goroutine: callers poll Remaining/Expired. Paused time is accumulated and
// excluded from the elapsed time.
type TurnTimer struct {
	Limit time.Duration

	now         Clock
	start       time.Time
	running     bool
	paused      bool
	pauseStart  time.Time
	pausedTotal time.Duration
}

func NewTurnTimer(limit time.Duration, now Clock) *TurnTimer {
	if now == nil {
		now = time.Now
	}
	return &TurnTimer{Limit: limit, now: now}
}

// Start (re)starts the timer from zero.
func (t *TurnTimer) Start() {
	t.start = t.now()
	t.running = true
	t.paused = false
	t.pausedTotal = 0
}

// Stop discards the timer state.
func (t *TurnTimer) Stop() {
	t.running = false
	t.paused = false
	t.pausedTotal = 0
}

func (t *TurnTimer) Pause() {
	if !t.running || t.paused {
		return
	}
	t.paused = true
	t.pauseStart = t.now()
}

func (t *TurnTimer) Resume() {
	if !t.running || !t.paused {
		return
	}
	t.pausedTotal += t.now().Sub(t.pauseStart)
	t.paused = false
}

func (t *TurnTimer) Running() bool { return t.running }
func (t *TurnTimer) Paused() bool  { return t.paused }

func (t *TurnTimer) elapsed() time.Duration {
	end := t.now()
	if t.paused {
		end = t.pauseStart
	}
	return end.Sub(t.start) - t.pausedTotal
}

// Remaining returns the whole seconds left, never negative.
func (t *TurnTimer) Remaining() int {
	if !t.running {
		return int(t.Limit / time.Second)
	}
	left := int(t.Limit/time.Second) - int(t.elapsed()/time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a running, unpaused timer has reached zero.
func (t *TurnTimer) Expired() bool {
	return t.running && !t.paused && t.Remaining() <= 0
}
