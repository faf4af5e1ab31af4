package engine

import "time"

// Countdown is an externally ticked level timer
type Countdown struct {
	limit     time.Duration
	remaining time.Duration
	running   bool
	paused    bool
	expired   bool

	OnTimeChanged func(remaining time.Duration)
	OnTimeUp      func()
}

// NewCountdown creates a stopped countdown
func NewCountdown() *Countdown {
	return &Countdown{}
}

// Start begins a run of limit. A non-positive limit leaves the timer stopped.
func (c *Countdown) Start(limit time.Duration) {
	c.limit = limit
	c.remaining = limit
	c.expired = false
	c.paused = false
	c.running = limit > 0
	c.changed()
}

// Tick advances the countdown by dt while running and not paused
func (c *Countdown) Tick(dt time.Duration) {
	if !c.running || c.paused || dt <= 0 {
		return
	}
	c.remaining -= dt
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		c.changed()
		if !c.expired {
			c.expired = true
			if c.OnTimeUp != nil {
				c.OnTimeUp()
			}
		}
		return
	}
	c.changed()
}

func (c *Countdown) Pause()  { c.paused = true }
func (c *Countdown) Resume() { c.paused = false }

// Stop halts the countdown without firing OnTimeUp
func (c *Countdown) Stop() {
	c.running = false
	c.paused = false
}

// Reset restores the full limit and stops
func (c *Countdown) Reset() {
	c.remaining = c.limit
	c.running = false
	c.paused = false
	c.expired = false
	c.changed()
}

// Restore sets remaining time directly, used when loading a snapshot
func (c *Countdown) Restore(limit, remaining time.Duration, running bool) {
	c.limit = limit
	c.remaining = max(0, min(remaining, limit))
	c.running = running && c.remaining > 0
	c.paused = false
	c.expired = limit > 0 && c.remaining == 0
}

func (c *Countdown) Limit() time.Duration     { return c.limit }
func (c *Countdown) Remaining() time.Duration { return c.remaining }
func (c *Countdown) Running() bool            { return c.running }
func (c *Countdown) Paused() bool             { return c.paused }
func (c *Countdown) Expired() bool            { return c.expired }

func (c *Countdown) changed() {
	if c.OnTimeChanged != nil {
		c.OnTimeChanged(c.remaining)
	}
}
