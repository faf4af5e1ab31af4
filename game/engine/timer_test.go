package engine

import (
	"testing"
	"time"
)

func TestCountdownExpiresOnce(t *testing.T) {
	c := NewCountdown()
	fired := 0
	c.OnTimeUp = func() { fired++ }

	c.Start(2 * time.Second)
	c.Tick(1500 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("expected no expiry yet, fired %d", fired)
	}
	c.Tick(time.Second)
	c.Tick(time.Second)

	if fired != 1 {
		t.Errorf("expected OnTimeUp once, got %d", fired)
	}
	if c.Remaining() != 0 {
		t.Errorf("expected remaining clamped to 0, got %v", c.Remaining())
	}
	if c.Running() {
		t.Error("expected countdown to stop after expiry")
	}
}

func TestCountdownPauseResume(t *testing.T) {
	c := NewCountdown()
	c.Start(10 * time.Second)
	c.Pause()
	c.Tick(5 * time.Second)
	if c.Remaining() != 10*time.Second {
		t.Errorf("paused countdown advanced to %v", c.Remaining())
	}
	c.Resume()
	c.Tick(4 * time.Second)
	if c.Remaining() != 6*time.Second {
		t.Errorf("expected 6s remaining, got %v", c.Remaining())
	}
}

func TestCountdownStopAndReset(t *testing.T) {
	c := NewCountdown()
	var last time.Duration
	c.OnTimeChanged = func(d time.Duration) { last = d }

	c.Start(3 * time.Second)
	c.Tick(time.Second)
	if last != 2*time.Second {
		t.Errorf("OnTimeChanged got %v, want 2s", last)
	}

	c.Stop()
	c.Tick(time.Second)
	if c.Remaining() != 2*time.Second {
		t.Errorf("stopped countdown advanced to %v", c.Remaining())
	}

	c.Reset()
	if c.Remaining() != 3*time.Second || c.Running() {
		t.Errorf("reset: remaining %v running %v", c.Remaining(), c.Running())
	}
}

func TestCountdownUntimed(t *testing.T) {
	c := NewCountdown()
	fired := false
	c.OnTimeUp = func() { fired = true }
	c.Start(0)
	c.Tick(time.Hour)
	if fired || c.Running() {
		t.Error("zero limit must never expire")
	}
}

func TestOutcomeWinLoseExclusive(t *testing.T) {
	o := NewOutcome()
	wins, losses := 0, 0
	o.OnWin = func() { wins++ }
	o.OnLose = func() { losses++ }

	if !o.TriggerWin() {
		t.Fatal("expected first win to apply")
	}
	if o.TriggerWin() || o.TriggerLose() {
		t.Error("terminal outcome accepted another trigger")
	}
	if wins != 1 || losses != 0 {
		t.Errorf("wins=%d losses=%d", wins, losses)
	}
	if o.Status() != StatusWon {
		t.Errorf("status = %s", o.Status())
	}
}

func TestOutcomePauseAndRestart(t *testing.T) {
	o := NewOutcome()
	restarts := 0
	o.OnRestart = func() { restarts++ }

	if o.Resume() {
		t.Error("resume from playing should be refused")
	}
	if !o.Pause() || o.Status() != StatusPaused {
		t.Fatal("pause failed")
	}
	if o.Pause() {
		t.Error("double pause should be refused")
	}
	if !o.Resume() {
		t.Fatal("resume failed")
	}

	o.TriggerLose()
	if o.Pause() {
		t.Error("pause after loss should be refused")
	}
	o.Restart()
	if o.Status() != StatusPlaying || restarts != 1 {
		t.Errorf("restart: status %s restarts %d", o.Status(), restarts)
	}
}
