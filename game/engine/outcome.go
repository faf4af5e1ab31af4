package engine

// Outcome tracks whether a level is being played, paused, won or lost.
// Won and lost are terminal and exclusive; only Restart leaves them.
type Outcome struct {
	status Status

	OnWin     func()
	OnLose    func()
	OnRestart func()
}

// NewOutcome starts in StatusPlaying
func NewOutcome() *Outcome {
	return &Outcome{status: StatusPlaying}
}

func (o *Outcome) Status() Status { return o.status }

// TriggerWin moves to won. It returns false when already terminal.
func (o *Outcome) TriggerWin() bool {
	if o.status.IsTerminal() {
		return false
	}
	o.status = StatusWon
	if o.OnWin != nil {
		o.OnWin()
	}
	return true
}

// TriggerLose moves to lost. It returns false when already terminal.
func (o *Outcome) TriggerLose() bool {
	if o.status.IsTerminal() {
		return false
	}
	o.status = StatusLost
	if o.OnLose != nil {
		o.OnLose()
	}
	return true
}

// Pause only applies while playing
func (o *Outcome) Pause() bool {
	if o.status != StatusPlaying {
		return false
	}
	o.status = StatusPaused
	return true
}

// Resume only applies while paused
func (o *Outcome) Resume() bool {
	if o.status != StatusPaused {
		return false
	}
	o.status = StatusPlaying
	return true
}

// Restart returns to playing from any state
func (o *Outcome) Restart() {
	o.status = StatusPlaying
	if o.OnRestart != nil {
		o.OnRestart()
	}
}

// restore sets the status without firing callbacks
func (o *Outcome) restore(s Status) {
	switch s {
	case StatusPlaying, StatusPaused, StatusWon, StatusLost:
		o.status = s
	default:
		o.status = StatusPlaying
	}
}
