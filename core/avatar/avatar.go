// Package avatar drives the talking/idle animation of the chat avatar.
package avatar

import (
	"errors"
)

// ErrAvatarLoad reports that the avatar renderer failed to initialize.
var ErrAvatarLoad = errors.New("avatar failed to load")

// Driver is the capability the playback orchestrator animates. Calls never
// fail or panic outward; rendering problems are swallowed and logged.
type Driver interface {
	SetTalking(talking bool)
	ReportStatus(status string)
}

// State is the coarse animation state of the avatar.
type State string

const (
	StateIdle    State = "idle"
	StateTalking State = "talking"
)

// Renderer is the avatar rendering surface.
type Renderer interface {
	SetAnimationState(state State) error
	// SetMouthOpen sets mouth openness in [0, 1].
	SetMouthOpen(open float64) error
}

// Fallback is the driver used when no renderer is present. It has no
// animation and routes status messages to a textual indicator.
type Fallback struct {
	indicator func(status string)
}

// NewFallback returns a Fallback. A nil indicator discards status messages.
func NewFallback(indicator func(status string)) *Fallback {
	if indicator == nil {
		indicator = func(string) {}
	}
	return &Fallback{indicator: indicator}
}

func (f *Fallback) SetTalking(bool) {}

func (f *Fallback) ReportStatus(status string) {
	f.indicator(status)
}
