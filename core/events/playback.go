package events

import (
	"github.com/google/uuid"
	"github.com/koscakluka/ema-talk/core/speech"
)

const (
	// KindPlaybackSessionStarted identifies creation of a playback session for a turn.
	KindPlaybackSessionStarted Kind = "playback.session_started"
	// KindPlaybackStatusChanged identifies a playback session status transition.
	KindPlaybackStatusChanged Kind = "playback.status_changed"
	// KindPlaybackSourceFailed identifies a speech source attempt that failed.
	KindPlaybackSourceFailed Kind = "playback.source_failed"
	// KindPlaybackStarted identifies the moment output became audible.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies the end of audible output.
	KindPlaybackEnded Kind = "playback.ended"
)

// PlaybackSessionStarted marks creation of the playback session for a turn.
type PlaybackSessionStarted struct {
	Base
	SessionID uuid.UUID
	TurnID    uint64
}

// NewPlaybackSessionStarted creates a playback session started event.
func NewPlaybackSessionStarted(sessionID uuid.UUID, turnID uint64) PlaybackSessionStarted {
	return PlaybackSessionStarted{Base: NewBase(KindPlaybackSessionStarted), SessionID: sessionID, TurnID: turnID}
}

// PlaybackStatusChanged carries the new status of a playback session.
type PlaybackStatusChanged struct {
	Base
	SessionID uuid.UUID
	TurnID    uint64
	Source    speech.Kind
	Status    string
	// Err is set for terminal failures.
	Err error
}

// NewPlaybackStatusChanged creates a playback status changed event.
func NewPlaybackStatusChanged(sessionID uuid.UUID, turnID uint64, source speech.Kind, status string, err error) PlaybackStatusChanged {
	return PlaybackStatusChanged{
		Base:      NewBase(KindPlaybackStatusChanged),
		SessionID: sessionID,
		TurnID:    turnID,
		Source:    source,
		Status:    status,
		Err:       err,
	}
}

// PlaybackSourceFailed reports a failed source attempt. The session may
// still fall forward to the next source.
type PlaybackSourceFailed struct {
	Base
	SessionID uuid.UUID
	Source    speech.Kind
	Err       error
}

// NewPlaybackSourceFailed creates a playback source failed event.
func NewPlaybackSourceFailed(sessionID uuid.UUID, source speech.Kind, err error) PlaybackSourceFailed {
	return PlaybackSourceFailed{Base: NewBase(KindPlaybackSourceFailed), SessionID: sessionID, Source: source, Err: err}
}

// PlaybackStarted marks the start of audible output.
type PlaybackStarted struct {
	Base
	SessionID uuid.UUID
	Source    speech.Kind
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(sessionID uuid.UUID, source speech.Kind) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), SessionID: sessionID, Source: source}
}

// PlaybackEnded marks the end of audible output, whatever the reason.
type PlaybackEnded struct {
	Base
	SessionID uuid.UUID
	Source    speech.Kind
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(sessionID uuid.UUID, source speech.Kind) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), SessionID: sessionID, Source: source}
}
