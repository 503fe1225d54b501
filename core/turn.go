package orchestration

import (
	"github.com/google/uuid"
	"github.com/koscakluka/ema-talk/core/speech"
)

// Turn is one user message and the bot reply to it.
type Turn struct {
	// ID increases monotonically within a conversation.
	ID       uint64
	UserText string
	BotText  string
	// AudioRef is an optional URL or data: reference to pre-rendered audio
	// of BotText.
	AudioRef string
}

type Status int

const (
	StatusIdle Status = iota
	StatusAttempting
	StatusPlaying
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAttempting:
		return "attempting"
	case StatusPlaying:
		return "playing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions happen from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// PlaybackState is a point-in-time snapshot of a playback session.
type PlaybackState struct {
	SessionID    uuid.UUID
	TurnID       uint64
	ActiveSource speech.Kind
	Status       Status
	// Talking mirrors the last SetTalking call made for the session.
	Talking bool
	// Err is the failure that ended the session with StatusFailed.
	Err error
}
