package events

const (
	// KindTurnSubmitted identifies a user message sent to the backend.
	KindTurnSubmitted Kind = "turn_state.submitted"
	// KindTurnReplied identifies a backend reply accepted for a turn.
	KindTurnReplied Kind = "turn_state.replied"
	// KindTurnFailed identifies a turn aborted by a backend error.
	KindTurnFailed Kind = "turn_state.failed"
	// KindTurnCancelled identifies cancellation of the playback of a turn.
	KindTurnCancelled Kind = "turn_state.cancelled"
)

// TurnSubmitted marks a user message sent to the backend.
type TurnSubmitted struct {
	Base
	TurnID   uint64
	UserText string
}

// NewTurnSubmitted creates a turn submitted event.
func NewTurnSubmitted(turnID uint64, userText string) TurnSubmitted {
	return TurnSubmitted{Base: NewBase(KindTurnSubmitted), TurnID: turnID, UserText: userText}
}

// TurnReplied carries the accepted reply of a turn.
type TurnReplied struct {
	Base
	TurnID   uint64
	BotText  string
	AudioRef string
}

// NewTurnReplied creates a turn replied event.
func NewTurnReplied(turnID uint64, botText, audioRef string) TurnReplied {
	return TurnReplied{Base: NewBase(KindTurnReplied), TurnID: turnID, BotText: botText, AudioRef: audioRef}
}

// TurnFailed marks a turn aborted before playback.
type TurnFailed struct {
	Base
	TurnID uint64
	Err    error
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(turnID uint64, err error) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), TurnID: turnID, Err: err}
}

// TurnCancelled marks cancellation of the current turn's playback.
type TurnCancelled struct {
	Base
	TurnID uint64
}

// NewTurnCancelled creates a turn cancelled event.
func NewTurnCancelled(turnID uint64) TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled), TurnID: turnID}
}
