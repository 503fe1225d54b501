// Package speech defines the contract shared by the reply playback
// orchestrator and the strategies that make a reply audible.
package speech

import (
	"context"
	"errors"
	"time"

	"github.com/koscakluka/ema-talk/core/audio"
)

var (
	// ErrAudioPlayback covers fetch, decode and device/autoplay rejection of a
	// remote audio reference, including payloads failing the size heuristic.
	ErrAudioPlayback = errors.New("audio playback failed")
	// ErrSynthesisUnsupported means no synthesis capability is present.
	ErrSynthesisUnsupported = errors.New("speech synthesis unsupported")
	// ErrSynthesis is an engine-reported failure mid-utterance.
	ErrSynthesis = errors.New("speech synthesis failed")
	// ErrCancelled is returned once the playback token has been cancelled.
	ErrCancelled = errors.New("playback cancelled")
)

// Kind identifies a speech source. Kinds are ordered: a playback session only
// ever advances to a higher kind.
type Kind int

const (
	KindNone Kind = iota
	KindRemote
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	}
	return "unknown"
}

// Request is the reply a source is asked to make audible.
type Request struct {
	TurnID   uint64
	Text     string
	AudioRef string
}

// Outcome reports what a successful attempt did.
type Outcome struct {
	// Played is set by sources that played pre-rendered audio.
	Played bool
	// Spoken is set by sources that synthesised the text.
	Spoken   bool
	Duration time.Duration
}

// Source is one strategy capable of producing audible output for a reply.
//
// Attempt blocks until the reply finished playing, failed, or the playback
// token was cancelled. Implementations must check the token right after every
// wait and return [ErrCancelled] when it is set.
type Source interface {
	Kind() Kind
	Attempt(ctx context.Context, req Request, playback Playback) (Outcome, error)
}

// Playback is the token-gated handle to the shared output channel and
// animation state of the current playback session.
type Playback interface {
	// Token is the cancellation token of the session.
	Token() *Token
	// Output is the audio output channel; nil when none is configured.
	// Sends are rejected once the token has been cancelled.
	Output() audio.Output
	// Started marks the moment audio becomes audible. It fails with
	// [ErrCancelled] if the session was cancelled in the meantime.
	Started() error
	// Stopped marks the end of audible output. The avatar goes idle when the
	// attempt returns. Calling it without a prior successful Started, or more
	// than once, is a no-op.
	Stopped()
}
