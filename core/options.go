package orchestration

import (
	"context"

	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/speech"
)

type OrchestratorOption func(*Orchestrator)

// WithRemoteSource replaces the source used for turns with an audio
// reference. A nil source disables remote playback.
func WithRemoteSource(source speech.Source) OrchestratorOption {
	return func(o *Orchestrator) {
		o.remote = source
	}
}

// WithLocalSource sets the on-device synthesis source. Without one, turns
// that cannot be played remotely end Failed.
func WithLocalSource(source speech.Source) OrchestratorOption {
	return func(o *Orchestrator) {
		o.local = source
	}
}

func WithAvatarDriver(driver avatar.Driver) OrchestratorOption {
	return func(o *Orchestrator) {
		if driver != nil {
			o.driver = driver
		}
	}
}

// WithAudioOutput sets the shared output device. Nil and typed-nil clients
// leave the orchestrator without output.
func WithAudioOutput(output audio.Output) OrchestratorOption {
	return func(o *Orchestrator) {
		if isNilAudioOutput(output) {
			o.output = nil
			return
		}
		o.output = output
	}
}

// WithPlaybackEventCallback receives every playback event.
func WithPlaybackEventCallback(callback func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.emit = o.emit.chain(eventEmitter(callback))
	}
}

// WithStateChangeCallback receives a state snapshot after every status
// transition of the current session.
func WithStateChangeCallback(callback func(PlaybackState)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.emit = o.emit.chain(newStateChangeEmitter(o, callback))
	}
}

// WithTalkingCallback is called with true when output becomes audible and
// false when it stops.
func WithTalkingCallback(callback func(talking bool)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.emit = o.emit.chain(newTalkingEmitter(callback))
	}
}

// WithBaseContext sets the parent context of every session. Cancelling it
// closes the orchestrator.
func WithBaseContext(ctx context.Context) OrchestratorOption {
	return func(o *Orchestrator) {
		if ctx != nil {
			o.baseContext = ctx
		}
	}
}
