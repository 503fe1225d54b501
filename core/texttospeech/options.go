// Package texttospeech resolves reply text into a playable audio reference
// for turns the backend answered without audio.
package texttospeech

import (
	"context"

	"github.com/koscakluka/ema-talk/core/audio"
)

// AudioResolver renders text into an audio reference (a URL or a data:
// reference) that the remote speech source can play.
type AudioResolver interface {
	ResolveAudio(ctx context.Context, text string) (audioRef string, err error)
}

type TextToSpeechOptions struct {
	EncodingInfo audio.EncodingInfo
	Voice        string
}

type TextToSpeechOption func(*TextToSpeechOptions)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

func WithVoice(voice string) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if voice != "" {
			o.Voice = voice
		}
	}
}
