package orchestration

import (
	"reflect"
	"sync"

	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/speech"
)

// gatedOutput is the per-session view of the shared audio output.
//
// Sends and marks are rejected once the session token is cancelled. close
// waits for any send in flight before clearing the device buffer, so nothing
// queued by a cancelled session stays audible.
type gatedOutput struct {
	base  audio.Output
	token *speech.Token

	mu     sync.Mutex
	closed bool
}

func newGatedOutput(base audio.Output, token *speech.Token) *gatedOutput {
	return &gatedOutput{base: base, token: token}
}

func (g *gatedOutput) EncodingInfo() audio.EncodingInfo {
	if info := g.base.EncodingInfo(); !info.IsZero() {
		return info
	}
	return audio.GetDefaultEncodingInfo()
}

func (g *gatedOutput) SendAudio(chunk []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.token.Cancelled() {
		return speech.ErrCancelled
	}
	return g.base.SendAudio(chunk)
}

func (g *gatedOutput) Mark(mark string, callback func(string)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.token.Cancelled() {
		return speech.ErrCancelled
	}
	return g.base.Mark(mark, callback)
}

// ClearBuffer is a no-op once the session is cancelled: the device may
// already hold the next session's audio, and close has cleared it.
func (g *gatedOutput) ClearBuffer() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.token.Cancelled() {
		return
	}
	g.base.ClearBuffer()
}

func (g *gatedOutput) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.base.ClearBuffer()
}

// isNilAudioOutput detects nil and typed-nil interface values so options can
// treat them as unconfigured.
func isNilAudioOutput(client audio.Output) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
