package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/speech"
)

func TestAttemptRejectsTinyPayloadWithoutStarting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 50))
	}))
	defer server.Close()

	playback := newFakePlayback(&fakeOutput{autoEnd: true})
	_, err := New().Attempt(context.Background(), speech.Request{TurnID: 1, AudioRef: server.URL + "/tiny.mp3"}, playback)

	if !errors.Is(err, speech.ErrAudioPlayback) {
		t.Fatalf("expected audio playback error, got %v", err)
	}
	if got := playback.startedCalls(); got != 0 {
		t.Fatalf("expected rejected payload never to start playback, got %d starts", got)
	}
}

func TestAttemptPlaysValidWAV(t *testing.T) {
	payload := testWAV(4000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	output := &fakeOutput{autoEnd: true}
	playback := newFakePlayback(output)
	outcome, err := New().Attempt(context.Background(), speech.Request{TurnID: 1, AudioRef: server.URL + "/ok.wav"}, playback)
	if err != nil {
		t.Fatalf("expected playback to succeed, got %v", err)
	}

	if !outcome.Played {
		t.Fatalf("expected outcome to report played")
	}
	if outcome.Duration != 250*time.Millisecond {
		t.Fatalf("expected 250ms duration, got %v", outcome.Duration)
	}
	if playback.startedCalls() != 1 || playback.stoppedCalls() != 1 {
		t.Fatalf("expected one start and one stop, got %d/%d", playback.startedCalls(), playback.stoppedCalls())
	}
	if output.sentBytes() != 8000 {
		t.Fatalf("expected 8000 bytes sent to output, got %d", output.sentBytes())
	}
}

func TestAttemptPlaysDataReference(t *testing.T) {
	ref := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(testWAV(4000))

	playback := newFakePlayback(&fakeOutput{autoEnd: true})
	outcome, err := New().Attempt(context.Background(), speech.Request{TurnID: 2, AudioRef: ref}, playback)
	if err != nil {
		t.Fatalf("expected data reference to play, got %v", err)
	}
	if !outcome.Played {
		t.Fatalf("expected outcome to report played")
	}
}

func TestAttemptTreatsServerErrorAsPlaybackFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "provider unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	playback := newFakePlayback(&fakeOutput{autoEnd: true})
	_, err := New().Attempt(context.Background(), speech.Request{AudioRef: server.URL}, playback)
	if !errors.Is(err, speech.ErrAudioPlayback) {
		t.Fatalf("expected audio playback error, got %v", err)
	}
}

func TestAttemptTreatsUndecodablePayloadAsPlaybackFailure(t *testing.T) {
	ref := "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(make([]byte, 2048))

	playback := newFakePlayback(&fakeOutput{autoEnd: true})
	_, err := New().Attempt(context.Background(), speech.Request{AudioRef: ref}, playback)
	if !errors.Is(err, speech.ErrAudioPlayback) {
		t.Fatalf("expected audio playback error, got %v", err)
	}
	if playback.startedCalls() != 0 {
		t.Fatalf("expected undecodable audio never to start playback")
	}
}

func TestAttemptTreatsRejectedSendAsPlaybackFailure(t *testing.T) {
	ref := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(testWAV(4000))

	playback := newFakePlayback(&fakeOutput{sendErr: errors.New("device not started")})
	_, err := New().Attempt(context.Background(), speech.Request{AudioRef: ref}, playback)
	if !errors.Is(err, speech.ErrAudioPlayback) {
		t.Fatalf("expected audio playback error, got %v", err)
	}
	if playback.startedCalls() != 0 {
		t.Fatalf("expected rejected send never to start playback")
	}
}

func TestAttemptStopsOnCancellationMidPlayback(t *testing.T) {
	ref := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(testWAV(4000))

	output := &fakeOutput{}
	playback := newFakePlayback(output)
	playback.onStarted = func() { go playback.token.Cancel() }

	_, err := New().Attempt(context.Background(), speech.Request{AudioRef: ref}, playback)
	if !errors.Is(err, speech.ErrCancelled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if output.clearCalls() == 0 {
		t.Fatalf("expected output to be cleared on cancellation")
	}
	if playback.stoppedCalls() != 1 {
		t.Fatalf("expected playback to be stopped once, got %d", playback.stoppedCalls())
	}
}

func TestAttemptStopsOnCancellationDuringFetch(t *testing.T) {
	requested := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(requested)
		<-r.Context().Done()
	}))
	defer server.Close()

	output := &fakeOutput{autoEnd: true}
	playback := newFakePlayback(output)
	go func() {
		<-requested
		playback.token.Cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := New().Attempt(context.Background(), speech.Request{TurnID: 1, AudioRef: server.URL + "/slow.mp3"}, playback)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, speech.ErrCancelled) {
			t.Fatalf("expected cancellation error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("attempt did not return after cancellation during fetch")
	}
	if got := playback.startedCalls(); got != 0 {
		t.Fatalf("expected no start after cancelled fetch, got %d", got)
	}
	if got := output.sentBytes(); got != 0 {
		t.Fatalf("expected no audio sent, got %d bytes", got)
	}
}

func TestDecodeDataRefPercentEncoded(t *testing.T) {
	payload, err := decodeDataRef("data:text/plain,hello%20world")
	if err != nil {
		t.Fatalf("expected percent-encoded data reference to decode, got %v", err)
	}
	if string(payload) != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", payload)
	}
}

func testWAV(samples int) []byte {
	return audio.EncodeWAV(make([]byte, samples*2), audio.DefaultSampleRate)
}

type fakeOutput struct {
	mu      sync.Mutex
	autoEnd bool
	sendErr error
	sent    int
	cleared int
	pending []func(string)
}

func (o *fakeOutput) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (o *fakeOutput) SendAudio(pcm []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sendErr != nil {
		return o.sendErr
	}
	o.sent += len(pcm)
	return nil
}

func (o *fakeOutput) ClearBuffer() {
	o.mu.Lock()
	o.cleared++
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()
	for _, callback := range pending {
		callback("")
	}
}

func (o *fakeOutput) Mark(mark string, callback func(string)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.autoEnd {
		go callback(mark)
		return nil
	}
	o.pending = append(o.pending, callback)
	return nil
}

func (o *fakeOutput) sentBytes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent
}

func (o *fakeOutput) clearCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cleared
}

type fakePlayback struct {
	mu        sync.Mutex
	token     *speech.Token
	output    audio.Output
	started   int
	stopped   int
	onStarted func()
}

func newFakePlayback(output audio.Output) *fakePlayback {
	return &fakePlayback{token: speech.NewToken(context.Background()), output: output}
}

func (p *fakePlayback) Token() *speech.Token { return p.token }
func (p *fakePlayback) Output() audio.Output { return p.output }

func (p *fakePlayback) Started() error {
	if err := p.token.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.started++
	onStarted := p.onStarted
	p.mu.Unlock()
	if onStarted != nil {
		onStarted()
	}
	return nil
}

func (p *fakePlayback) Stopped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
}

func (p *fakePlayback) startedCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *fakePlayback) stoppedCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
