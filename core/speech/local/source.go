package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-talk/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Source speaks reply text with an on-device engine.
type Source struct {
	engine     Engine
	preference VoicePreference

	voicesMu sync.Mutex
	voices   []Voice

	currentMu sync.Mutex
	current   Utterance
}

type Option func(*Source)

func WithVoicePreference(preference VoicePreference) Option {
	return func(s *Source) {
		s.preference = preference
	}
}

// New returns a source backed by engine. A nil engine makes every attempt
// fail with speech.ErrSynthesisUnsupported.
func New(engine Engine, opts ...Option) *Source {
	s := &Source{engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Kind() speech.Kind { return speech.KindLocal }

func (s *Source) Attempt(ctx context.Context, req speech.Request, playback speech.Playback) (speech.Outcome, error) {
	ctx, span := tracer.Start(ctx, "local speech attempt", trace.WithAttributes(
		attribute.Int64("turn.id", int64(req.TurnID)),
		attribute.String("voice.locale", s.preference.LocaleTag),
	))
	defer span.End()

	outcome, err := s.attempt(ctx, req, playback)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool("speech.spoken", outcome.Spoken))
	return outcome, err
}

func (s *Source) attempt(ctx context.Context, req speech.Request, playback speech.Playback) (speech.Outcome, error) {
	if s.engine == nil || !s.engine.Available() {
		return speech.Outcome{}, speech.ErrSynthesisUnsupported
	}
	token := playback.Token()
	if token.Cancelled() {
		return speech.Outcome{}, speech.ErrCancelled
	}
	if strings.TrimSpace(req.Text) == "" {
		return speech.Outcome{}, fmt.Errorf("%w: nothing to speak", speech.ErrSynthesis)
	}

	voice := SelectVoice(s.availableVoices(ctx), s.preference)
	if token.Cancelled() {
		return speech.Outcome{}, speech.ErrCancelled
	}

	s.cancelCurrent()
	utterance, err := s.engine.Speak(token.Context(), req.Text, voice, s.preference.LocaleTag)
	if err != nil {
		return speech.Outcome{}, fmt.Errorf("%w: %w", speech.ErrSynthesis, err)
	}
	s.setCurrent(utterance)
	defer s.clearCurrent(utterance)
	release := token.OnCancel(utterance.Cancel)
	defer release()

	select {
	case <-utterance.Started():
	case <-utterance.Done():
	case <-token.Context().Done():
	}
	if token.Cancelled() {
		utterance.Cancel()
		return speech.Outcome{}, speech.ErrCancelled
	}
	if isClosed(utterance.Done()) && !isClosed(utterance.Started()) {
		if err := utterance.Err(); err != nil {
			return speech.Outcome{}, fmt.Errorf("%w: %w", speech.ErrSynthesis, err)
		}
	}

	start := time.Now()
	if err := playback.Started(); err != nil {
		utterance.Cancel()
		return speech.Outcome{}, err
	}
	defer playback.Stopped()

	select {
	case <-utterance.Done():
	case <-token.Context().Done():
	}
	if token.Cancelled() {
		utterance.Cancel()
		return speech.Outcome{}, speech.ErrCancelled
	}
	if err := utterance.Err(); err != nil {
		return speech.Outcome{}, fmt.Errorf("%w: %w", speech.ErrSynthesis, err)
	}

	logger.InfoContext(ctx, "local speech finished",
		"turn_id", req.TurnID,
		"engine", s.engine.Name(),
		"voice", voiceName(voice),
	)
	return speech.Outcome{Spoken: true, Duration: time.Since(start)}, nil
}

// Voices lists the engine's voices, cached after the first success.
func (s *Source) Voices(ctx context.Context) ([]Voice, error) {
	if s.engine == nil || !s.engine.Available() {
		return nil, speech.ErrSynthesisUnsupported
	}

	s.voicesMu.Lock()
	defer s.voicesMu.Unlock()
	if s.voices != nil {
		return s.voices, nil
	}
	voices, err := s.engine.Voices(ctx)
	if err != nil {
		return nil, err
	}
	s.voices = voices
	return voices, nil
}

func (s *Source) availableVoices(ctx context.Context) []Voice {
	voices, err := s.Voices(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to list voices, using engine default", "error", err)
	}
	return voices
}

func (s *Source) cancelCurrent() {
	s.currentMu.Lock()
	current := s.current
	s.current = nil
	s.currentMu.Unlock()

	if current != nil {
		current.Cancel()
	}
}

func (s *Source) setCurrent(u Utterance) {
	s.currentMu.Lock()
	defer s.currentMu.Unlock()
	s.current = u
}

func (s *Source) clearCurrent(u Utterance) {
	s.currentMu.Lock()
	defer s.currentMu.Unlock()
	if s.current == u {
		s.current = nil
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func voiceName(voice *Voice) string {
	if voice == nil {
		return "default"
	}
	return voice.Name
}
