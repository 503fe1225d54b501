// Package remote plays pre-rendered reply audio referenced by the backend.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/speech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMinimumPayloadBytes is the smallest payload trusted as audio.
// Providers answer some failures with short error bodies and a success status;
// anything below this size is one of those.
const DefaultMinimumPayloadBytes = 1024

const endOfClipMark = "remote-audio-ended"

// Source is the RemoteAudioSource: it fetches the referenced audio, validates
// it and plays it on the session's output channel.
type Source struct {
	client              *http.Client
	minimumPayloadBytes int
	maximumPayloadBytes int64
}

var _ speech.Source = (*Source)(nil)

type Option func(*Source)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.client = client
		}
	}
}

func WithMinimumPayloadBytes(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.minimumPayloadBytes = n
		}
	}
}

func WithMaximumPayloadBytes(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maximumPayloadBytes = n
		}
	}
}

func New(opts ...Option) *Source {
	s := &Source{
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "fetch reply audio " + r.URL.Host
			}),
		)},
		minimumPayloadBytes: DefaultMinimumPayloadBytes,
		maximumPayloadBytes: 32 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Kind() speech.Kind { return speech.KindRemote }

func (s *Source) Attempt(ctx context.Context, req speech.Request, playback speech.Playback) (speech.Outcome, error) {
	ctx, span := tracer.Start(ctx, "attempt remote audio", trace.WithAttributes(
		attribute.Int64("turn.id", int64(req.TurnID)),
		attribute.String("audio.ref_scheme", refScheme(req.AudioRef)),
	))
	defer span.End()

	outcome, err := s.attempt(ctx, req, playback)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return outcome, err
	}

	span.SetAttributes(attribute.Int64("audio.duration_ms", outcome.Duration.Milliseconds()))
	return outcome, nil
}

func (s *Source) attempt(ctx context.Context, req speech.Request, playback speech.Playback) (speech.Outcome, error) {
	token := playback.Token()
	if err := token.Err(); err != nil {
		return speech.Outcome{}, err
	}
	if req.AudioRef == "" {
		return speech.Outcome{}, fmt.Errorf("%w: no audio reference", speech.ErrAudioPlayback)
	}

	payload, fetchErr := s.fetch(token.Context(), req.AudioRef)
	if err := token.Err(); err != nil {
		return speech.Outcome{}, err
	}
	if fetchErr != nil {
		return speech.Outcome{}, fmt.Errorf("%w: %w", speech.ErrAudioPlayback, fetchErr)
	}

	if len(payload) < s.minimumPayloadBytes {
		logger.WarnContext(ctx, "reply audio rejected as too small",
			"turn_id", req.TurnID, "bytes", len(payload), "minimum", s.minimumPayloadBytes)
		return speech.Outcome{}, fmt.Errorf("%w: payload of %d bytes is below the %d byte minimum",
			speech.ErrAudioPlayback, len(payload), s.minimumPayloadBytes)
	}

	clip, err := audio.Decode(payload)
	if err != nil {
		return speech.Outcome{}, fmt.Errorf("%w: %w", speech.ErrAudioPlayback, err)
	}

	output := playback.Output()
	if output == nil {
		return speech.Outcome{}, fmt.Errorf("%w: no audio output configured", speech.ErrAudioPlayback)
	}

	pcm, err := clip.Encode(output.EncodingInfo())
	if err != nil {
		return speech.Outcome{}, fmt.Errorf("%w: %w", speech.ErrAudioPlayback, err)
	}

	release := token.OnCancel(output.ClearBuffer)
	defer release()

	if err := output.SendAudio(pcm); err != nil {
		if cancelErr := token.Err(); cancelErr != nil {
			return speech.Outcome{}, cancelErr
		}
		output.ClearBuffer()
		return speech.Outcome{}, fmt.Errorf("%w: output rejected audio: %w", speech.ErrAudioPlayback, err)
	}

	if err := playback.Started(); err != nil {
		output.ClearBuffer()
		return speech.Outcome{}, err
	}
	defer playback.Stopped()

	duration := clip.Duration()
	ended := make(chan struct{})
	var endOnce sync.Once
	if err := output.Mark(endOfClipMark, func(string) { endOnce.Do(func() { close(ended) }) }); err != nil {
		// no end signal from the device, fall back to the clip length
		logger.WarnContext(ctx, "output cannot mark end of reply audio", "error", err)
		timer := time.AfterFunc(duration, func() { endOnce.Do(func() { close(ended) }) })
		defer timer.Stop()
	}

	select {
	case <-ended:
	case <-token.Context().Done():
	}
	if err := token.Err(); err != nil {
		return speech.Outcome{}, err
	}

	return speech.Outcome{Played: true, Duration: duration}, nil
}
