package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// playbackSession plays one turn. It is the speech.Playback handed to the
// sources, so every talking/output change of a source passes through the
// session's state machine and cancellation token.
type playbackSession struct {
	id     uuid.UUID
	turn   Turn
	token  *speech.Token
	driver avatar.Driver
	output *gatedOutput
	emit   eventEmitter

	mu      sync.Mutex
	status  Status
	source  speech.Kind
	talking bool
	played  bool
	err     error

	done chan struct{}
}

func newPlaybackSession(ctx context.Context, turn Turn, driver avatar.Driver, output audio.Output, emit eventEmitter) *playbackSession {
	s := &playbackSession{
		id:     uuid.New(),
		turn:   turn,
		token:  speech.NewToken(ctx),
		driver: driver,
		emit:   emit,
		status: StatusIdle,
		done:   make(chan struct{}),
	}

	// Cleanups run in reverse order: sources first, then the output, then
	// the talking reset.
	s.token.OnCancel(s.handleCancelled)
	if output != nil {
		s.output = newGatedOutput(output, s.token)
		s.token.OnCancel(s.output.close)
	}
	return s
}

func (s *playbackSession) Token() *speech.Token { return s.token }

func (s *playbackSession) Output() audio.Output {
	if s.output == nil {
		return nil
	}
	return s.output
}

func (s *playbackSession) Started() error {
	s.mu.Lock()
	if s.token.Cancelled() {
		s.mu.Unlock()
		return speech.ErrCancelled
	}
	if s.status != StatusAttempting {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("cannot start playback in status %s", status)
	}
	s.status = StatusPlaying
	s.played = true
	s.talking = true
	s.driver.SetTalking(true)
	source := s.source
	s.mu.Unlock()

	s.emit(events.NewPlaybackStarted(s.id, source))
	s.emit(events.NewPlaybackStatusChanged(s.id, s.turn.ID, source, StatusPlaying.String(), nil))
	return nil
}

// Stopped does not touch the avatar. Talking is reset in the same step that
// moves the session out of Playing, so State never reports Playing without
// talking.
func (s *playbackSession) Stopped() {}

// stopTalkingLocked resets the avatar once per Started.
func (s *playbackSession) stopTalkingLocked() bool {
	if !s.talking {
		return false
	}
	s.talking = false
	s.driver.SetTalking(false)
	return true
}

// beginAttempt moves the session to Attempting with kind as the active
// source. It reports false once the session was cancelled.
func (s *playbackSession) beginAttempt(kind speech.Kind) bool {
	s.mu.Lock()
	if s.token.Cancelled() || s.status.IsTerminal() {
		s.mu.Unlock()
		return false
	}
	s.status = StatusAttempting
	s.source = kind
	s.mu.Unlock()

	s.emit(events.NewPlaybackStatusChanged(s.id, s.turn.ID, kind, StatusAttempting.String(), nil))
	return true
}

func (s *playbackSession) reachedPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

// finish moves the session to a terminal status unless cancellation got
// there first.
func (s *playbackSession) finish(ctx context.Context, status Status, err error) {
	s.mu.Lock()
	if s.status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	stopped := s.stopTalkingLocked()
	s.status = status
	s.err = err
	source := s.source
	s.mu.Unlock()

	if stopped {
		s.emit(events.NewPlaybackEnded(s.id, source))
	}
	s.recordOutcome(ctx, status, source, err)
	s.emit(events.NewPlaybackStatusChanged(s.id, s.turn.ID, source, status.String(), err))
	if status == StatusCancelled {
		s.emit(events.NewTurnCancelled(s.turn.ID))
	}
}

func (s *playbackSession) handleCancelled() {
	s.mu.Lock()
	stopped := s.stopTalkingLocked()
	wasTerminal := s.status.IsTerminal()
	if !wasTerminal {
		s.status = StatusCancelled
	}
	source := s.source
	s.mu.Unlock()

	if stopped {
		s.emit(events.NewPlaybackEnded(s.id, source))
	}
	if !wasTerminal {
		s.recordOutcome(context.Background(), StatusCancelled, source, nil)
		s.emit(events.NewPlaybackStatusChanged(s.id, s.turn.ID, source, StatusCancelled.String(), nil))
		s.emit(events.NewTurnCancelled(s.turn.ID))
	}
}

func (s *playbackSession) cancel() bool {
	return s.token.Cancel()
}

func (s *playbackSession) snapshot() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PlaybackState{
		SessionID:    s.id,
		TurnID:       s.turn.ID,
		ActiveSource: s.source,
		Status:       s.status,
		Talking:      s.talking,
		Err:          s.err,
	}
}

// run walks the source chain until one succeeds, the session is cancelled,
// or every source failed. A source that failed after becoming audible ends
// the session; falling forward is only for sources that never played.
func (s *playbackSession) run(ctx context.Context, chain []speech.Source) {
	defer close(s.done)
	defer s.token.Close()

	ctx, span := tracer.Start(ctx, "play turn", trace.WithAttributes(
		attribute.String("playback.session_id", s.id.String()),
		attribute.Int64("turn.id", int64(s.turn.ID)),
		attribute.Bool("turn.has_audio", s.turn.AudioRef != ""),
	))
	defer span.End()

	s.emit(events.NewPlaybackSessionStarted(s.id, s.turn.ID))

	request := speech.Request{TurnID: s.turn.ID, Text: s.turn.BotText, AudioRef: s.turn.AudioRef}
	var failures []error
	for _, source := range chain {
		if !s.beginAttempt(source.Kind()) {
			span.SetAttributes(attribute.String("playback.status", StatusCancelled.String()))
			return
		}

		attempt := panicSafeNamedWorker(source.Kind().String()+" source", func(ctx context.Context) error {
			_, err := source.Attempt(ctx, request, s)
			return err
		})
		err := attempt(ctx)

		if err == nil {
			s.finish(ctx, StatusCompleted, nil)
			span.SetAttributes(attribute.String("playback.status", StatusCompleted.String()))
			return
		}
		if s.token.Cancelled() || errors.Is(err, speech.ErrCancelled) {
			s.finish(ctx, StatusCancelled, nil)
			span.SetAttributes(attribute.String("playback.status", StatusCancelled.String()))
			return
		}

		failures = append(failures, err)
		s.emit(events.NewPlaybackSourceFailed(s.id, source.Kind(), err))
		logger.WarnContext(ctx, "speech source failed",
			"session_id", s.id.String(),
			"turn_id", s.turn.ID,
			"source", source.Kind().String(),
			"error", err,
		)
		if s.reachedPlaying() {
			break
		}
	}

	err := errors.Join(failures...)
	if err == nil {
		err = speech.ErrSynthesisUnsupported
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("playback.status", StatusFailed.String()))
	s.finish(ctx, StatusFailed, err)
}

func (s *playbackSession) recordOutcome(ctx context.Context, status Status, source speech.Kind, err error) {
	playbackOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status.String()),
		attribute.String("source", source.String()),
	))

	logger.InfoContext(ctx, "playback session finished",
		"session_id", s.id.String(),
		"turn_id", s.turn.ID,
		"status", status.String(),
		"source", source.String(),
		"error", err,
	)
}
