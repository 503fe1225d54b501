// Package conversations keeps the chat transcript and hands accepted
// replies to the playback orchestrator.
package conversations

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	orchestration "github.com/koscakluka/ema-talk/core"
	"github.com/koscakluka/ema-talk/core/backend"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Backend sends one user message and returns the reply.
type Backend interface {
	Send(ctx context.Context, message string) (backend.Reply, error)
}

// Player plays accepted turns.
type Player interface {
	Play(turn orchestration.Turn)
	Cancel()
}

type Session struct {
	backend  Backend
	player   Player
	resolver texttospeech.AudioResolver
	onChange func([]Record)
	onEvent  func(events.Event)

	playMu sync.Mutex

	mu            sync.Mutex
	records       []Record
	nextTurn      uint64
	latestReplied uint64
}

type SessionOption func(*Session)

// WithAudioResolver renders audio for replies that came without any.
// Resolver failures are logged and the turn falls back to local speech.
func WithAudioResolver(resolver texttospeech.AudioResolver) SessionOption {
	return func(s *Session) {
		s.resolver = resolver
	}
}

// WithChangeCallback receives a copy of the transcript after every change.
func WithChangeCallback(callback func([]Record)) SessionOption {
	return func(s *Session) {
		if callback != nil {
			s.onChange = callback
		}
	}
}

func WithEventCallback(callback func(events.Event)) SessionOption {
	return func(s *Session) {
		if callback != nil {
			s.onEvent = callback
		}
	}
}

func NewSession(client Backend, player Player, opts ...SessionOption) *Session {
	s := &Session{
		backend:  client,
		player:   player,
		onChange: func([]Record) {},
		onEvent:  func(events.Event) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitUserMessage sends text to the backend and plays the reply. Blank
// input is ignored. It blocks until the reply was handed to the player; a
// backend failure is rendered into the transcript and also returned.
func (s *Session) SubmitUserMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	s.nextTurn++
	turnID := s.nextTurn
	s.records = append(s.records,
		Record{ID: uuid.New(), Role: RoleUser, Text: text, State: StateFinal, TurnID: turnID},
		Record{ID: uuid.New(), Role: RoleBot, Text: PlaceholderText, State: StatePending, TurnID: turnID},
	)
	s.mu.Unlock()
	s.notifyChange()
	s.onEvent(events.NewTurnSubmitted(turnID, text))

	ctx, span := tracer.Start(ctx, "conversation turn", trace.WithAttributes(
		attribute.Int64("turn.id", int64(turnID)),
	))
	defer span.End()

	reply, err := s.backend.Send(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.updateBotRecord(turnID, ErrorText(err), StateError)
		s.onEvent(events.NewTurnFailed(turnID, err))
		return err
	}

	s.updateBotRecord(turnID, reply.Text, StateFinal)

	audioRef := reply.AudioRef
	if audioRef == "" && s.resolver != nil {
		if resolved, err := s.resolver.ResolveAudio(ctx, reply.Text); err != nil {
			logger.WarnContext(ctx, "failed to resolve reply audio", "turn_id", turnID, "error", err)
		} else {
			audioRef = resolved
		}
	}

	s.onEvent(events.NewTurnReplied(turnID, reply.Text, audioRef))

	// The stale check and the hand-over to the player are one step, so an
	// older reply can never cancel a newer turn that already started.
	s.playMu.Lock()
	defer s.playMu.Unlock()

	s.mu.Lock()
	stale := turnID < s.latestReplied
	if !stale {
		s.latestReplied = turnID
	}
	s.mu.Unlock()

	if stale {
		logger.InfoContext(ctx, "newer reply already playing, not playing stale turn", "turn_id", turnID)
		span.SetAttributes(attribute.Bool("turn.stale", true))
		return nil
	}

	s.player.Cancel()
	s.player.Play(orchestration.Turn{
		ID:       turnID,
		UserText: text,
		BotText:  reply.Text,
		AudioRef: audioRef,
	})
	return nil
}

// Records returns a copy of the transcript, oldest first.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyRecordsLocked()
}

func (s *Session) copyRecordsLocked() []Record {
	records := []Record{}
	if err := copier.CopyWithOption(&records, s.records, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("failed to copy transcript", "error", err)
		return append([]Record(nil), s.records...)
	}
	return records
}

// Close cancels any playback started by the session.
func (s *Session) Close() {
	s.player.Cancel()
}

func (s *Session) updateBotRecord(turnID uint64, text string, state RecordState) {
	s.mu.Lock()
	for i := range s.records {
		record := &s.records[i]
		if record.TurnID == turnID && record.Role == RoleBot {
			record.Text = text
			record.State = state
			break
		}
	}
	s.mu.Unlock()
	s.notifyChange()
}

func (s *Session) notifyChange() {
	s.onChange(s.Records())
}
