package widget

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/conversations"
	"github.com/koscakluka/ema-talk/core/events"
)

// Session is the conversation the widget talks to.
type Session interface {
	SubmitUserMessage(ctx context.Context, text string) error
	Records() []conversations.Record
}

// AvatarSignals receives the widget avatar's load and error signals.
type AvatarSignals interface {
	HandleLoad()
	HandleError(detail string) error
}

type Server struct {
	hub      *Hub
	session  Session
	avatar   AvatarSignals
	upgrader websocket.Upgrader
	onEvent  func(events.Event)

	baseContext context.Context
	submissions sync.WaitGroup
}

type ServerOption func(*Server)

// WithAvatarSignals forwards avatar load/error events, typically to an
// *avatar.RendererDriver.
func WithAvatarSignals(signals AvatarSignals) ServerOption {
	return func(s *Server) {
		s.avatar = signals
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		}
	}
}

func WithEventCallback(callback func(events.Event)) ServerOption {
	return func(s *Server) {
		if callback != nil {
			s.onEvent = callback
		}
	}
}

// WithBaseContext is the parent context of message submissions.
func WithBaseContext(ctx context.Context) ServerOption {
	return func(s *Server) {
		if ctx != nil {
			s.baseContext = ctx
		}
	}
}

func NewServer(hub *Hub, session Session, opts ...ServerOption) *Server {
	s := &Server{
		hub:         hub,
		session:     session,
		onEvent:     func(events.Event) {},
		baseContext: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("widget websocket upgrade failed", "error", err)
		return
	}

	c := s.hub.register(conn)
	defer s.hub.unregister(c)

	if data, err := json.Marshal(transcriptMessage(s.session.Records())); err == nil {
		c.enqueue(data)
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("widget connection closed", "error", err)
			}
			return
		}
		s.handle(msg)
	}
}

func (s *Server) handle(msg ClientMessage) {
	switch msg.Type {
	case TypeMessage:
		s.submissions.Add(1)
		go func() {
			defer s.submissions.Done()
			// failures already show up in the transcript
			_ = s.session.SubmitUserMessage(s.baseContext, msg.Text)
		}()
	case TypeAvatar:
		s.handleAvatar(msg)
	default:
		logger.Warn("unknown widget message", "type", msg.Type)
	}
}

func (s *Server) handleAvatar(msg ClientMessage) {
	if s.avatar == nil {
		return
	}

	switch msg.Event {
	case AvatarEventLoad:
		s.avatar.HandleLoad()
		s.onEvent(events.NewAvatarLoaded())
	case AvatarEventError:
		err := s.avatar.HandleError(msg.Detail)
		s.onEvent(events.NewAvatarLoadFailed(err))
	default:
		logger.Warn("unknown avatar event", "event", msg.Event)
	}
}

// Wait blocks until all submitted messages were answered.
func (s *Server) Wait() {
	s.submissions.Wait()
}
