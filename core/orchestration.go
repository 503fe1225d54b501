package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/speech"
	"github.com/koscakluka/ema-talk/core/speech/remote"
)

// Orchestrator turns bot replies into speech and avatar animation. At most
// one playback session is active; playing a new turn cancels the previous
// one first.
type Orchestrator struct {
	remote speech.Source
	local  speech.Source
	driver avatar.Driver
	output audio.Output
	emit   eventEmitter

	baseContext context.Context
	stopHook    chan struct{}

	mu         sync.Mutex
	current    *playbackSession
	latestTurn uint64
	closed     bool
	sessions   sync.WaitGroup
	closeOnce  sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		remote:      remote.New(),
		driver:      avatar.NewFallback(nil),
		emit:        noopEventEmitter,
		baseContext: context.Background(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.stopHook = withContextCancelHook(o.baseContext, o.Close)
	return o
}

// Play starts playback of turn and returns immediately. Completion is
// observed through State, AwaitIdle or the event callback.
//
// A turn older than the latest one played is ignored: its text stays
// visible but it is never spoken.
func (o *Orchestrator) Play(turn Turn) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		logger.Warn("orchestrator closed, not playing turn", "turn_id", turn.ID)
		return
	}
	if turn.ID != 0 && turn.ID < o.latestTurn {
		o.mu.Unlock()
		logger.Info("skipping stale turn", "turn_id", turn.ID, "latest_turn_id", o.latestTurn)
		return
	}

	previous := o.current
	session := newPlaybackSession(o.baseContext, turn, o.driver, o.output, o.emit)
	o.current = session
	if turn.ID > o.latestTurn {
		o.latestTurn = turn.ID
	}
	o.sessions.Add(1)
	o.mu.Unlock()

	if previous != nil {
		previous.cancel()
	}

	go func() {
		defer o.sessions.Done()
		session.run(o.baseContext, o.chainFor(turn))
	}()
}

func (o *Orchestrator) chainFor(turn Turn) []speech.Source {
	chain := make([]speech.Source, 0, 2)
	if turn.AudioRef != "" && o.remote != nil {
		chain = append(chain, o.remote)
	}
	if o.local != nil {
		chain = append(chain, o.local)
	} else {
		chain = append(chain, unsupportedLocalSource{})
	}
	return chain
}

// Cancel cancels the current playback session, if any. On return the audio
// output is cleared and the avatar is no longer talking.
func (o *Orchestrator) Cancel() {
	if current := o.currentSession(); current != nil {
		current.cancel()
	}
}

// State returns a snapshot of the current playback session, or an Idle
// state before the first Play.
func (o *Orchestrator) State() PlaybackState {
	current := o.currentSession()
	if current == nil {
		return PlaybackState{Status: StatusIdle}
	}
	return current.snapshot()
}

// AwaitIdle blocks until the current session reached a terminal status.
func (o *Orchestrator) AwaitIdle(ctx context.Context) error {
	for {
		current := o.currentSession()
		if current == nil {
			return nil
		}

		select {
		case <-current.done:
		case <-ctx.Done():
			return ctx.Err()
		}

		if o.currentSession() == current {
			return nil
		}
	}
}

// Close cancels the current session and waits for all session goroutines.
// Later Play calls are ignored.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()

		close(o.stopHook)
		o.Cancel()
		o.sessions.Wait()
	})
}

type unsupportedLocalSource struct{}

func (unsupportedLocalSource) Kind() speech.Kind { return speech.KindLocal }

func (unsupportedLocalSource) Attempt(context.Context, speech.Request, speech.Playback) (speech.Outcome, error) {
	return speech.Outcome{}, speech.ErrSynthesisUnsupported
}
