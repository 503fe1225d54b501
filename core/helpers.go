package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-talk/core/events"
)

func (o *Orchestrator) currentSession() *playbackSession {
	if o == nil {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// sessionState rebuilds the snapshot carried by a status change, so
// callbacks see transitions in emission order even if the session has moved
// on since.
func (o *Orchestrator) sessionState(changed events.PlaybackStatusChanged) PlaybackState {
	status := parseStatus(changed.Status)
	return PlaybackState{
		SessionID:    changed.SessionID,
		TurnID:       changed.TurnID,
		ActiveSource: changed.Source,
		Status:       status,
		Talking:      status == StatusPlaying,
		Err:          changed.Err,
	}
}

func parseStatus(name string) Status {
	for status := StatusIdle; status <= StatusCancelled; status++ {
		if status.String() == name {
			return status
		}
	}
	return StatusIdle
}

func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}

type workerRun func(context.Context) error

func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}

		return nil
	}
}
