package orchestration

import "github.com/koscakluka/ema-talk/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// chain returns an emitter calling e then next.
func (e eventEmitter) chain(next eventEmitter) eventEmitter {
	if next == nil {
		return e
	}
	if e == nil {
		return next
	}
	return func(event events.Event) {
		e(event)
		next(event)
	}
}

func newStateChangeEmitter(o *Orchestrator, callback func(PlaybackState)) eventEmitter {
	if callback == nil {
		return nil
	}
	return func(event events.Event) {
		changed, ok := event.(events.PlaybackStatusChanged)
		if !ok {
			return
		}
		callback(o.sessionState(changed))
	}
}

func newTalkingEmitter(callback func(bool)) eventEmitter {
	if callback == nil {
		return nil
	}
	return func(event events.Event) {
		switch event.(type) {
		case events.PlaybackStarted:
			callback(true)
		case events.PlaybackEnded:
			callback(false)
		}
	}
}
