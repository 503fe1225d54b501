package events

import "time"

// Kind is the dotted name of an event, e.g. "playback.started".
type Kind string

// Event is anything emitted on an event callback.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields shared by all events. Embed it and create it with
// NewBase.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
