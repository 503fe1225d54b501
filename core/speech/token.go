package speech

import (
	"context"
	"sync"
)

// Token is a cancellation flag plus the cleanups registered against it.
//
// Cancel runs every registered cleanup exactly once, synchronously, most
// recently registered first. The token's context is cancelled with it so
// blocking primitives unblock.
type Token struct {
	mu        sync.Mutex
	cancelled bool
	closed    bool
	nextID    int
	cleanups  []tokenCleanup

	ctx        context.Context
	cancelCtx  context.CancelFunc
	stopParent func() bool
}

type tokenCleanup struct {
	id int
	fn func()
}

// NewToken creates a token whose context derives from parent. Cancelling
// parent cancels the token.
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	t := &Token{ctx: ctx, cancelCtx: cancel}
	t.stopParent = context.AfterFunc(parent, func() { t.Cancel() })
	return t
}

func (t *Token) Context() context.Context {
	return t.ctx
}

func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Err returns [ErrCancelled] once the token has been cancelled.
func (t *Token) Err() error {
	if t.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// OnCancel registers cleanup and returns a func that unregisters it. If the
// token is already cancelled, cleanup runs immediately.
func (t *Token) OnCancel(cleanup func()) (release func()) {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		cleanup()
		return func() {}
	}
	if t.closed {
		t.mu.Unlock()
		return func() {}
	}

	t.nextID++
	id := t.nextID
	t.cleanups = append(t.cleanups, tokenCleanup{id: id, fn: cleanup})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, c := range t.cleanups {
			if c.id == id {
				t.cleanups = append(t.cleanups[:i], t.cleanups[i+1:]...)
				return
			}
		}
	}
}

// Cancel marks the token cancelled and runs registered cleanups. It reports
// whether this call did the cancelling; repeated calls and calls after Close
// are no-ops.
func (t *Token) Cancel() bool {
	t.mu.Lock()
	if t.cancelled || t.closed {
		t.mu.Unlock()
		return false
	}
	t.cancelled = true
	cleanups := t.cleanups
	t.cleanups = nil
	t.mu.Unlock()

	t.cancelCtx()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i].fn()
	}
	return true
}

// Close releases the token without cancelling it. Registered cleanups are
// dropped and later Cancel calls do nothing.
func (t *Token) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.cleanups = nil
	t.mu.Unlock()

	t.stopParent()
	t.cancelCtx()
}
