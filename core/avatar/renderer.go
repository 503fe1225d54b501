package avatar

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const DefaultMouthInterval = 120 * time.Millisecond

// RendererDriver animates a Renderer once it reported a successful load.
// Before load, or after a load error, it behaves like its fallback.
//
// While talking, it runs a synthetic mouth-motion generator that sets a
// random mouth openness every tick and closes the mouth when talking stops.
type RendererDriver struct {
	renderer      Renderer
	fallback      Driver
	mouthInterval time.Duration
	mouthOpen     func() float64

	mu       sync.Mutex
	loaded   bool
	loadErr  error
	talking  bool
	stopLoop context.CancelFunc
	loopDone chan struct{}
}

type RendererOption func(*RendererDriver)

func WithFallback(fallback Driver) RendererOption {
	return func(d *RendererDriver) {
		d.fallback = fallback
	}
}

func WithMouthInterval(interval time.Duration) RendererOption {
	return func(d *RendererDriver) {
		d.mouthInterval = interval
	}
}

// WithMouthMotion replaces the random mouth openness generator.
func WithMouthMotion(next func() float64) RendererOption {
	return func(d *RendererDriver) {
		d.mouthOpen = next
	}
}

func NewRendererDriver(renderer Renderer, opts ...RendererOption) *RendererDriver {
	d := &RendererDriver{
		renderer:      renderer,
		fallback:      NewFallback(nil),
		mouthInterval: DefaultMouthInterval,
		mouthOpen:     func() float64 { return 0.2 + rand.Float64()*0.8 },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleLoad records the renderer's load signal. If talking is already on,
// the animation catches up.
func (d *RendererDriver) HandleLoad() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loadErr != nil {
		return
	}
	d.loaded = true
	logger.Info("avatar renderer loaded")
	if d.talking {
		d.applyTalkingLocked()
	}
}

// HandleError records the renderer's error signal and switches to the
// fallback for good. It returns the resulting load error.
func (d *RendererDriver) HandleError(detail string) error {
	err := fmt.Errorf("%w: %s", ErrAvatarLoad, detail)

	d.mu.Lock()
	d.loaded = false
	d.loadErr = err
	d.stopMouthLocked()
	d.mu.Unlock()

	logger.Warn("avatar renderer failed, using fallback indicator", "error", err)
	d.fallback.ReportStatus("Avatar nicht verfügbar")
	return err
}

// Err returns the load error, if any.
func (d *RendererDriver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadErr
}

func (d *RendererDriver) SetTalking(talking bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.talking == talking {
		return
	}
	d.talking = talking
	if !d.loaded {
		d.fallback.SetTalking(talking)
		return
	}

	if talking {
		d.applyTalkingLocked()
	} else {
		d.stopMouthLocked()
		d.render(func() error { return d.renderer.SetMouthOpen(0) })
		d.render(func() error { return d.renderer.SetAnimationState(StateIdle) })
	}
}

func (d *RendererDriver) ReportStatus(status string) {
	d.mu.Lock()
	loaded := d.loaded
	d.mu.Unlock()

	if !loaded {
		d.fallback.ReportStatus(status)
		return
	}
	logger.Info("avatar status", "status", status)
}

func (d *RendererDriver) applyTalkingLocked() {
	d.render(func() error { return d.renderer.SetAnimationState(StateTalking) })
	d.startMouthLocked()
}

func (d *RendererDriver) startMouthLocked() {
	if d.stopLoop != nil || d.mouthInterval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.stopLoop, d.loopDone = cancel, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(d.mouthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				open := d.mouthOpen()
				d.render(func() error { return d.renderer.SetMouthOpen(open) })
			}
		}
	}()
}

// stopMouthLocked stops the generator and waits for it, so no tick lands
// after the mouth is closed. The loop never takes d.mu.
func (d *RendererDriver) stopMouthLocked() {
	if d.stopLoop == nil {
		return
	}
	d.stopLoop()
	<-d.loopDone
	d.stopLoop, d.loopDone = nil, nil
}

func (d *RendererDriver) render(call func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("avatar renderer panicked", "panic", r)
		}
	}()
	if err := call(); err != nil {
		logger.Warn("avatar renderer call failed", "error", err)
	}
}
