package compose

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/observability"
)

// Renderer keeps the preview in sync with a design store.
//
// Each snapshot carries a generation. Submitting a newer generation cancels
// the render in flight; a render only publishes if its generation is still the
// latest when it finishes. A failed render keeps the previous preview.
type Renderer struct {
	engine *Engine
	logger *log.Logger

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	onDone func(*Composed, error)

	mu      sync.Mutex
	latest  uint64
	cancel  context.CancelFunc
	pending chan struct{}
	current *Composed
	lastErr error
}

// NewRenderer returns a renderer bound to ctx. Cancelling ctx or calling
// Close stops all renders.
func NewRenderer(ctx context.Context, engine *Engine, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = engine.Logger
	}
	rctx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	close(done)
	return &Renderer{
		engine:  engine,
		logger:  logger,
		ctx:     rctx,
		stop:    stop,
		pending: done,
	}
}

// OnUpdate registers fn to run after each render for the latest generation
// settles. fn is called from the render goroutine.
func (r *Renderer) OnUpdate(fn func(*Composed, error)) {
	r.mu.Lock()
	r.onDone = fn
	r.mu.Unlock()
}

// Attach renders the store's current state and re-renders on every mutation.
// The returned function detaches.
func (r *Renderer) Attach(store *design.Store) (detach func()) {
	unsubscribe := store.Subscribe(r.Submit)
	r.Submit(store.Snapshot())
	return unsubscribe
}

// Submit schedules a render of snap. Snapshots older than or equal to the
// latest submitted generation are ignored.
func (r *Renderer) Submit(snap design.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return
	}
	if snap.Generation <= r.latest && r.latest != 0 {
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.latest = snap.Generation
	done := make(chan struct{})
	r.pending = done

	if !snap.HasBase() {
		r.cancel = nil
		r.current = nil
		r.lastErr = nil
		close(done)
		return
	}

	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go r.run(ctx, cancel, snap, done)
}

func (r *Renderer) run(ctx context.Context, cancel context.CancelFunc, snap design.Snapshot, done chan struct{}) {
	defer r.wg.Done()
	defer close(done)
	defer cancel()

	hooks := observability.Compose()
	hooks.OnComposeStart(ctx, snap.Generation)
	start := time.Now()
	out, err := r.engine.Compose(ctx, snap.Base, snap.Settings, snap.Logo)
	hooks.OnComposeComplete(ctx, snap.Generation, time.Since(start), err)

	r.mu.Lock()
	if snap.Generation != r.latest {
		latest := r.latest
		r.mu.Unlock()
		hooks.OnComposeSuperseded(ctx, snap.Generation, latest)
		return
	}
	if err != nil {
		r.lastErr = err
		r.logger.Warn("preview not updated", "generation", snap.Generation, "error", err)
	} else {
		out.Generation = snap.Generation
		r.current = out
		r.lastErr = nil
	}
	current, lastErr, notify := r.current, r.lastErr, r.onDone
	r.mu.Unlock()

	if notify != nil {
		notify(current, lastErr)
	}
}

// Current returns the latest published preview, or nil.
func (r *Renderer) Current() *Composed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Generation returns the latest submitted generation.
func (r *Renderer) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Wait blocks until the render for the latest submitted generation settles
// and returns the current preview with that render's error, if any.
func (r *Renderer) Wait(ctx context.Context) (*Composed, error) {
	for {
		r.mu.Lock()
		gen, pending := r.latest, r.pending
		r.mu.Unlock()

		select {
		case <-pending:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		r.mu.Lock()
		if r.latest == gen {
			current, err := r.current, r.lastErr
			r.mu.Unlock()
			return current, err
		}
		r.mu.Unlock()
	}
}

// Close cancels any render in flight and waits for render goroutines to exit.
func (r *Renderer) Close() {
	r.mu.Lock()
	r.stop()
	r.mu.Unlock()
	r.wg.Wait()
}
