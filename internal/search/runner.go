package search

import (
	"context"
	"sync"

	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/index"
)

// Runner keeps at most one search in flight. Submitting a new search cancels
// the previous one and waits for its comparison loop to stop. A superseded
// search never calls back.
//
// Submit and Cancel may be called from inside a completion callback; Wait
// may not.
type Runner struct {
	engine *Engine

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	searched  chan struct{} // closed once the comparison loop returns
	delivered chan struct{} // closed once the callback, if any, returns
}

// NewRunner returns a runner over engine.
func NewRunner(engine *Engine) *Runner {
	return &Runner{engine: engine}
}

// Submit starts a search in the background. onDone receives the ranked
// results; it is never called for a search that was cancelled, superseded or
// failed.
func (r *Runner) Submit(ctx context.Context, snap *index.Snapshot, query fingerprint.Fingerprint, opts Options, onDone func([]Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(ctx)
	searched := make(chan struct{})
	delivered := make(chan struct{})
	r.cancel, r.searched, r.delivered = cancel, searched, delivered

	go func() {
		defer close(delivered)
		res, err := r.engine.Search(ctx, snap, query, opts)
		close(searched)
		if err != nil || !r.current(ctx, gen) {
			cancel()
			return
		}
		onDone(res)
		cancel()
	}()
}

// current reports whether the search numbered gen is still the latest and
// has not been cancelled.
func (r *Runner) current(ctx context.Context, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen == gen && ctx.Err() == nil
}

// Cancel stops the in-flight search, if any, and waits for its comparison
// loop to return.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Wait blocks until the latest search, and any search submitted from its
// callback, has finished delivering.
func (r *Runner) Wait() {
	for {
		r.mu.Lock()
		delivered := r.delivered
		r.mu.Unlock()
		if delivered == nil {
			return
		}
		<-delivered

		r.mu.Lock()
		same := r.delivered == delivered
		r.mu.Unlock()
		if same {
			return
		}
	}
}

func (r *Runner) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.gen++
	r.cancel()
	<-r.searched
	r.cancel, r.searched = nil, nil
}
