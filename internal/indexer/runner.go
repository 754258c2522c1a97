package indexer

import (
	"context"
	"sync"

	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/index"
)

// Runner runs at most one indexing pass at a time against a live table and
// commits each pass's result to it.
type Runner struct {
	prov  fingerprint.Provider
	table *index.Table

	// CommitCancelled makes a cancelled run commit the subset that completed.
	// Otherwise a cancelled run leaves the table untouched.
	CommitCancelled bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	res     *Result
	err     error
}

// NewRunner returns a runner committing into table.
func NewRunner(prov fingerprint.Provider, table *index.Table) *Runner {
	done := make(chan struct{})
	close(done)
	return &Runner{prov: prov, table: table, done: done}
}

// Start begins a run in the background. It returns ErrRunning if a run is
// already active.
func (r *Runner) Start(ctx context.Context, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.res, r.err = nil, nil

	go r.run(ctx, cancel, opts, r.done)
	return nil
}

func (r *Runner) run(ctx context.Context, cancel context.CancelFunc, opts Options, done chan struct{}) {
	defer close(done)
	defer cancel()

	res, err := Run(ctx, r.prov, r.table.Snapshot(), opts)
	if err == nil && (!res.Cancelled || r.CommitCancelled) {
		r.table.Commit(res.Removed, res.Added)
	}

	r.mu.Lock()
	r.res, r.err = res, err
	r.running = false
	r.mu.Unlock()
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Cancel requests the active run, if any, to stop.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the current run finishes and returns its outcome. With no
// run ever started it returns nil, nil.
func (r *Runner) Wait() (*Result, error) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.res, r.err
}

// Table returns the live table the runner commits into.
func (r *Runner) Table() *index.Table {
	return r.table
}
