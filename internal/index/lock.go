package index

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Lock is a cross-process lock guarding one index file. Only the holder may
// run the indexer against that file and save it.
type Lock struct {
	path  string
	flock *flock.Flock
}

// NewLock returns the lock for the index at indexPath. The lock file lives
// next to it as <indexPath>.lock.
func NewLock(indexPath string) *Lock {
	p := indexPath + ".lock"
	return &Lock{path: p, flock: flock.New(p)}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, polling until timeout elapses. A zero timeout tries
// once. It returns ErrLocked when another process keeps holding it.
func (l *Lock) Acquire(timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("cannot create lock directory: %w", err)
	}
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.flock.TryLock()
		if err != nil {
			return fmt.Errorf("cannot acquire index lock: %w", err)
		}
		if locked {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w (lock: %s)", ErrLocked, l.path)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Release drops the lock. It is safe to call when the lock is not held.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("cannot release index lock: %w", err)
	}
	return nil
}
