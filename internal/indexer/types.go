// Package indexer reconciles an index snapshot against the filesystem and
// fingerprints new or modified images with a bounded worker pool.
package indexer

import (
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/kamusis/sight-cli/internal/index"
)

var (
	// ErrNoRoots indicates no configured root could be enumerated.
	ErrNoRoots = errors.New("no directory could be scanned")
	// ErrRunning indicates an indexing run is already active.
	ErrRunning = errors.New("indexing already in progress")
	// ErrTimeout indicates a single item exceeded its fingerprinting budget.
	ErrTimeout = errors.New("fingerprinting timed out")
)

// DefaultExtensions is the supported image extension set.
var DefaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".webp", ".bmp",
	".gif",
	".heic", ".heif",
	".tiff", ".tif",
}

const (
	// DefaultItemTimeout bounds the wait for a single fingerprint.
	DefaultItemTimeout = 30 * time.Second
	maxDefaultWorkers  = 32
)

// State is the phase of an indexing run.
type State int

const (
	Idle State = iota
	Validating
	Scanning
	Hashing
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Scanning:
		return "scanning"
	case Hashing:
		return "hashing"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Progress is reported on every state change and while hashing.
// During Hashing, Completed counts finished items out of Total and Item is
// the path that just finished.
type Progress struct {
	State     State
	Completed int
	Total     int
	Item      string
}

// Result is the outcome of a run. Added and Removed are applied together by
// the caller; Removed must be applied before Added.
type Result struct {
	Added     []index.Item
	Removed   []string
	Failed    int
	Cancelled bool
}

// Options configures a run.
type Options struct {
	// Roots are the directories to scan.
	Roots []string
	// Extensions is the lower-case extension set to index, with leading dots.
	Extensions []string
	// Workers bounds parallel fingerprinting. Zero means one per CPU.
	Workers int
	// ItemTimeout bounds the wait for a single fingerprint.
	ItemTimeout time.Duration
	// ProgressEvery throttles Hashing progress to every Nth item. The last
	// item is always reported.
	ProgressEvery int
	// OnProgress is called from the coordinating goroutine only.
	OnProgress func(Progress)
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.Workers <= 0 {
		o.Workers = min(runtime.NumCPU(), maxDefaultWorkers)
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = DefaultItemTimeout
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) report(p Progress) {
	if o.OnProgress != nil {
		o.OnProgress(p)
	}
}

// ExtensionSet normalizes exts into a lookup set of lower-case extensions
// with a leading dot. Blank entries are dropped, and an empty list means
// DefaultExtensions.
func ExtensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = struct{}{}
	}
	return out
}
