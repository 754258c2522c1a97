// Package fingerprinttest provides a deterministic fingerprint provider for
// tests. A fake fingerprint is the integer written in the file, and the
// distance between two fingerprints is their absolute difference.
package fingerprinttest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/kamusis/sight-cli/internal/fingerprint"
)

// Value is a fake fingerprint.
type Value int64

func (v Value) String() string {
	return "fake:" + strconv.FormatInt(int64(v), 10)
}

// Provider is a fingerprint.Provider over integer file contents.
// Contents that do not parse as an integer fail with fingerprint.ErrDecode.
type Provider struct {
	// Version is appended to ID, so tests can simulate an algorithm change.
	Version string

	// Gate, when non-nil, must yield a value before each Compute returns.
	Gate chan struct{}

	// Started, when non-nil, receives one value as each Compute begins.
	Started chan struct{}

	calls atomic.Int64
}

// ID implements fingerprint.Provider.
func (p *Provider) ID() string {
	if p.Version == "" {
		return "fake"
	}
	return "fake-" + p.Version
}

// Calls returns the number of Compute invocations.
func (p *Provider) Calls() int {
	return int(p.calls.Load())
}

// Compute implements fingerprint.Provider.
func (p *Provider) Compute(ctx context.Context, data []byte) (fingerprint.Fingerprint, error) {
	p.calls.Add(1)
	if p.Started != nil {
		select {
		case p.Started <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fingerprint.ErrDecode, err)
	}
	return Value(n), nil
}

// Parse implements fingerprint.Provider.
func (p *Provider) Parse(s string) (fingerprint.Fingerprint, error) {
	raw, ok := strings.CutPrefix(s, "fake:")
	if !ok {
		return nil, fmt.Errorf("%w: %q", fingerprint.ErrIncompatible, s)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", fingerprint.ErrIncompatible, s)
	}
	return Value(n), nil
}

// Distance implements fingerprint.Provider.
func (p *Provider) Distance(a, b fingerprint.Fingerprint) (float64, error) {
	va, ok := a.(Value)
	if !ok {
		return 0, fmt.Errorf("%w: %T", fingerprint.ErrIncompatible, a)
	}
	vb, ok := b.(Value)
	if !ok {
		return 0, fmt.Errorf("%w: %T", fingerprint.ErrIncompatible, b)
	}
	d := int64(va - vb)
	if d < 0 {
		d = -d
	}
	return float64(d), nil
}

// Broken is a fingerprint no Provider in this package can compare.
type Broken struct{}

func (Broken) String() string { return "broken" }
