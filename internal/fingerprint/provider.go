// Package fingerprint defines the similarity fingerprint capability consumed by
// the indexer and the search engine, and the perceptual-hash implementation
// used by the CLI.
package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDecode indicates the input bytes are not a decodable image.
	ErrDecode = errors.New("cannot decode image")
	// ErrIncompatible indicates two fingerprints cannot be compared, or a
	// serialized fingerprint was produced by a different provider.
	ErrIncompatible = errors.New("incompatible fingerprint")
)

// Fingerprint is an opaque, fixed-shape similarity summary of an image.
// String returns its canonical serialized form.
type Fingerprint interface {
	String() string
}

// Provider computes and compares fingerprints.
//
// Implementations must be deterministic for identical input, and Distance
// must be total, symmetric, non-negative and zero for identical fingerprints.
// Any change to the algorithm or its parameters must change ID, which is part
// of the persisted index schema version.
type Provider interface {
	ID() string
	Compute(ctx context.Context, data []byte) (Fingerprint, error)
	Parse(s string) (Fingerprint, error)
	Distance(a, b Fingerprint) (float64, error)
}

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "phash"

// Algorithms lists the names accepted by New.
func Algorithms() []string {
	return []string{"phash", "dhash", "ahash"}
}

// New returns the provider registered under name.
func New(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultAlgorithm
	}
	switch name {
	case "phash", "dhash", "ahash":
		return NewPerceptual(name)
	default:
		return nil, fmt.Errorf("unsupported fingerprint algorithm: %s (want one of %s)", name, strings.Join(Algorithms(), ", "))
	}
}
