package fingerprint

import (
	"bytes"
	"context"
	"fmt"
	"image"

	// Registered decoders for the supported extension set.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/corona10/goimagehash"
)

type hashFunc func(image.Image) (*goimagehash.ImageHash, error)

// Perceptual is a 64-bit perceptual hash provider. Distance is the Hamming
// distance between two hashes, so it ranges over [0, 64].
type Perceptual struct {
	name string
	kind goimagehash.Kind
	hash hashFunc
}

// NewPerceptual returns a provider for one of "phash", "dhash" or "ahash".
func NewPerceptual(algorithm string) (*Perceptual, error) {
	switch algorithm {
	case "phash":
		return &Perceptual{name: algorithm, kind: goimagehash.PHash, hash: goimagehash.PerceptionHash}, nil
	case "dhash":
		return &Perceptual{name: algorithm, kind: goimagehash.DHash, hash: goimagehash.DifferenceHash}, nil
	case "ahash":
		return &Perceptual{name: algorithm, kind: goimagehash.AHash, hash: goimagehash.AverageHash}, nil
	default:
		return nil, fmt.Errorf("unsupported perceptual hash: %s", algorithm)
	}
}

// ID implements Provider.
func (p *Perceptual) ID() string {
	return "goimagehash:" + p.name + "-64"
}

// Compute implements Provider.
func (p *Perceptual) Compute(ctx context.Context, data []byte) (Fingerprint, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := p.hash(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return imageHash{h: h}, nil
}

// Parse implements Provider.
func (p *Perceptual) Parse(s string) (Fingerprint, error) {
	h, err := goimagehash.ImageHashFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrIncompatible, s, err)
	}
	if h.GetKind() != p.kind {
		return nil, fmt.Errorf("%w: %q is not a %s hash", ErrIncompatible, s, p.name)
	}
	return imageHash{h: h}, nil
}

// Distance implements Provider.
func (p *Perceptual) Distance(a, b Fingerprint) (float64, error) {
	ha, ok := a.(imageHash)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrIncompatible, a)
	}
	hb, ok := b.(imageHash)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrIncompatible, b)
	}
	d, err := ha.h.Distance(hb.h)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	return float64(d), nil
}

type imageHash struct {
	h *goimagehash.ImageHash
}

func (f imageHash) String() string {
	return f.h.ToString()
}

// Decode decodes an image in any of the registered formats.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
