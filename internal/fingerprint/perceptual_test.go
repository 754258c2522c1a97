package fingerprint

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientPNG(t *testing.T, horizontal bool) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := x
			if !horizontal {
				v = y
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v * 4)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPerceptual_ReflexiveAndSymmetric(t *testing.T) {
	for _, algo := range Algorithms() {
		t.Run(algo, func(t *testing.T) {
			p, err := New(algo)
			require.NoError(t, err)

			a, err := p.Compute(context.Background(), gradientPNG(t, true))
			require.NoError(t, err)
			b, err := p.Compute(context.Background(), gradientPNG(t, false))
			require.NoError(t, err)

			d, err := p.Distance(a, a)
			require.NoError(t, err)
			assert.Zero(t, d)

			ab, err := p.Distance(a, b)
			require.NoError(t, err)
			ba, err := p.Distance(b, a)
			require.NoError(t, err)
			assert.Equal(t, ab, ba)
			assert.GreaterOrEqual(t, ab, 0.0)
		})
	}
}

func TestPerceptual_Deterministic(t *testing.T) {
	p, err := New("phash")
	require.NoError(t, err)
	data := gradientPNG(t, true)

	a, err := p.Compute(context.Background(), data)
	require.NoError(t, err)
	b, err := p.Compute(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestPerceptual_ParseRoundTrip(t *testing.T) {
	p, err := New("dhash")
	require.NoError(t, err)
	fp, err := p.Compute(context.Background(), gradientPNG(t, true))
	require.NoError(t, err)

	parsed, err := p.Parse(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp.String(), parsed.String())

	d, err := p.Distance(fp, parsed)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestPerceptual_ParseRejectsOtherKind(t *testing.T) {
	ph, err := New("phash")
	require.NoError(t, err)
	ah, err := New("ahash")
	require.NoError(t, err)

	fp, err := ah.Compute(context.Background(), gradientPNG(t, true))
	require.NoError(t, err)

	_, err = ph.Parse(fp.String())
	assert.ErrorIs(t, err, ErrIncompatible)

	_, err = ph.Parse("not-a-hash")
	assert.ErrorIs(t, err, ErrIncompatible)
}

func TestPerceptual_DecodeFailure(t *testing.T) {
	p, err := New("phash")
	require.NoError(t, err)
	_, err = p.Compute(context.Background(), []byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestNew_DefaultAndUnknown(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "goimagehash:phash-64", p.ID())

	_, err = New("sift")
	assert.Error(t, err)
}
