package composite

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 108, 192))
	for y := 0; y < 192; y++ {
		for x := 0; x < 108; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func decodeArtifact(t *testing.T, artifact []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(artifact))
	require.NoError(t, err)
	return img
}

// slotCenter returns the canvas coordinates of the middle of a slot.
func slotCenter(slot int) (int, int) {
	y := slotTop + float64(slot)*(slotHeight+slotSpacing) + slotHeight/2
	return Width / 2, int(y)
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultBrand())
	require.NoError(t, err)
	return r
}

func TestComposeProducesFixedResolutionPNG(t *testing.T) {
	r := newTestRenderer(t)

	frames := []image.Image{
		solidFrame(color.RGBA{R: 255, A: 255}),
		solidFrame(color.RGBA{G: 255, A: 255}),
		solidFrame(color.RGBA{B: 255, A: 255}),
	}
	artifact, err := r.Compose(context.Background(), frames)
	require.NoError(t, err)

	img := decodeArtifact(t, artifact)
	assert.Equal(t, Width, img.Bounds().Dx())
	assert.Equal(t, Height, img.Bounds().Dy())
}

func TestComposeFillsSlotsInCaptureOrder(t *testing.T) {
	r := newTestRenderer(t)

	frames := []image.Image{
		solidFrame(color.RGBA{R: 200, A: 255}),
		solidFrame(color.RGBA{G: 200, A: 255}),
		solidFrame(color.RGBA{B: 200, A: 255}),
	}
	artifact, err := r.Compose(context.Background(), frames)
	require.NoError(t, err)
	img := decodeArtifact(t, artifact)

	tests := []struct {
		slot     int
		dominant func(r, g, b uint32) bool
	}{
		{0, func(r, g, b uint32) bool { return r > g && r > b }},
		{1, func(r, g, b uint32) bool { return g > r && g > b }},
		{2, func(r, g, b uint32) bool { return b > r && b > g }},
	}
	for _, tt := range tests {
		x, y := slotCenter(tt.slot)
		cr, cg, cb, _ := img.At(x, y).RGBA()
		assert.True(t, tt.dominant(cr, cg, cb), "slot %d has wrong frame: r=%d g=%d b=%d", tt.slot, cr, cg, cb)
	}
}

func TestComposeLayoutIsStableAcrossRuns(t *testing.T) {
	r := newTestRenderer(t)

	frames := []image.Image{
		solidFrame(color.RGBA{R: 200, A: 255}),
		solidFrame(color.RGBA{G: 200, A: 255}),
		solidFrame(color.RGBA{B: 200, A: 255}),
	}

	first, err := r.Compose(context.Background(), frames)
	require.NoError(t, err)
	second, err := r.Compose(context.Background(), frames)
	require.NoError(t, err)

	// Grain noise varies run to run, but slot contents must not.
	a, b := decodeArtifact(t, first), decodeArtifact(t, second)
	for slot := 0; slot < SlotCount; slot++ {
		x, y := slotCenter(slot)
		assert.Equal(t, a.At(x, y), b.At(x, y), "slot %d", slot)
	}
}

func TestComposeSubstitutesBlankSlotForMissingFrame(t *testing.T) {
	r := newTestRenderer(t)

	frames := []image.Image{
		solidFrame(color.RGBA{R: 255, A: 255}),
		nil,
		solidFrame(color.RGBA{B: 255, A: 255}),
	}
	artifact, err := r.Compose(context.Background(), frames)
	require.NoError(t, err, "one bad frame must not fail the composition")
	require.NotEmpty(t, artifact)
}

func TestComposeTreatsZeroSizeFrameAsMissing(t *testing.T) {
	r := newTestRenderer(t)

	frames := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 0, 0)),
		solidFrame(color.RGBA{G: 255, A: 255}),
		solidFrame(color.RGBA{B: 255, A: 255}),
	}
	_, err := r.Compose(context.Background(), frames)
	require.NoError(t, err)
}

func TestComposeNoUsableFramesStillYieldsArtifact(t *testing.T) {
	r := newTestRenderer(t)

	artifact, err := r.Compose(context.Background(), []image.Image{nil, nil, nil})
	require.ErrorIs(t, err, ErrCompositionIncomplete)
	require.NotEmpty(t, artifact, "best-effort artifact expected even with no frames")

	img := decodeArtifact(t, artifact)
	assert.Equal(t, Width, img.Bounds().Dx())
}

func TestComposeHonorsCancellation(t *testing.T) {
	r := newTestRenderer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Compose(ctx, []image.Image{solidFrame(color.RGBA{A: 255})})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadBrandDefaults(t *testing.T) {
	brand, err := LoadBrand("")
	require.NoError(t, err)
	assert.Equal(t, "ZONAR", brand.Wordmark)
	assert.Equal(t, "ZAGREB", brand.Subline)
	assert.Equal(t, "#ZonarMoments", brand.Watermark)
}

func TestLoadBrandPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brand.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wordmark: ESPLANADE\nsubline: OSIJEK\n"), 0644))

	brand, err := LoadBrand(path)
	require.NoError(t, err)
	assert.Equal(t, "ESPLANADE", brand.Wordmark)
	assert.Equal(t, "OSIJEK", brand.Subline)
	assert.Equal(t, "#ZonarMoments", brand.Watermark, "unset keys keep defaults")
}

func TestHexRGB(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b float64
	}{
		{"#FFFFFF", 1, 1, 1},
		{"#000000", 0, 0, 0},
		{"not-a-color", 0, 0, 0},
		{"", 0, 0, 0},
	}
	for _, tt := range tests {
		r, g, b := hexRGB(tt.in)
		assert.InDelta(t, tt.r, r, 0.01, tt.in)
		assert.InDelta(t, tt.g, g, 0.01, tt.in)
		assert.InDelta(t, tt.b, b, 0.01, tt.in)
	}
}
