package capture

import (
	"image"
	"image/color"
)

// Placeholder returns a deterministic portrait frame used when the camera is
// unavailable or a grab fails. Each shot gets a slightly different tone so
// the composed polaroid still reads as three distinct photos.
func Placeholder(shot int) image.Image {
	const w, h = 1080, 1920

	// Anthracite tones, brightening a touch per shot.
	base := uint8(42 + (shot-1)*8)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// Vertical gradient toward a lighter foot.
		v := base + uint8(y*28/h)
		row := color.RGBA{R: v, G: v, B: v + 6, A: 255}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, row)
		}
	}
	return img
}
