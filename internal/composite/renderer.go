// Package composite renders the final branded polaroid: three captured
// frames stacked on textured paper with a brand panel at the foot, as one
// 1080×1920 PNG held in memory.
package composite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrCompositionIncomplete indicates no usable frame was supplied. The
// renderer still returns a best-effort artifact alongside it.
var ErrCompositionIncomplete = errors.New("composition incomplete")

// Polaroid geometry. Fixed by the experience design.
const (
	Width  = 1080
	Height = 1920

	slotMargin   = 80.0
	slotHeight   = 400.0
	slotSpacing  = 60.0
	slotTop      = 180.0
	cornerRadius = 20.0

	panelHeight = 200.0
	grainSpecks = 5000
)

// SlotCount is the number of photos on a polaroid.
const SlotCount = 3

// Renderer composes captured frames into the branded artifact.
type Renderer struct {
	brand Brand

	wordmarkFace  font.Face
	sublineFace   font.Face
	watermarkFace font.Face
}

// NewRenderer builds a renderer for the given brand.
func NewRenderer(brand Brand) (*Renderer, error) {
	wordmark, err := loadFace(gobold.TTF, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to load wordmark face: %w", err)
	}
	subline, err := loadFace(goregular.TTF, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to load subline face: %w", err)
	}
	watermark, err := loadFace(goregular.TTF, 22)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark face: %w", err)
	}

	return &Renderer{
		brand:         brand,
		wordmarkFace:  wordmark,
		sublineFace:   subline,
		watermarkFace: watermark,
	}, nil
}

// Compose lays out up to SlotCount frames and the brand panel and encodes
// the result as PNG. Missing or degenerate frames become blank slots; if no
// frame is usable the best-effort artifact is returned together with
// ErrCompositionIncomplete. Slot order always matches frame order.
func (r *Renderer) Compose(ctx context.Context, frames []image.Image) ([]byte, error) {
	dc := gg.NewContext(Width, Height)

	// Paper background with a sparse grain for a tactile feel. The grain is
	// the one non-deterministic element of the render.
	dc.SetHexColor(r.brand.Background)
	dc.Clear()
	ar, ag, ab := hexRGB(r.brand.Accent)
	dc.SetRGBA(ar, ag, ab, 0.03)
	for i := 0; i < grainSpecks; i++ {
		dc.DrawRectangle(rand.Float64()*Width, rand.Float64()*Height, 1, 1)
		dc.Fill()
	}

	usable := 0
	for slot := 0; slot < SlotCount; slot++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var frame image.Image
		if slot < len(frames) {
			frame = frames[slot]
		}
		if frame != nil {
			if b := frame.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
				frame = nil
			}
		}
		if frame != nil {
			usable++
		}
		r.drawSlot(dc, slot, frame)
	}

	// Brand panel is always drawn last so no slot shadow occludes it.
	r.drawBrandPanel(dc)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	if usable == 0 {
		return buf.Bytes(), ErrCompositionIncomplete
	}
	return buf.Bytes(), nil
}

// drawSlot renders one rounded, shadowed photo slot. A nil frame leaves a
// blank tinted slot in place of the photo.
func (r *Renderer) drawSlot(dc *gg.Context, slot int, frame image.Image) {
	ar, ag, ab := hexRGB(r.brand.Accent)
	x := slotMargin
	y := slotTop + float64(slot)*(slotHeight+slotSpacing)
	w := float64(Width) - 2*slotMargin
	h := slotHeight

	// Soft shadow under the slot, faked with expanding translucent passes.
	for i := 4; i >= 1; i-- {
		grow := float64(i) * 6
		dc.SetRGBA(ar, ag, ab, 0.3/float64(i*4))
		dc.DrawRoundedRectangle(x-grow, y+15-grow, w+2*grow, h+2*grow, cornerRadius+grow)
		dc.Fill()
	}

	dc.DrawRoundedRectangle(x, y, w, h, cornerRadius)
	dc.Clip()
	if frame == nil {
		dc.SetRGBA(ar, ag, ab, 0.06)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
	} else {
		drawCoverFit(dc, frame, x, y, w, h)
	}
	dc.ResetClip()
}

// drawCoverFit scales the frame to fill the slot preserving aspect ratio,
// center-cropping the overflow. Width-first vs height-first scaling follows
// the aspect comparison so no letterboxing can occur.
func drawCoverFit(dc *gg.Context, frame image.Image, x, y, w, h float64) {
	b := frame.Bounds()
	frameAspect := float64(b.Dx()) / float64(b.Dy())
	slotAspect := w / h

	var dw, dh float64
	if frameAspect > slotAspect {
		dh = h
		dw = h * frameAspect
	} else {
		dw = w
		dh = w / frameAspect
	}

	scaled := resize.Resize(uint(dw+0.5), uint(dh+0.5), frame, resize.Lanczos3)
	dc.DrawImage(scaled, int(x-(dw-w)/2+0.5), int(y-(dh-h)/2+0.5))
}

// drawBrandPanel renders the accent line, gradient panel and centered brand
// text block at the foot of the polaroid.
func (r *Renderer) drawBrandPanel(dc *gg.Context) {
	ar, ag, ab := hexRGB(r.brand.Accent)
	panelY := float64(Height) - panelHeight

	// Accent line above the panel
	line := gg.NewLinearGradient(0, panelY-5, 0, panelY)
	line.AddColorStop(0, rgba(ar, ag, ab, 0.6))
	line.AddColorStop(1, rgba(ar, ag, ab, 0.2))
	dc.SetFillStyle(line)
	dc.DrawRectangle(0, panelY-5, Width, 5)
	dc.Fill()

	// Panel background
	panel := gg.NewLinearGradient(0, panelY, 0, panelY+panelHeight)
	panel.AddColorStop(0, rgba(ar, ag, ab, 0.08))
	panel.AddColorStop(1, rgba(ar, ag, ab, 0.03))
	dc.SetFillStyle(panel)
	dc.DrawRectangle(0, panelY, Width, panelHeight)
	dc.Fill()

	// Wordmark
	dc.SetFontFace(r.wordmarkFace)
	dc.SetRGBA(ar, ag, ab, 1)
	dc.DrawStringAnchored(r.brand.Wordmark, Width/2, panelY+75, 0.5, 0)

	// Tracked subline
	dc.SetFontFace(r.sublineFace)
	drawTracked(dc, r.brand.Subline, Width/2, panelY+115, 8)

	// Watermark
	dc.SetFontFace(r.watermarkFace)
	dc.SetRGBA(ar, ag, ab, 0.5)
	dc.DrawStringAnchored(r.brand.Watermark, Width/2, panelY+160, 0.5, 0)
}

// drawTracked draws s centered on cx with extra tracking between runes,
// baseline at y.
func drawTracked(dc *gg.Context, s string, cx, y, tracking float64) {
	runes := []rune(s)
	if len(runes) == 0 {
		return
	}

	total := 0.0
	for _, ru := range runes {
		w, _ := dc.MeasureString(string(ru))
		total += w + tracking
	}
	total -= tracking

	x := cx - total/2
	for _, ru := range runes {
		w, _ := dc.MeasureString(string(ru))
		dc.DrawString(string(ru), x, y)
		x += w + tracking
	}
}

func loadFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func rgba(r, g, b, a float64) color.Color {
	return color.NRGBA{
		R: uint8(r * 255),
		G: uint8(g * 255),
		B: uint8(b * 255),
		A: uint8(a * 255),
	}
}
