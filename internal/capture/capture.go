// Package capture drives the lift camera through the three-shot countdown
// sequence. The camera unit is abstracted behind FrameSource; when it cannot
// be opened the engine runs the same sequence in degraded mode with
// placeholder frames so the guest experience never dead-ends on hardware.
package capture

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"
)

// ErrDeviceUnavailable indicates the camera unit denied access or is absent.
var ErrDeviceUnavailable = errors.New("camera unavailable")

// Resolution is a portrait-oriented size hint for the camera unit.
type Resolution struct {
	Width  int
	Height int
}

// PortraitHint is the designed capture resolution.
var PortraitHint = Resolution{Width: 1080, Height: 1920}

// FrameSource is a live still-frame provider, usually the lift camera unit.
type FrameSource interface {
	// Open acquires the device with a resolution hint. It returns
	// ErrDeviceUnavailable (possibly wrapped) when access is denied.
	Open(ctx context.Context, hint Resolution) error

	// Grab captures one still frame at the source's current native size.
	Grab(ctx context.Context) (image.Image, error)

	// Close releases the device. Idempotent, safe even if Open failed.
	Close() error
}

// Timings are the delays of the capture choreography.
type Timings struct {
	PreRoll       time.Duration // before the first countdown
	CountdownStep time.Duration // per countdown tick
	InterShot     time.Duration // between shots
	Settle        time.Duration // after the final shot
}

// DefaultTimings returns the designed experience timings.
func DefaultTimings() Timings {
	return Timings{
		PreRoll:       time.Second,
		CountdownStep: time.Second,
		InterShot:     1500 * time.Millisecond,
		Settle:        500 * time.Millisecond,
	}
}

// Engine runs the countdown-driven shot sequence against a FrameSource.
type Engine struct {
	source  FrameSource
	timings Timings
	hint    Resolution

	// OnTick is called for each countdown step (3, 2, 1) of each shot.
	OnTick func(shot, remaining int)
	// OnShot is called after each shot is captured.
	OnShot func(shot int)

	degraded bool
}

// NewEngine creates an engine around the given source.
func NewEngine(source FrameSource, timings Timings) *Engine {
	return &Engine{
		source:  source,
		timings: timings,
		hint:    PortraitHint,
	}
}

// Degraded reports whether the engine is substituting placeholder imagery.
func (e *Engine) Degraded() bool {
	return e.degraded
}

// Run executes the full sequence and returns exactly shots frames in capture
// order. Device-open failure switches to degraded mode rather than aborting;
// individual grab failures substitute a placeholder for that shot only. The
// only error Run returns is ctx cancellation, and the device is released on
// every path.
func (e *Engine) Run(ctx context.Context, shots int) ([]image.Image, error) {
	if err := e.source.Open(ctx, e.hint); err != nil {
		slog.Warn("Camera access failed, continuing in degraded mode", "err", err)
		e.degraded = true
	}
	defer func() {
		if err := e.source.Close(); err != nil {
			slog.Error("Unable to release camera", "err", err)
		}
	}()

	frames := make([]image.Image, 0, shots)
	for shot := 1; shot <= shots; shot++ {
		delay := e.timings.PreRoll
		if shot > 1 {
			delay = e.timings.InterShot
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}

		for remaining := 3; remaining >= 1; remaining-- {
			if e.OnTick != nil {
				e.OnTick(shot, remaining)
			}
			if err := sleep(ctx, e.timings.CountdownStep); err != nil {
				return nil, err
			}
		}

		frames = append(frames, e.grab(ctx, shot))
		if e.OnShot != nil {
			e.OnShot(shot)
		}
	}

	if err := sleep(ctx, e.timings.Settle); err != nil {
		return nil, err
	}
	return frames, nil
}

// grab captures one frame, substituting a placeholder for any per-shot
// failure or degenerate (zero-size) frame.
func (e *Engine) grab(ctx context.Context, shot int) image.Image {
	if e.degraded {
		return Placeholder(shot)
	}

	img, err := e.source.Grab(ctx)
	if err != nil {
		slog.Warn("Frame grab failed, substituting placeholder", "shot", shot, "err", err)
		return Placeholder(shot)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		slog.Warn("Source not ready, substituting placeholder", "shot", shot)
		return Placeholder(shot)
	}
	return img
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
