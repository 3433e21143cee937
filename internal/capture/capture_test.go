package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastTimings() Timings {
	return Timings{
		PreRoll:       time.Millisecond,
		CountdownStep: time.Millisecond,
		InterShot:     time.Millisecond,
		Settle:        time.Millisecond,
	}
}

// fakeSource is a scriptable FrameSource.
type fakeSource struct {
	mu      sync.Mutex
	openErr error
	grabErr map[int]error // per-grab failures, 1-based
	frame   image.Image
	grabs   int
	closes  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		frame:   image.NewRGBA(image.Rect(0, 0, 108, 192)),
		grabErr: map[int]error{},
	}
}

func (f *fakeSource) Open(ctx context.Context, hint Resolution) error {
	return f.openErr
}

func (f *fakeSource) Grab(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grabs++
	if err := f.grabErr[f.grabs]; err != nil {
		return nil, err
	}
	return f.frame, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeSource) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func TestRunCapturesExactlyThreeFrames(t *testing.T) {
	src := newFakeSource()
	engine := NewEngine(src, fastTimings())

	var ticks, shots []int
	engine.OnTick = func(shot, remaining int) { ticks = append(ticks, remaining) }
	engine.OnShot = func(shot int) { shots = append(shots, shot) }

	frames, err := engine.Run(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for _, frame := range frames {
		require.NotNil(t, frame)
	}

	assert.Equal(t, []int{3, 2, 1, 3, 2, 1, 3, 2, 1}, ticks)
	assert.Equal(t, []int{1, 2, 3}, shots)
	assert.False(t, engine.Degraded())
	assert.Equal(t, 1, src.closeCount())
}

func TestRunDegradedModeOnOpenFailure(t *testing.T) {
	src := newFakeSource()
	src.openErr = ErrDeviceUnavailable
	engine := NewEngine(src, fastTimings())

	frames, err := engine.Run(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.True(t, engine.Degraded())
	assert.Equal(t, 0, src.grabs, "degraded mode must not touch the source")
	assert.Equal(t, 1, src.closeCount(), "device released even when open failed")
}

func TestRunSubstitutesPlaceholderForFailedGrab(t *testing.T) {
	src := newFakeSource()
	src.grabErr[2] = errors.New("sensor glitch")
	engine := NewEngine(src, fastTimings())

	frames, err := engine.Run(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, frames, 3)

	// Shot 2 is the placeholder; shots 1 and 3 come from the source.
	assert.Equal(t, src.frame, frames[0])
	assert.NotEqual(t, src.frame, frames[1])
	assert.Equal(t, src.frame, frames[2])
	assert.False(t, engine.Degraded())
}

func TestRunSubstitutesPlaceholderForZeroSizeFrame(t *testing.T) {
	src := newFakeSource()
	src.frame = image.NewRGBA(image.Rect(0, 0, 0, 0))
	engine := NewEngine(src, fastTimings())

	frames, err := engine.Run(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for _, frame := range frames {
		b := frame.Bounds()
		assert.Positive(t, b.Dx())
		assert.Positive(t, b.Dy())
	}
}

func TestRunCancellationReleasesDevice(t *testing.T) {
	src := newFakeSource()
	timings := fastTimings()
	timings.CountdownStep = time.Hour // park the sequence in the countdown
	engine := NewEngine(src, timings)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := engine.Run(ctx, 3)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop on cancellation")
	}
	assert.Equal(t, 1, src.closeCount())
}

func TestPlaceholderIsPortrait(t *testing.T) {
	for shot := 1; shot <= 3; shot++ {
		b := Placeholder(shot).Bounds()
		assert.Equal(t, 1080, b.Dx())
		assert.Equal(t, 1920, b.Dy())
	}
}
