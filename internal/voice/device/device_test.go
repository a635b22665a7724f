package device

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

func ramp(from, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(from+i) / 100
	}
	return out
}

func TestFrameAssembler(t *testing.T) {
	tests := map[string]struct {
		size       int
		periods    []int
		wantFrames int
		wantLeft   int
	}{
		"exact_periods":      {size: 4, periods: []int{4, 4}, wantFrames: 2, wantLeft: 0},
		"small_periods":      {size: 4, periods: []int{3, 3, 3}, wantFrames: 2, wantLeft: 1},
		"large_period":       {size: 4, periods: []int{10}, wantFrames: 2, wantLeft: 2},
		"nothing_complete":   {size: 8, periods: []int{2, 2}, wantFrames: 0, wantLeft: 4},
		"default_frame_size": {size: 0, periods: []int{audio.CaptureFrameSize}, wantFrames: 1, wantLeft: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			a := newFrameAssembler(tt.size, 16000)

			var frames []audio.AudioFrame
			next := 0
			for _, n := range tt.periods {
				frames = append(frames, a.push(ramp(next, n))...)
				next += n
			}

			require.Len(t, frames, tt.wantFrames)
			assert.Len(t, a.pending, tt.wantLeft)

			// Samples come out in capture order, split on frame boundaries.
			var flat []float32
			for _, f := range frames {
				assert.Len(t, f.Samples, a.size)
				assert.Equal(t, 16000, f.SampleRate)
				flat = append(flat, f.Samples...)
			}
			assert.Equal(t, ramp(0, len(flat)), flat)
		})
	}
}

func TestFrameAssembler_FramesDoNotAlias(t *testing.T) {
	a := newFrameAssembler(2, 16000)
	first := a.push([]float32{1, 2})
	second := a.push([]float32{3, 4})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, []float32{1, 2}, first[0].Samples)
	assert.Equal(t, []float32{3, 4}, second[0].Samples)
}

type fakePlayer struct {
	closes int
	err    error
}

func (p *fakePlayer) Close() error {
	p.closes++
	return p.err
}

func TestOutput_Schedule(t *testing.T) {
	tl := audio.NewTimeline(24000)
	player := &fakePlayer{}
	out := newOutput(tl, player)

	src, err := out.Schedule(audio.PlaybackBuffer{Samples: make([]float32, 2400), SampleRate: 24000}, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, tl.Len())

	// Drain 100ms; the buffer plays from 50ms to 150ms.
	buf := make([]byte, 2400*2)
	_, _ = tl.Read(buf)
	assert.Equal(t, 100*time.Millisecond, out.Now())
	assert.Equal(t, 1, tl.Len())

	src.Stop()
	assert.Equal(t, 0, tl.Len())
}

func TestOutput_RateMismatch(t *testing.T) {
	out := newOutput(audio.NewTimeline(24000), &fakePlayer{})

	_, err := out.Schedule(audio.PlaybackBuffer{Samples: make([]float32, 10), SampleRate: 16000}, 0)
	assert.ErrorIs(t, err, ErrRateMismatch)
}

func TestOutput_Close(t *testing.T) {
	tl := audio.NewTimeline(24000)
	player := &fakePlayer{err: errors.New("device gone")}
	out := newOutput(tl, player)

	_, err := out.Schedule(audio.PlaybackBuffer{Samples: make([]float32, 10), SampleRate: 24000}, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, out.Close(), player.err)
	assert.Equal(t, 0, tl.Len())
	assert.NoError(t, out.Close())
	assert.Equal(t, 1, player.closes)

	_, err = out.Schedule(audio.PlaybackBuffer{Samples: make([]float32, 10), SampleRate: 24000}, 0)
	assert.ErrorIs(t, err, voice.ErrNoOutputDevice)
}

func TestOutput_DrivesScheduler(t *testing.T) {
	tl := audio.NewTimeline(24000)
	s := voice.NewScheduler(newOutput(tl, &fakePlayer{}), zaptest.NewLogger(t))

	chunk := audio.PlaybackBuffer{Samples: make([]float32, 2400), SampleRate: 24000}
	for range 3 {
		_, err := s.Enqueue(chunk)
		require.NoError(t, err)
	}
	assert.Equal(t, 300*time.Millisecond, s.NextStart())

	_, _ = tl.Read(make([]byte, 2400*2))
	assert.Equal(t, 2, s.Active())

	assert.Equal(t, 2, s.Interrupt())
	assert.Equal(t, 0, tl.Len())
}
