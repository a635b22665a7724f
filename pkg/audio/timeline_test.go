package audio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// readSamples pulls n samples from the timeline and returns them as int16.
func readSamples(t testing.TB, tl *audio.Timeline, n int) []int16 {
	t.Helper()
	buf := make([]byte, n*2)
	read, err := tl.Read(buf)
	require.NoError(t, err)
	require.Equal(t, n*2, read)
	return audio.LEToPCMInt16(buf)
}

func constant(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTimeline_ClockAdvancesWithReads(t *testing.T) {
	tl := audio.NewTimeline(1000)
	assert.Equal(t, time.Duration(0), tl.Now())

	readSamples(t, tl, 250)
	assert.Equal(t, 250*time.Millisecond, tl.Now())

	readSamples(t, tl, 750)
	assert.Equal(t, time.Second, tl.Now())
}

func TestTimeline_RendersAtScheduledOffset(t *testing.T) {
	tl := audio.NewTimeline(1000)
	tl.Add(constant(4, 0.5), 3*time.Millisecond)

	out := readSamples(t, tl, 10)

	assert.Equal(t, []int16{0, 0, 0, 16384, 16384, 16384, 16384, 0, 0, 0}, out)
	assert.Equal(t, 0, tl.Len(), "finished buffers are dropped")
}

func TestTimeline_BackToBackBuffersDoNotOverlap(t *testing.T) {
	tl := audio.NewTimeline(1000)
	tl.Add(constant(2, 0.25), 0)
	tl.Add(constant(2, -0.25), 2*time.Millisecond)

	out := readSamples(t, tl, 5)

	assert.Equal(t, []int16{8192, 8192, -8192, -8192, 0}, out)
}

func TestTimeline_SpansMultipleReads(t *testing.T) {
	tl := audio.NewTimeline(1000)
	tl.Add(constant(6, 0.5), time.Millisecond)

	first := readSamples(t, tl, 4)
	assert.Equal(t, []int16{0, 16384, 16384, 16384}, first)
	assert.Equal(t, 1, tl.Len())

	second := readSamples(t, tl, 4)
	assert.Equal(t, []int16{16384, 16384, 16384, 0}, second)
	assert.Equal(t, 0, tl.Len())
}

func TestTimeline_PastStartPlaysImmediately(t *testing.T) {
	tl := audio.NewTimeline(1000)
	readSamples(t, tl, 10)

	tl.Add(constant(2, 0.5), 0)

	out := readSamples(t, tl, 3)
	assert.Equal(t, []int16{16384, 16384, 0}, out)
}

func TestTimeline_RemoveSilencesBuffer(t *testing.T) {
	tl := audio.NewTimeline(1000)
	id := tl.Add(constant(10, 0.5), 0)

	readSamples(t, tl, 2)
	assert.True(t, tl.Remove(id))
	assert.False(t, tl.Remove(id), "second remove reports nothing pending")

	out := readSamples(t, tl, 3)
	assert.Equal(t, []int16{0, 0, 0}, out)
}

func TestTimeline_ClearKeepsClock(t *testing.T) {
	tl := audio.NewTimeline(1000)
	tl.Add(constant(10, 0.5), 0)
	tl.Add(constant(10, 0.5), 20*time.Millisecond)
	readSamples(t, tl, 5)

	tl.Clear()

	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, 5*time.Millisecond, tl.Now())
}

func TestTimeline_MixSaturates(t *testing.T) {
	tl := audio.NewTimeline(1000)
	tl.Add(constant(1, 0.8), 0)
	tl.Add(constant(1, 0.8), 0)

	out := readSamples(t, tl, 1)
	assert.Equal(t, []int16{32767}, out)
}

func TestTimeline_ZeroLengthRead(t *testing.T) {
	tl := audio.NewTimeline(1000)
	n, err := tl.Read(make([]byte, 1))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, time.Duration(0), tl.Now())
}
