package audio

import (
	"sync"
	"time"
)

// Timeline mixes mono buffers scheduled at absolute positions on a shared
// sample clock and renders them as signed 16-bit little-endian PCM.
//
// The clock only advances when Read consumes samples, so whoever pulls from
// the timeline (an oto player in production, a test otherwise) defines time.
// Gaps between scheduled buffers render as silence.
type Timeline struct {
	mu sync.Mutex

	rate    int
	pos     int64 // samples rendered so far
	nextID  uint64
	sources map[uint64]*timelineSource

	// Mix accumulator, reused between reads.
	scratch []float32
}

// timelineSource is one scheduled buffer.
//
// start – absolute sample index at which the first sample plays
// samples – normalized mono samples
type timelineSource struct {
	start   int64
	samples []float32
}

func (s *timelineSource) end() int64 {
	return s.start + int64(len(s.samples))
}

// NewTimeline creates an empty timeline clocked at sampleRate.
func NewTimeline(sampleRate int) *Timeline {
	if sampleRate <= 0 {
		sampleRate = PlaybackSampleRate
	}
	return &Timeline{
		rate:    sampleRate,
		sources: make(map[uint64]*timelineSource),
	}
}

// SampleRate returns the clock rate in Hz.
func (t *Timeline) SampleRate() int {
	return t.rate
}

// Now returns the playback position as a duration since the first sample.
func (t *Timeline) Now() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.samplesToDuration(t.pos)
}

// Add schedules samples to start at the given clock time and returns a
// handle for Remove. Start times already in the past play immediately.
func (t *Timeline) Add(samples []float32, at time.Duration) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.durationToSamples(at)
	if start < t.pos {
		start = t.pos
	}

	t.nextID++
	t.sources[t.nextID] = &timelineSource{start: start, samples: samples}
	return t.nextID
}

// Remove stops a scheduled or playing buffer. It reports whether the buffer
// was still pending.
func (t *Timeline) Remove(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.sources[id]
	delete(t.sources, id)
	return ok
}

// Clear removes every scheduled buffer. The clock keeps running.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.sources)
}

// Len returns the number of buffers that have not finished playing.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.sources)
}

// Read renders the next len(p)/2 samples into p and advances the clock.
// It never blocks and never returns an error.
func (t *Timeline) Read(p []byte) (int, error) {
	n := len(p) / 2
	if n == 0 {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if cap(t.scratch) < n {
		t.scratch = make([]float32, n)
	}
	mix := t.scratch[:n]
	clear(mix)

	winStart, winEnd := t.pos, t.pos+int64(n)
	for id, src := range t.sources {
		if src.end() <= winStart {
			delete(t.sources, id)
			continue
		}
		if src.start >= winEnd {
			continue
		}

		from := max(src.start, winStart)
		to := min(src.end(), winEnd)
		for i := from; i < to; i++ {
			mix[i-winStart] += src.samples[i-src.start]
		}
		if src.end() <= winEnd {
			delete(t.sources, id)
		}
	}

	for i, v := range mix {
		s := FloatToPCM16(v)
		p[2*i] = byte(s)
		p[2*i+1] = byte(uint16(s) >> 8)
	}

	t.pos = winEnd
	return n * 2, nil
}

func (t *Timeline) samplesToDuration(n int64) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(t.rate)
}

func (t *Timeline) durationToSamples(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	// Round to the nearest sample.
	return (int64(d)*int64(t.rate) + int64(time.Second)/2) / int64(time.Second)
}
