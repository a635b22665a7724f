package voice

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// Slot is the play interval of one scheduled buffer on the device clock.
type Slot struct {
	Start time.Duration
	End   time.Duration
}

type scheduledSource struct {
	Slot
	source Source
}

// Scheduler plays decoded buffers back to back on an output device.
//
// Each buffer starts at max(nextStart, now) and pushes nextStart forward by
// its duration, so bursts queue seamlessly and a stalled stream resumes
// immediately instead of waiting for a stale start time. Interrupt stops
// everything pending and resets nextStart to zero.
//
// Back-to-back buffers are placed by counting samples from the start of the
// current run, so rounding never accumulates into a gap or an overlap.
//
// All methods are safe for concurrent use.
type Scheduler struct {
	mu        sync.Mutex
	logger    *zap.Logger
	device    OutputDevice
	nextStart time.Duration
	active    []scheduledSource

	// The current run of contiguous buffers.
	runStart   time.Duration
	runSamples int64
	runRate    int
}

// NewScheduler creates a scheduler over device. A nil device is allowed and
// makes every Enqueue fail with *PlaybackDeviceError.
func NewScheduler(device OutputDevice, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		device: device,
	}
}

// Enqueue schedules buf after everything already queued and returns its start
// time. On failure the schedule is left untouched.
func (s *Scheduler) Enqueue(buf audio.PlaybackBuffer) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return 0, &PlaybackDeviceError{Err: ErrNoOutputDevice}
	}

	now := s.device.Now()
	s.pruneLocked(now)

	runStart, runSamples, runRate := s.runStart, s.runSamples, s.runRate
	if now > s.nextStart || buf.SampleRate != runRate {
		runStart, runSamples, runRate = max(s.nextStart, now), 0, buf.SampleRate
	}

	start := runStart + samplesToDuration(runSamples, runRate)
	src, err := s.device.Schedule(buf, start)
	if err != nil {
		return 0, &PlaybackDeviceError{Err: err}
	}

	runSamples += int64(buf.Frames())
	end := runStart + samplesToDuration(runSamples, runRate)
	s.runStart, s.runSamples, s.runRate = runStart, runSamples, runRate
	s.active = append(s.active, scheduledSource{Slot: Slot{Start: start, End: end}, source: src})
	s.nextStart = end

	s.logger.Debug("Scheduled playback buffer",
		zap.Duration("start", start),
		zap.Duration("duration", buf.Duration()),
		zap.Int("queued", len(s.active)))

	return start, nil
}

// Interrupt stops every scheduled or playing buffer and resets the schedule.
// It returns how many buffers were stopped; calling it on an empty schedule
// is a no-op.
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.interruptLocked()
}

func (s *Scheduler) interruptLocked() int {
	n := len(s.active)
	for _, a := range s.active {
		a.source.Stop()
	}
	s.active = nil
	s.nextStart = 0
	s.runStart, s.runSamples, s.runRate = 0, 0, 0
	return n
}

// Teardown interrupts playback and releases the output device. Later
// Enqueue calls fail with *PlaybackDeviceError.
func (s *Scheduler) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interruptLocked()
	if s.device == nil {
		return nil
	}

	err := s.device.Close()
	s.device = nil
	if err != nil {
		return &PlaybackDeviceError{Err: err}
	}
	return nil
}

// NextStart returns the earliest time the next buffer may start.
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextStart
}

// Slots returns the intervals of buffers that have not finished playing, in
// scheduling order.
func (s *Scheduler) Slots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device != nil {
		s.pruneLocked(s.device.Now())
	}
	out := make([]Slot, len(s.active))
	for i, a := range s.active {
		out[i] = a.Slot
	}
	return out
}

// Active returns how many buffers are still scheduled or playing.
func (s *Scheduler) Active() int {
	return len(s.Slots())
}

// pruneLocked forgets buffers that finished before now.
func (s *Scheduler) pruneLocked(now time.Duration) {
	i := 0
	for i < len(s.active) && s.active[i].End <= now {
		i++
	}
	if i > 0 {
		s.active = append(s.active[:0], s.active[i:]...)
	}
}

// samplesToDuration truncates to whole nanoseconds. The error never exceeds
// one nanosecond because it is always computed from the run start.
func samplesToDuration(n int64, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}
