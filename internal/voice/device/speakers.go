package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// playerBuffer bounds how far the oto player reads ahead of the speaker.
const playerBuffer = 100 * time.Millisecond

// ErrRateMismatch is returned when a buffer or a second Open asks for a rate
// other than the one the output runs at.
var ErrRateMismatch = errors.New("sample rate does not match the output device")

var _ voice.Speakers = (*Speakers)(nil)

// Speakers plays audio through oto. oto allows a single context per process,
// so the context is created on first Open and reused afterwards.
type Speakers struct {
	logger *zap.Logger

	mu     sync.Mutex
	otoCtx *oto.Context
	rate   int
}

// NewSpeakers creates Speakers.
func NewSpeakers(logger *zap.Logger) *Speakers {
	return &Speakers{logger: logger.Named("speakers")}
}

// Open starts a player over a fresh timeline.
func (s *Speakers) Open(sampleRate int) (voice.OutputDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.otoCtx == nil {
		otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: audio.PlaybackChannels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			return nil, &voice.PlaybackDeviceError{Err: fmt.Errorf("create audio context: %w", err)}
		}
		<-ready
		s.otoCtx = otoCtx
		s.rate = sampleRate
	} else if s.rate != sampleRate {
		return nil, &voice.PlaybackDeviceError{Err: fmt.Errorf("%w: want %d Hz, running at %d Hz", ErrRateMismatch, sampleRate, s.rate)}
	}

	if err := s.otoCtx.Resume(); err != nil {
		return nil, &voice.PlaybackDeviceError{Err: fmt.Errorf("resume audio context: %w", err)}
	}

	timeline := audio.NewTimeline(sampleRate)
	player := s.otoCtx.NewPlayer(timeline)
	player.SetBufferSize(int(playerBuffer.Seconds()*float64(sampleRate)) * 2)
	player.Play()

	s.logger.Info("Speakers opened", zap.Int("sample_rate", sampleRate))
	return newOutput(timeline, player), nil
}

// playerCloser is the part of *oto.Player the output needs.
type playerCloser interface {
	Close() error
}

// output schedules buffers on a timeline that a running player drains.
type output struct {
	timeline *audio.Timeline
	player   playerCloser

	mu     sync.Mutex
	closed bool
}

func newOutput(timeline *audio.Timeline, player playerCloser) *output {
	return &output{timeline: timeline, player: player}
}

func (o *output) Now() time.Duration {
	return o.timeline.Now()
}

func (o *output) Schedule(buf audio.PlaybackBuffer, at time.Duration) (voice.Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, voice.ErrNoOutputDevice
	}
	if buf.SampleRate != o.timeline.SampleRate() {
		return nil, fmt.Errorf("%w: buffer is %d Hz, output is %d Hz", ErrRateMismatch, buf.SampleRate, o.timeline.SampleRate())
	}
	return &source{timeline: o.timeline, id: o.timeline.Add(buf.Samples, at)}, nil
}

// Close stops the player. The shared oto context stays alive for the next
// session.
func (o *output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	o.timeline.Clear()
	return o.player.Close()
}

type source struct {
	timeline *audio.Timeline
	id       uint64
}

func (s *source) Stop() {
	s.timeline.Remove(s.id)
}
