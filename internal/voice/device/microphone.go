package device

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// frameQueue is how many finished frames may wait for the send loop before
// new ones are dropped.
const frameQueue = 32

var _ voice.Microphone = (*Microphone)(nil)

// Microphone opens the default capture device through miniaudio.
type Microphone struct {
	logger *zap.Logger
}

// NewMicrophone creates a Microphone.
func NewMicrophone(logger *zap.Logger) *Microphone {
	return &Microphone{logger: logger.Named("microphone")}
}

// Open initializes a mono float32 capture device. Any failure is reported as
// a *voice.PermissionError; miniaudio does not distinguish a denied
// permission from a missing device.
func (m *Microphone) Open(sampleRate, frameSize int) (voice.CaptureStream, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &voice.PermissionError{Err: fmt.Errorf("init audio context: %w", err)}
	}

	c := &capture{
		logger:    m.logger,
		mctx:      mctx,
		frames:    make(chan audio.AudioFrame, frameQueue),
		assembler: newFrameAssembler(frameSize, sampleRate),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = audio.CaptureChannels
	cfg.SampleRate = uint32(sampleRate)
	cfg.PeriodSizeInFrames = uint32(frameSize)
	cfg.Alsa.NoMMap = 1

	dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) { c.onSamples(input) },
	})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, &voice.PermissionError{Err: fmt.Errorf("init capture device: %w", err)}
	}
	c.device = dev

	m.logger.Info("Microphone opened",
		zap.Int("sample_rate", sampleRate),
		zap.Int("frame_size", frameSize))

	return c, nil
}

type capture struct {
	logger    *zap.Logger
	mctx      *malgo.AllocatedContext
	device    *malgo.Device
	frames    chan audio.AudioFrame
	assembler *frameAssembler

	mu      sync.Mutex
	stopped bool
	dropped int
}

func (c *capture) Start() error {
	if err := c.device.Start(); err != nil {
		return &voice.PermissionError{Err: fmt.Errorf("start capture: %w", err)}
	}
	return nil
}

func (c *capture) Frames() <-chan audio.AudioFrame {
	return c.frames
}

// onSamples runs on the audio thread and must not block.
func (c *capture) onSamples(input []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	for _, frame := range c.assembler.push(audio.LEToFloat32(input)) {
		select {
		case c.frames <- frame:
		default:
			c.dropped++
		}
	}
}

// Stop releases the device and closes Frames. It is idempotent.
func (c *capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	dropped := c.dropped
	close(c.frames)
	c.mu.Unlock()

	err := c.device.Stop()
	c.device.Uninit()
	if uerr := c.mctx.Uninit(); err == nil {
		err = uerr
	}
	c.mctx.Free()

	c.logger.Info("Microphone closed", zap.Int("dropped_frames", dropped))
	return err
}

// frameAssembler regroups device periods of arbitrary size into fixed-size
// frames.
type frameAssembler struct {
	size    int
	rate    int
	pending []float32
}

func newFrameAssembler(size, rate int) *frameAssembler {
	if size <= 0 {
		size = audio.CaptureFrameSize
	}
	return &frameAssembler{size: size, rate: rate, pending: make([]float32, 0, size)}
}

// push appends samples and returns every frame that is now complete.
func (a *frameAssembler) push(samples []float32) []audio.AudioFrame {
	var out []audio.AudioFrame
	for len(samples) > 0 {
		n := min(a.size-len(a.pending), len(samples))
		a.pending = append(a.pending, samples[:n]...)
		samples = samples[n:]

		if len(a.pending) == a.size {
			out = append(out, audio.AudioFrame{Samples: a.pending, SampleRate: a.rate})
			a.pending = make([]float32, 0, a.size)
		}
	}
	return out
}
