// Package voicetest provides deterministic fakes for the voice package's
// device and channel interfaces.
package voicetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// ScheduledBuffer records one Schedule call on FakeOutput.
type ScheduledBuffer struct {
	Buffer  audio.PlaybackBuffer
	At      time.Duration
	Stopped bool
}

// FakeOutput is an OutputDevice with a manually driven clock.
type FakeOutput struct {
	mu          sync.Mutex
	now         time.Duration
	scheduled   []*ScheduledBuffer
	closed      bool
	ScheduleErr error
	CloseErr    error
}

var _ voice.OutputDevice = (*FakeOutput)(nil)

// NewFakeOutput returns a fake output at clock zero.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// SetNow moves the clock.
func (o *FakeOutput) SetNow(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.now = d
}

// Now implements voice.OutputDevice.
func (o *FakeOutput) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

// Schedule implements voice.OutputDevice.
func (o *FakeOutput) Schedule(buf audio.PlaybackBuffer, at time.Duration) (voice.Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ScheduleErr != nil {
		return nil, o.ScheduleErr
	}
	sb := &ScheduledBuffer{Buffer: buf, At: at}
	o.scheduled = append(o.scheduled, sb)
	return &fakeSource{out: o, sb: sb}, nil
}

// Close implements voice.OutputDevice.
func (o *FakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return o.CloseErr
}

// Closed reports whether Close was called.
func (o *FakeOutput) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Scheduled returns copies of every Schedule call so far.
func (o *FakeOutput) Scheduled() []ScheduledBuffer {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]ScheduledBuffer, len(o.scheduled))
	for i, sb := range o.scheduled {
		out[i] = *sb
	}
	return out
}

type fakeSource struct {
	out *FakeOutput
	sb  *ScheduledBuffer
}

func (s *fakeSource) Stop() {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	s.sb.Stopped = true
}

// FakeSpeakers hands out a fixed FakeOutput or fails.
type FakeSpeakers struct {
	Output *FakeOutput
	Err    error
}

// Open implements voice.Speakers.
func (s *FakeSpeakers) Open(int) (voice.OutputDevice, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Output, nil
}

// FakeCapture is a CaptureStream fed by the test through Push.
type FakeCapture struct {
	mu       sync.Mutex
	frames   chan audio.AudioFrame
	started  bool
	stopped  bool
	StartErr error
	// StopCalls counts Stop invocations, including repeats.
	StopCalls int
	// OnStop runs inside the first Stop; used to check shutdown order.
	OnStop func()
}

var _ voice.CaptureStream = (*FakeCapture)(nil)

// NewFakeCapture creates a capture with a frame buffer of the given size.
func NewFakeCapture(buffer int) *FakeCapture {
	return &FakeCapture{frames: make(chan audio.AudioFrame, buffer)}
}

// Start implements voice.CaptureStream.
func (c *FakeCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StartErr != nil {
		return c.StartErr
	}
	c.started = true
	return nil
}

// Frames implements voice.CaptureStream.
func (c *FakeCapture) Frames() <-chan audio.AudioFrame {
	return c.frames
}

// Push delivers a frame as if the device produced it. It reports false when
// the capture is stopped.
func (c *FakeCapture) Push(frame audio.AudioFrame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || !c.started {
		return false
	}
	c.frames <- frame
	return true
}

// Stop implements voice.CaptureStream.
func (c *FakeCapture) Stop() error {
	c.mu.Lock()
	c.StopCalls++
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.frames)
	onStop := c.OnStop
	c.mu.Unlock()

	if onStop != nil {
		onStop()
	}
	return nil
}

// Started reports whether Start succeeded.
func (c *FakeCapture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Stopped reports whether Stop was called.
func (c *FakeCapture) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// FakeMicrophone returns a fixed capture or fails.
type FakeMicrophone struct {
	Capture *FakeCapture
	Err     error
	// OnOpen runs at the start of every Open.
	OnOpen func()

	mu    sync.Mutex
	opens int
}

// Open implements voice.Microphone.
func (m *FakeMicrophone) Open(int, int) (voice.CaptureStream, error) {
	m.mu.Lock()
	m.opens++
	onOpen := m.OnOpen
	m.mu.Unlock()

	if onOpen != nil {
		onOpen()
	}

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Capture, nil
}

// Opens returns how many times Open was called.
func (m *FakeMicrophone) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// ErrChannelClosed is returned by FakeChannel.Send after Close.
var ErrChannelClosed = errors.New("fake channel closed")

// FakeChannel is an in-memory voice.Channel.
type FakeChannel struct {
	mu       sync.Mutex
	sent     []audio.EncodedOutboundChunk
	events   chan voice.Event
	closed   bool
	SendErr  error
	CloseErr error
	// OnClose runs inside the first Close; used to check shutdown order.
	OnClose func()
}

var _ voice.Channel = (*FakeChannel)(nil)

// NewFakeChannel creates a channel with an event buffer of the given size.
func NewFakeChannel(buffer int) *FakeChannel {
	return &FakeChannel{events: make(chan voice.Event, buffer)}
}

// Send implements voice.Channel.
func (c *FakeChannel) Send(_ context.Context, chunk audio.EncodedOutboundChunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	c.sent = append(c.sent, chunk)
	return nil
}

// Events implements voice.Channel.
func (c *FakeChannel) Events() <-chan voice.Event {
	return c.events
}

// Emit delivers an event to the session.
func (c *FakeChannel) Emit(ev voice.Event) {
	c.events <- ev
}

// Close implements voice.Channel.
func (c *FakeChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	onClose := c.OnClose
	c.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return c.CloseErr
}

// Closed reports whether Close was called.
func (c *FakeChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Sent returns every chunk delivered through Send.
func (c *FakeChannel) Sent() []audio.EncodedOutboundChunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]audio.EncodedOutboundChunk, len(c.sent))
	copy(out, c.sent)
	return out
}

// FakeDialer returns a fixed channel or fails.
type FakeDialer struct {
	Channel *FakeChannel
	Err     error

	mu      sync.Mutex
	configs []voice.ChannelConfig
}

// Dial implements voice.Dialer.
func (d *FakeDialer) Dial(_ context.Context, cfg voice.ChannelConfig) (voice.Channel, error) {
	d.mu.Lock()
	d.configs = append(d.configs, cfg)
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	return d.Channel, nil
}

// Configs returns the configurations passed to Dial.
func (d *FakeDialer) Configs() []voice.ChannelConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]voice.ChannelConfig, len(d.configs))
	copy(out, d.configs)
	return out
}

// RecordingObserver stores every update it receives.
type RecordingObserver struct {
	mu          sync.Mutex
	statuses    []voice.Status
	transcripts [][]voice.TranscriptLine
}

// StatusChanged implements voice.Observer.
func (r *RecordingObserver) StatusChanged(s voice.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

// TranscriptChanged implements voice.Observer.
func (r *RecordingObserver) TranscriptChanged(lines []voice.TranscriptLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts = append(r.transcripts, lines)
}

// Statuses returns the status strings seen so far.
func (r *RecordingObserver) Statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.statuses))
	for i, s := range r.statuses {
		out[i] = s.String()
	}
	return out
}

// LastTranscript returns the most recent transcript snapshot.
func (r *RecordingObserver) LastTranscript() []voice.TranscriptLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.transcripts) == 0 {
		return nil
	}
	return r.transcripts[len(r.transcripts)-1]
}
