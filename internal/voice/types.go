package voice

import (
	"context"
	"time"

	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// State is the coarse lifecycle of a voice session.
type State int

const (
	StateReady State = iota
	StateInitializing
	StateActive
	StateDisconnected
	StateError
)

// Status is the single user-visible description of a session.
type Status struct {
	State  State
	Reason string
	// Err carries the cause behind StateError for logs and detail views.
	Err error
}

var (
	StatusReady            = Status{State: StateReady}
	StatusInitializing     = Status{State: StateInitializing}
	StatusActive           = Status{State: StateActive}
	StatusDisconnected     = Status{State: StateDisconnected}
	StatusPermissionDenied = Status{State: StateError, Reason: "Microphone access denied"}
)

// ConnectionErrorStatus is the status shown after a terminal channel failure.
func ConnectionErrorStatus(err error) Status {
	return Status{State: StateError, Reason: "Connection Error", Err: err}
}

func (s Status) String() string {
	switch s.State {
	case StateReady:
		return "Ready to cook"
	case StateInitializing:
		return "Initializing AI Chef..."
	case StateActive:
		return "Active"
	case StateDisconnected:
		return "Disconnected"
	default:
		if s.Reason != "" {
			return s.Reason
		}
		return "Connection Error"
	}
}

// Detail is String followed by the underlying cause, if any, as in
// "Connection Error: websocket closed".
func (s Status) Detail() string {
	if s.Err == nil {
		return s.String()
	}
	return s.String() + ": " + s.Err.Error()
}

// Speaker tags a transcript line.
type Speaker int

const (
	SpeakerAssistant Speaker = iota
	SpeakerUser
)

// Label is the prefix shown in front of a transcript line.
func (s Speaker) Label() string {
	if s == SpeakerUser {
		return "You"
	}
	return "Chef"
}

// TranscriptLine is one entry of the recent conversation history.
type TranscriptLine struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

func (l TranscriptLine) String() string {
	return l.Speaker.Label() + ": " + l.Text
}

// EventKind tags a message received from the remote channel.
type EventKind int

const (
	EventAssistantAudio EventKind = iota
	EventAssistantText
	EventUserText
	EventInterrupted
	EventClosed
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventAssistantAudio:
		return "assistant_audio"
	case EventAssistantText:
		return "assistant_text"
	case EventUserText:
		return "user_text"
	case EventInterrupted:
		return "interrupted"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one tagged message from the remote channel. Only the field that
// matches Kind is set.
type Event struct {
	Kind  EventKind
	Audio audio.EncodedInboundChunk
	Text  string
	Err   error
}

// ChannelConfig is passed once when a channel is opened. Values are passed
// through to the remote service unvalidated.
type ChannelConfig struct {
	Model               string
	ResponseModality    string
	SystemInstruction   string
	Voice               string
	InputTranscription  bool
	OutputTranscription bool
	InputSampleRate     int
	OutputSampleRate    int
}

// Channel is an open bidirectional stream to the remote assistant.
type Channel interface {
	// Send delivers one encoded microphone frame. Callers must not call Send
	// concurrently.
	Send(ctx context.Context, chunk audio.EncodedOutboundChunk) error
	// Events yields inbound messages in delivery order. The channel emits a
	// final EventClosed or EventError and is then closed.
	Events() <-chan Event
	// Close ends the stream. Safe to call more than once.
	Close() error
}

// Dialer opens channels. Failures are reported as *ConnectionError.
type Dialer interface {
	Dial(ctx context.Context, cfg ChannelConfig) (Channel, error)
}

// CaptureStream is an open microphone producing fixed-size frames.
type CaptureStream interface {
	// Start begins frame production. A stream cannot be restarted.
	Start() error
	Frames() <-chan audio.AudioFrame
	// Stop halts capture, releases the device and closes Frames. Idempotent.
	Stop() error
}

// Microphone opens capture streams. Failures are reported as *PermissionError.
type Microphone interface {
	Open(sampleRate, frameSize int) (CaptureStream, error)
}

// Source is one buffer scheduled on an output device.
type Source interface {
	Stop()
}

// OutputDevice is a clocked audio sink.
type OutputDevice interface {
	// Now returns the device clock.
	Now() time.Duration
	// Schedule plays buf starting exactly at the given device time.
	Schedule(buf audio.PlaybackBuffer, at time.Duration) (Source, error)
	Close() error
}

// Speakers opens output devices.
type Speakers interface {
	Open(sampleRate int) (OutputDevice, error)
}

// Observer receives user-visible session updates. Calls are made from the
// session's goroutines and must not block.
type Observer interface {
	StatusChanged(Status)
	TranscriptChanged([]TranscriptLine)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnStatus     func(Status)
	OnTranscript func([]TranscriptLine)
}

func (o ObserverFuncs) StatusChanged(s Status) {
	if o.OnStatus != nil {
		o.OnStatus(s)
	}
}

func (o ObserverFuncs) TranscriptChanged(lines []TranscriptLine) {
	if o.OnTranscript != nil {
		o.OnTranscript(lines)
	}
}
