package voice

import (
	"errors"
	"fmt"
)

// VoiceError is a sentinel error raised by the voice service itself.
type VoiceError struct {
	message string
}

// NewVoiceError creates a sentinel voice error.
func NewVoiceError(message string) *VoiceError {
	return &VoiceError{message: message}
}

func (e *VoiceError) Error() string {
	return e.message
}

var (
	ErrSessionActive   = NewVoiceError("a voice session is already active")
	ErrNoSession       = NewVoiceError("no active voice session")
	ErrNoOutputDevice  = NewVoiceError("output device unavailable")
	ErrRemoteClosed    = NewVoiceError("remote channel closed")
	ErrInactive        = NewVoiceError("inactivity timeout")
	ErrMaxSessionLimit = NewVoiceError("maximum session length reached")
)

// PermissionError means the microphone could not be opened. The session never
// becomes active.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone access denied: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ConnectionError means the remote channel failed to open or failed while the
// session was running. It is terminal for the session.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PlaybackDeviceError means audio could not be played. It never ends the
// session; transcripts keep flowing.
type PlaybackDeviceError struct {
	Err error
}

func (e *PlaybackDeviceError) Error() string {
	return fmt.Sprintf("playback device error: %v", e.Err)
}

func (e *PlaybackDeviceError) Unwrap() error { return e.Err }

// IsTerminal reports whether err ends a session.
func IsTerminal(err error) bool {
	var perm *PermissionError
	var conn *ConnectionError
	return errors.As(err, &perm) || errors.As(err, &conn)
}
