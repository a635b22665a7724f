// Package audio holds the PCM wire codec and sample helpers shared by the
// capture, streaming and playback layers.
package audio

import (
	"encoding/base64"
	"fmt"
	"time"
)

// AudioFrame is one fixed-size block of normalized mono samples captured
// from the microphone.
type AudioFrame struct {
	Samples    []float32
	SampleRate int
}

// EncodedOutboundChunk is an AudioFrame in the form the remote channel
// accepts: base64 armoured 16-bit little-endian PCM plus its mime tag.
type EncodedOutboundChunk struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// EncodedInboundChunk is a base64 audio payload received from the remote
// channel together with the rate it was produced at.
type EncodedInboundChunk struct {
	Data       string
	SampleRate int
}

// PlaybackBuffer is decoded mono audio ready to be scheduled on an output
// device.
type PlaybackBuffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns how long the buffer plays for.
func (b PlaybackBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Frames returns the buffer length in samples.
func (b PlaybackBuffer) Frames() int {
	return len(b.Samples)
}

// DecodeError reports an inbound payload that cannot be turned into PCM.
type DecodeError struct {
	Length int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode audio chunk: %v", e.Err)
	}
	return fmt.Sprintf("decode audio chunk: length (%d) is not a multiple of 2 bytes (16-bit samples)", e.Length)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeFrame converts a captured frame to the outbound wire format.
// Samples outside [-1, 1] are clipped.
func EncodeFrame(frame AudioFrame) EncodedOutboundChunk {
	rate := frame.SampleRate
	if rate == 0 {
		rate = CaptureSampleRate
	}
	pcm := PCMInt16ToLE(FloatsToPCM16(frame.Samples))
	return EncodedOutboundChunk{
		Data:     base64.StdEncoding.EncodeToString(pcm),
		MimeType: PCMMimeType(rate),
	}
}

// DecodeChunk converts an inbound payload to a playback buffer. Payloads that
// are not valid base64 or not a whole number of 16-bit samples fail with a
// *DecodeError.
func DecodeChunk(chunk EncodedInboundChunk) (PlaybackBuffer, error) {
	raw, err := base64.StdEncoding.DecodeString(chunk.Data)
	if err != nil {
		return PlaybackBuffer{}, &DecodeError{Length: len(chunk.Data), Err: err}
	}
	return DecodePCM(raw, chunk.SampleRate)
}

// DecodePCM converts raw little-endian 16-bit PCM to a playback buffer.
func DecodePCM(raw []byte, sampleRate int) (PlaybackBuffer, error) {
	if len(raw)%2 != 0 {
		return PlaybackBuffer{}, &DecodeError{Length: len(raw)}
	}
	if sampleRate == 0 {
		sampleRate = PlaybackSampleRate
	}

	pcm := LEToPCMInt16(raw)
	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = PCM16ToFloat(s)
	}

	return PlaybackBuffer{Samples: samples, SampleRate: sampleRate}, nil
}
