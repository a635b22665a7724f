package audio

import "fmt"

// Format constants shared by capture, the wire codec and playback.
const (
	// Microphone capture.
	CaptureSampleRate = 16_000 // Hz
	CaptureChannels   = 1
	CaptureFrameSize  = 4096 // samples per frame

	// Assistant speech.
	PlaybackSampleRate = 24_000 // Hz
	PlaybackChannels   = 1

	// pcmScale maps normalized floats onto signed 16-bit PCM.
	pcmScale = 32768
)

// PCMMimeType returns the mime tag declaring 16-bit PCM at the given rate.
func PCMMimeType(sampleRate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", sampleRate)
}
