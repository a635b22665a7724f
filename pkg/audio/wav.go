package audio

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrEmptyRecording is returned when there are no samples to write.
var ErrEmptyRecording = errors.New("wav: empty sample slice")

// WriteWAV writes mono 16-bit PCM samples as a canonical 44-byte header WAV.
func WriteWAV(w io.Writer, samples []int16, sampleRate int) error {
	if len(samples) == 0 {
		return ErrEmptyRecording
	}

	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	pcmBytes := PCMInt16ToLE(samples)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := uint32(len(pcmBytes))

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		dataSize + 36,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // PCM header size
		uint16(1),  // PCM format
		uint16(numChannels),
		uint32(sampleRate),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	_, err := w.Write(pcmBytes)
	return err
}
