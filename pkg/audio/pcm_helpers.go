package audio

import (
	"encoding/binary"
	"math"
)

// PCMInt16ToLE converts int16 samples to raw little-endian bytes.
func PCMInt16ToLE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// LEToPCMInt16 converts raw little-endian bytes back to int16 samples.
// A trailing odd byte is ignored; callers validate length first.
func LEToPCMInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out
}

// FloatToPCM16 scales a normalized sample by 32768 and clips it to the
// int16 range. Out-of-range input saturates instead of wrapping.
func FloatToPCM16(v float32) int16 {
	scaled := float64(v) * pcmScale
	switch {
	case math.IsNaN(scaled):
		return 0
	case scaled >= math.MaxInt16:
		return math.MaxInt16
	case scaled <= math.MinInt16:
		return math.MinInt16
	}
	return int16(scaled)
}

// PCM16ToFloat reverses FloatToPCM16.
func PCM16ToFloat(s int16) float32 {
	return float32(s) / pcmScale
}

// FloatsToPCM16 converts a slice of normalized samples to clipped int16 PCM.
func FloatsToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = FloatToPCM16(v)
	}
	return out
}

// LEToFloat32 converts raw little-endian IEEE-754 float32 bytes, the layout
// capture devices deliver, to samples. A trailing partial sample is ignored.
func LEToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}
