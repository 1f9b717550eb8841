package audio

import (
	"encoding/binary"
	"fmt"
)

// SamplesPCM16LE converts raw PCM16LE mono bytes to float samples in [-1, 1].
func SamplesPCM16LE(pcm []byte) []float64 {
	n := len(pcm) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float64(v) / 32768.0
	}
	return samples
}

// StripWAVHeader returns the PCM payload of a WAV stream produced by
// EncodeWAVPCM16LE, or the input unchanged when it is not a RIFF stream.
func StripWAVHeader(b []byte) ([]byte, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return b, nil
	}
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
		if off+size > len(b) {
			return nil, fmt.Errorf("wav: truncated %q chunk", id)
		}
		if id == "data" {
			return b[off : off+size], nil
		}
		off += size
	}
	return nil, fmt.Errorf("wav: no data chunk")
}
