package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

const wavHeaderSize = 44

// EncodeWAVPCM16LE wraps raw PCM16LE mono bytes in the minimal RIFF
// container StripWAVHeader understands. Voiceprint clients that cannot
// post raw PCM use this shape.
func EncodeWAVPCM16LE(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("wav: odd PCM16 payload length %d", len(pcm))
	}
	out := make([]byte, 0, wavHeaderSize+len(pcm))
	out = append(out, pcm16Header(len(pcm), sampleRate)...)
	return append(out, pcm...), nil
}

// WriteWAVPCM16LETo streams the container to out.
func WriteWAVPCM16LETo(out io.Writer, pcm []byte, sampleRate int) error {
	b, err := EncodeWAVPCM16LE(pcm, sampleRate)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

// pcm16Header renders the 44-byte RIFF/fmt/data header for mono 16-bit PCM.
func pcm16Header(dataLen, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
		pcmFormat     = 1
	)
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	blockAlign := channels * bitsPerSample / 8

	h := make([]byte, wavHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(h[22:24], channels)
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}
