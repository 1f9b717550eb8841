package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0xff, 0x7f, 0x00, 0x80, 0x01, 0x00}
	wav, err := EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}
	got, err := StripWAVHeader(wav)
	if err != nil {
		t.Fatalf("StripWAVHeader() error = %v", err)
	}
	if len(got) != len(pcm) {
		t.Fatalf("payload length = %d, want %d", len(got), len(pcm))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Fatalf("payload[%d] = %#x, want %#x", i, got[i], pcm[i])
		}
	}
}

func TestStripWAVHeaderPassesThroughRawPCM(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	got, err := StripWAVHeader(raw)
	if err != nil {
		t.Fatalf("StripWAVHeader() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("payload = %v", got)
	}
}

func TestStripWAVHeaderRejectsTruncatedStream(t *testing.T) {
	wav, err := EncodeWAVPCM16LE([]byte{1, 2, 3, 4}, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}
	if _, err := StripWAVHeader(wav[:len(wav)-2]); err == nil {
		t.Fatal("StripWAVHeader() accepted a truncated stream")
	}
}

func TestSamplesPCM16LERange(t *testing.T) {
	pcm := []byte{0x00, 0x80, 0xff, 0x7f, 0x00, 0x00}
	samples := SamplesPCM16LE(pcm)
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0] != -1 {
		t.Fatalf("samples[0] = %v, want -1", samples[0])
	}
	if math.Abs(samples[1]-32767.0/32768.0) > 1e-9 {
		t.Fatalf("samples[1] = %v", samples[1])
	}
	if samples[2] != 0 {
		t.Fatalf("samples[2] = %v, want 0", samples[2])
	}
}

func TestEncodeWAVRejectsOddPayload(t *testing.T) {
	if _, err := EncodeWAVPCM16LE([]byte{1, 2, 3}, 16000); err == nil {
		t.Fatal("EncodeWAVPCM16LE() accepted an odd PCM16 payload")
	}
}

func TestWriteWAVHeaderFields(t *testing.T) {
	var buf bytes.Buffer
	pcm := []byte{9, 9, 9, 9}
	if err := WriteWAVPCM16LETo(&buf, pcm, 8000); err != nil {
		t.Fatalf("WriteWAVPCM16LETo() error = %v", err)
	}
	b := buf.Bytes()
	if len(b) != wavHeaderSize+len(pcm) {
		t.Fatalf("stream length = %d, want %d", len(b), wavHeaderSize+len(pcm))
	}
	if rate := binary.LittleEndian.Uint32(b[24:28]); rate != 8000 {
		t.Fatalf("sample rate = %d, want 8000", rate)
	}
	if ch := binary.LittleEndian.Uint16(b[22:24]); ch != 1 {
		t.Fatalf("channels = %d, want mono", ch)
	}
}
