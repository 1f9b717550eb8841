package biometrics

import (
	"math"
	"testing"
)

// tone builds a synthetic voiced signal at the given fundamental.
func tone(freq float64, seconds float64) []float64 {
	n := int(seconds * SampleRate)
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / SampleRate
		samples[i] = 0.6*math.Sin(2*math.Pi*freq*t) + 0.2*math.Sin(2*math.Pi*2*freq*t)
	}
	return samples
}

func TestExtractProfilePitch(t *testing.T) {
	p, err := ExtractProfile("low", tone(100, 1))
	if err != nil {
		t.Fatalf("ExtractProfile() error = %v", err)
	}
	if p.PitchMean < 80 || p.PitchMean > 120 {
		t.Fatalf("PitchMean = %.1f, want near 100", p.PitchMean)
	}
	if len(p.MFCC) != mfccCount {
		t.Fatalf("MFCC len = %d, want %d", len(p.MFCC), mfccCount)
	}
	if p.EnergyMean <= 0 {
		t.Fatalf("EnergyMean = %v, want > 0", p.EnergyMean)
	}
}

func TestExtractProfileTooShort(t *testing.T) {
	if _, err := ExtractProfile("x", make([]float64, 100)); err == nil {
		t.Fatal("ExtractProfile() expected error for short sample")
	}
}

func TestVerifySameVoice(t *testing.T) {
	r := NewRecognizer()
	if err := r.Register("ana", tone(120, 1)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ok, score, err := r.Verify("ana", tone(120, 1))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Fatalf("Verify() = false, score %.3f", score)
	}
}

func TestVerifyDifferentVoice(t *testing.T) {
	r := NewRecognizer()
	if err := r.Register("ana", tone(120, 1)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ok, score, err := r.Verify("ana", tone(300, 1))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Fatalf("Verify() accepted a different voice, score %.3f", score)
	}
}

func TestVerifyUnknownName(t *testing.T) {
	r := NewRecognizer()
	if _, _, err := r.Verify("nobody", tone(120, 1)); err == nil {
		t.Fatal("Verify() expected error for unknown name")
	}
}

func TestIdentify(t *testing.T) {
	r := NewRecognizer()
	if err := r.Register("low", tone(100, 1)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("high", tone(280, 1)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	name, score, err := r.Identify(tone(100, 1))
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if name != "low" {
		t.Fatalf("Identify() = %q (score %.3f), want low", name, score)
	}
}

func TestIdentifyNoProfiles(t *testing.T) {
	r := NewRecognizer()
	name, _, err := r.Identify(tone(100, 1))
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if name != "" {
		t.Fatalf("Identify() = %q, want empty", name)
	}
}

func TestEnrolledAndRemove(t *testing.T) {
	r := NewRecognizer()
	if err := r.Register("b", tone(100, 1)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("a", tone(200, 1)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	got := r.Enrolled()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Enrolled() = %v", got)
	}
	r.Remove("a")
	if got := r.Enrolled(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("Enrolled() after Remove = %v", got)
	}
}

func TestSimilaritySelf(t *testing.T) {
	p, err := ExtractProfile("p", tone(150, 1))
	if err != nil {
		t.Fatalf("ExtractProfile() error = %v", err)
	}
	if s := Similarity(p, p); s < 0.99 {
		t.Fatalf("Similarity(p, p) = %.3f, want ~1", s)
	}
}

func TestDetectAccent(t *testing.T) {
	info, err := DetectAccent(tone(150, 2), "hello there how are you today")
	if err != nil {
		t.Fatalf("DetectAccent() error = %v", err)
	}
	if info.Accent == "" || info.Region == "" || len(info.Characteristics) == 0 {
		t.Fatalf("info = %+v, want populated fields", info)
	}
	if info.Confidence != 0.75 {
		t.Fatalf("Confidence = %v, want 0.75", info.Confidence)
	}
}

func TestDetectAccentTooShort(t *testing.T) {
	if _, err := DetectAccent(make([]float64, 100), "hi"); err == nil {
		t.Fatal("DetectAccent() accepted a short sample")
	}
}
