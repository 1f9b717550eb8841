// Package biometrics identifies speakers from short voice samples. Profiles
// are a handful of cheap acoustic features rather than a full speaker model,
// which is enough to tell household voices apart.
package biometrics

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

const (
	// SampleRate is the PCM rate profiles are extracted at.
	SampleRate = 16000

	verifyThreshold   = 0.8
	identifyThreshold = 0.75

	minPitchLag = 20
	maxPitchLag = 400

	mfccCount = 13
)

// VoiceProfile holds the acoustic features that describe one speaker.
type VoiceProfile struct {
	Name          string    `json:"name"`
	PitchMean     float64   `json:"pitch_mean"`
	PitchVariance float64   `json:"pitch_variance"`
	SpeakingRate  float64   `json:"speaking_rate"`
	EnergyMean    float64   `json:"energy_mean"`
	MFCC          []float64 `json:"mfcc"`
}

// Recognizer keeps enrolled voice profiles and matches samples against them.
type Recognizer struct {
	mu       sync.RWMutex
	profiles map[string]VoiceProfile
}

func NewRecognizer() *Recognizer {
	return &Recognizer{profiles: make(map[string]VoiceProfile)}
}

// ExtractProfile computes the voice features of a mono sample at SampleRate.
func ExtractProfile(name string, samples []float64) (VoiceProfile, error) {
	if len(samples) < maxPitchLag*2 {
		return VoiceProfile{}, fmt.Errorf("sample too short: %d frames", len(samples))
	}
	pitches := pitchTrack(samples)
	mean, variance := meanVariance(pitches)
	return VoiceProfile{
		Name:          name,
		PitchMean:     mean,
		PitchVariance: variance,
		SpeakingRate:  zeroCrossingRate(samples),
		EnergyMean:    meanEnergy(samples),
		MFCC:          simplifiedMFCC(samples),
	}, nil
}

// Register enrolls a speaker from a voice sample, replacing any previous
// profile under the same name.
func (r *Recognizer) Register(name string, samples []float64) error {
	p, err := ExtractProfile(name, samples)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.profiles[name] = p
	r.mu.Unlock()
	return nil
}

// Verify reports whether the sample matches the named speaker.
func (r *Recognizer) Verify(name string, samples []float64) (bool, float64, error) {
	r.mu.RLock()
	enrolled, ok := r.profiles[name]
	r.mu.RUnlock()
	if !ok {
		return false, 0, fmt.Errorf("no profile for %q", name)
	}
	p, err := ExtractProfile(name, samples)
	if err != nil {
		return false, 0, err
	}
	score := Similarity(enrolled, p)
	return score > verifyThreshold, score, nil
}

// Identify returns the best-matching enrolled speaker, if any clears the
// identification threshold.
func (r *Recognizer) Identify(samples []float64) (string, float64, error) {
	p, err := ExtractProfile("", samples)
	if err != nil {
		return "", 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	best := ""
	bestScore := 0.0
	for name, enrolled := range r.profiles {
		if score := Similarity(enrolled, p); score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore <= identifyThreshold {
		return "", bestScore, nil
	}
	return best, bestScore, nil
}

// Enrolled lists enrolled speaker names in a stable order.
func (r *Recognizer) Enrolled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove drops an enrolled speaker.
func (r *Recognizer) Remove(name string) {
	r.mu.Lock()
	delete(r.profiles, name)
	r.mu.Unlock()
}

// Similarity scores two profiles in [0, 1]. Pitch and MFCC shape carry the
// most weight.
func Similarity(a, b VoiceProfile) float64 {
	pitch := ratioSimilarity(a.PitchMean, b.PitchMean)
	variance := ratioSimilarity(math.Sqrt(a.PitchVariance), math.Sqrt(b.PitchVariance))
	rate := ratioSimilarity(a.SpeakingRate, b.SpeakingRate)
	mfcc := cosineSimilarity(a.MFCC, b.MFCC)
	return 0.3*pitch + 0.2*variance + 0.2*rate + 0.3*mfcc
}

func ratioSimilarity(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	hi := math.Max(math.Abs(a), math.Abs(b))
	if hi == 0 {
		return 0
	}
	return 1 - math.Abs(a-b)/hi
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (cos + 1) / 2
}

// pitchTrack estimates pitch per 512-sample frame by autocorrelation over
// lags covering roughly 40 to 800 Hz at SampleRate.
func pitchTrack(samples []float64) []float64 {
	const frame = 512
	var pitches []float64
	for start := 0; start+frame+maxPitchLag <= len(samples); start += frame {
		lag := bestLag(samples[start : start+frame+maxPitchLag])
		if lag > 0 {
			pitches = append(pitches, float64(SampleRate)/float64(lag))
		}
	}
	return pitches
}

func bestLag(window []float64) int {
	const frame = 512
	best, bestCorr := 0, 0.0
	for lag := minPitchLag; lag <= maxPitchLag; lag++ {
		var corr float64
		for i := 0; i < frame; i++ {
			corr += window[i] * window[i+lag]
		}
		if corr > bestCorr {
			best, bestCorr = lag, corr
		}
	}
	if bestCorr <= 0 {
		return 0
	}
	return best
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func meanEnergy(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return sum / float64(len(samples))
}

// simplifiedMFCC averages log band energies over fixed slices of each frame.
// It is not a real cepstrum but preserves enough spectral shape to compare.
func simplifiedMFCC(samples []float64) []float64 {
	const frame = 256
	coeffs := make([]float64, mfccCount)
	frames := 0
	for start := 0; start+frame <= len(samples); start += frame {
		for c := 0; c < mfccCount; c++ {
			band := samples[start+c*frame/mfccCount : start+(c+1)*frame/mfccCount]
			var e float64
			for _, s := range band {
				e += s * s
			}
			coeffs[c] += math.Log1p(e)
		}
		frames++
	}
	if frames == 0 {
		return coeffs
	}
	for c := range coeffs {
		coeffs[c] /= float64(frames)
	}
	return coeffs
}

func meanVariance(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, variance / float64(len(values))
}
