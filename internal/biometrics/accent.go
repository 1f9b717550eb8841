package biometrics

import (
	"fmt"
	"strings"
)

const accentFrameSize = 512

// AccentInfo describes the accent guessed from a transcribed sample.
type AccentInfo struct {
	Accent          string   `json:"accent"`
	Confidence      float64  `json:"confidence"`
	Region          string   `json:"region"`
	Characteristics []string `json:"characteristics"`
}

// DetectAccent classifies the accent of a mono sample at SampleRate using
// coarse pronunciation features. The transcript supplies the word count for
// the speech rate estimate.
func DetectAccent(samples []float64, text string) (AccentInfo, error) {
	if len(samples) < accentFrameSize {
		return AccentInfo{}, fmt.Errorf("sample too short: %d frames", len(samples))
	}

	vowels := vowelDurationRatio(samples)
	clarity := consonantClarity(samples)
	intonation := intonationPattern(samples)
	rate := speechRate(samples, text)

	accent := classifyAccent(vowels, clarity, intonation, rate)
	return AccentInfo{
		Accent:          accent,
		Confidence:      0.75,
		Region:          accentRegion(accent),
		Characteristics: accentTraits(accent),
	}, nil
}

// vowelDurationRatio estimates how much of the sample is held vowels: the
// fraction of samples whose energy sits above the mean.
func vowelDurationRatio(samples []float64) float64 {
	mean := meanEnergy(samples)
	held := 0
	for _, s := range samples {
		if s*s > mean {
			held++
		}
	}
	return float64(held) / float64(len(samples))
}

// consonantClarity measures high-frequency content as the mean absolute
// sample-to-sample difference.
func consonantClarity(samples []float64) float64 {
	var clarity float64
	for i := 1; i < len(samples); i++ {
		d := samples[i] - samples[i-1]
		if d < 0 {
			d = -d
		}
		clarity += d
	}
	return clarity / float64(len(samples))
}

// intonationPattern buckets the variance of per-frame energy.
func intonationPattern(samples []float64) string {
	var frames []float64
	for i := 0; i+accentFrameSize <= len(samples); i += accentFrameSize {
		frames = append(frames, meanEnergy(samples[i:i+accentFrameSize]))
	}
	_, variance := meanVariance(frames)
	switch {
	case variance > 0.5:
		return "high_variation"
	case variance > 0.2:
		return "medium_variation"
	default:
		return "low_variation"
	}
}

// speechRate is words per second given the transcript and sample length.
func speechRate(samples []float64, text string) float64 {
	words := len(strings.Fields(text))
	seconds := float64(len(samples)) / float64(SampleRate)
	if seconds == 0 {
		return 0
	}
	return float64(words) / seconds
}

func classifyAccent(vowels, clarity float64, intonation string, rate float64) string {
	switch {
	case vowels < 0.4 && rate > 2.5:
		return "American"
	case vowels > 0.5 && clarity > 0.3:
		return "British"
	case intonation == "high_variation" && rate > 3:
		return "Indian"
	case vowels > 0.45 && intonation == "medium_variation":
		return "Australian"
	case vowels > 0.6 && rate > 3.5:
		return "Spanish"
	case vowels > 0.55 && clarity < 0.25:
		return "French"
	case clarity > 0.4 && rate < 2.5:
		return "German"
	case intonation == "high_variation" && vowels < 0.35:
		return "Chinese"
	case clarity > 0.35 && intonation == "medium_variation":
		return "Arabic"
	case clarity > 0.38 && vowels < 0.4:
		return "Russian"
	default:
		return "Neutral"
	}
}

func accentRegion(accent string) string {
	switch accent {
	case "American":
		return "North America"
	case "British":
		return "United Kingdom"
	case "Indian":
		return "South Asia"
	case "Australian":
		return "Oceania"
	case "Spanish":
		return "Spain/Latin America"
	case "French":
		return "France"
	case "German":
		return "Germany"
	case "Chinese":
		return "East Asia"
	case "Arabic":
		return "Middle East"
	case "Russian":
		return "Eastern Europe"
	default:
		return "Unknown"
	}
}

func accentTraits(accent string) []string {
	switch accent {
	case "American":
		return []string{"Rhotic R", "Fast speech", "Reduced vowels"}
	case "British":
		return []string{"Non-rhotic R", "Clear consonants", "Long vowels"}
	case "Indian":
		return []string{"Retroflex sounds", "Fast speech", "Tonal variation"}
	case "Australian":
		return []string{"Diphthongs", "Rising intonation", "Vowel shifts"}
	case "Spanish":
		return []string{"Rolled R", "Clear vowels", "Fast tempo"}
	case "French":
		return []string{"Nasal vowels", "Soft consonants", "Liaison"}
	case "German":
		return []string{"Hard consonants", "Precise articulation", "Guttural sounds"}
	case "Chinese":
		return []string{"Tonal", "Short vowels", "Aspiration"}
	case "Arabic":
		return []string{"Emphatic consonants", "Guttural sounds", "Strong stress"}
	case "Russian":
		return []string{"Palatalized consonants", "Reduced vowels", "Flat intonation"}
	default:
		return []string{"Balanced features"}
	}
}
