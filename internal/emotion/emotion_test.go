package emotion

import (
	"fmt"
	"testing"
)

func TestDetectIntensityLevels(t *testing.T) {
	d := NewDetector()

	neutral := d.Detect("set a timer for ten minutes")
	if neutral.Emotion != "neutral" || neutral.Intensity != 0.3 {
		t.Fatalf("Detect(neutral) = %+v, want neutral at 0.3", neutral)
	}

	single := d.Detect("I am so happy today")
	if single.Emotion != "happy" || single.Intensity != 0.6 {
		t.Fatalf("Detect(one hit) = %+v, want happy at 0.6", single)
	}

	double := d.Detect("this is awesome and amazing")
	if double.Emotion != "happy" || double.Intensity != 1.0 {
		t.Fatalf("Detect(two hits) = %+v, want happy at 1.0", double)
	}
}

func TestDetectPrefersEmotionWithMostHits(t *testing.T) {
	d := NewDetector()
	got := d.Detect("I am sad and upset but a little happy")
	if got.Emotion != "sad" {
		t.Fatalf("Emotion = %q, want sad (two hits beat one)", got.Emotion)
	}
}

func TestHistoryCapped(t *testing.T) {
	d := NewDetector()
	for i := 0; i < historyCap+7; i++ {
		d.Detect(fmt.Sprintf("entry %d", i))
	}
	if n := len(d.History()); n != historyCap {
		t.Fatalf("len(History()) = %d, want %d", n, historyCap)
	}
}

func TestNeedsSupportAfterRepeatedNegatives(t *testing.T) {
	d := NewDetector()
	d.Detect("I feel sad")
	if d.NeedsSupport() {
		t.Fatalf("NeedsSupport() = true after one negative, want false")
	}
	d.Detect("I am so angry")
	if !d.NeedsSupport() {
		t.Fatalf("NeedsSupport() = false after two negatives, want true")
	}
	d.Detect("okay")
	d.Detect("fine")
	if d.NeedsSupport() {
		t.Fatalf("NeedsSupport() = true after mood recovered, want false")
	}
}

func TestDominantEmotionOverRecentStates(t *testing.T) {
	d := NewDetector()
	if d.DominantEmotion() != "neutral" {
		t.Fatalf("DominantEmotion(empty) = %q, want neutral", d.DominantEmotion())
	}
	d.Detect("I am happy")
	d.Detect("feeling happy again")
	d.Detect("I am sad")
	if got := d.DominantEmotion(); got != "happy" {
		t.Fatalf("DominantEmotion() = %q, want happy", got)
	}
}

func TestEmpatheticResponseMatchesIntensity(t *testing.T) {
	high := EmpatheticResponse("sad", 1.0)
	low := EmpatheticResponse("sad", 0.3)
	if high == low {
		t.Fatalf("high and low intensity replies are identical: %q", high)
	}
	if EmpatheticResponse("unknown", 0.5) == "" {
		t.Fatalf("EmpatheticResponse(unknown) empty, want default reply")
	}
}

func TestResponseTone(t *testing.T) {
	if got := ResponseTone("anxious"); got != "gentle" {
		t.Fatalf("ResponseTone(anxious) = %q, want gentle", got)
	}
	if got := ResponseTone("excited"); got != "upbeat" {
		t.Fatalf("ResponseTone(excited) = %q, want upbeat", got)
	}
	if got := ResponseTone("other"); got != "neutral" {
		t.Fatalf("ResponseTone(other) = %q, want neutral", got)
	}
}
