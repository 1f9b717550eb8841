package emotion

import (
	"strings"
	"sync"
	"time"
)

// historyCap bounds the retained emotional states, oldest evicted first.
const historyCap = 20

// State is one detected emotional reading.
type State struct {
	Emotion   string    `json:"emotion"`
	Intensity float64   `json:"intensity"`
	At        time.Time `json:"at"`
}

var emotionKeywords = map[string][]string{
	"happy":    {"happy", "great", "awesome", "wonderful", "excited", "love", "amazing", "fantastic"},
	"sad":      {"sad", "depressed", "down", "unhappy", "miserable", "crying", "upset"},
	"angry":    {"angry", "mad", "furious", "annoyed", "frustrated", "hate"},
	"anxious":  {"anxious", "worried", "nervous", "stressed", "scared", "afraid"},
	"tired":    {"tired", "exhausted", "sleepy", "fatigue", "drained"},
	"excited":  {"excited", "thrilled", "pumped", "energized"},
	"calm":     {"calm", "relaxed", "peaceful", "chill", "zen"},
	"confused": {"confused", "lost", "don't understand", "unclear"},
	"grateful": {"thank", "grateful", "appreciate", "thanks"},
}

var negativeEmotions = map[string]bool{
	"sad":     true,
	"angry":   true,
	"anxious": true,
}

// Detector scores utterances against emotion keyword lists and keeps a short
// rolling history so the assistant can notice sustained negative moods.
type Detector struct {
	mu      sync.Mutex
	history []State
	now     func() time.Time
}

func NewDetector() *Detector {
	return &Detector{now: func() time.Time { return time.Now().UTC() }}
}

// SetClock overrides the timestamp source. Intended for tests.
func (d *Detector) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Detect classifies text by keyword hits. The emotion with the most hits wins;
// zero hits yields neutral at low intensity.
func (d *Detector) Detect(text string) State {
	lower := strings.ToLower(text)
	detected := "neutral"
	maxMatches := 0

	for emotion, keywords := range emotionKeywords {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches > maxMatches || (matches == maxMatches && matches > 0 && emotion < detected) {
			maxMatches = matches
			detected = emotion
		}
	}

	intensity := 0.3
	switch {
	case maxMatches >= 2:
		intensity = 1.0
	case maxMatches == 1:
		intensity = 0.6
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	state := State{Emotion: detected, Intensity: intensity, At: d.now()}
	d.history = append(d.history, state)
	if len(d.history) > historyCap {
		d.history = d.history[len(d.history)-historyCap:]
	}
	return state
}

// History returns a copy of the retained states, oldest first.
func (d *Detector) History() []State {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]State, len(d.history))
	copy(out, d.history)
	return out
}

// DominantEmotion reports the most common emotion over the last five states.
func (d *Detector) DominantEmotion() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.history) == 0 {
		return "neutral"
	}
	recent := d.history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	counts := make(map[string]int)
	for _, s := range recent {
		counts[s.Emotion]++
	}
	dominant := "neutral"
	best := 0
	for emotion, n := range counts {
		if n > best || (n == best && emotion < dominant) {
			best = n
			dominant = emotion
		}
	}
	return dominant
}

// NeedsSupport is true when two of the last three states are negative.
func (d *Detector) NeedsSupport() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	recent := d.history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	negatives := 0
	for _, s := range recent {
		if negativeEmotions[s.Emotion] {
			negatives++
		}
	}
	return negatives >= 2
}

// EmpatheticResponse picks a reply matched to the emotion and its intensity.
func EmpatheticResponse(emotion string, intensity float64) string {
	switch emotion {
	case "happy":
		switch {
		case intensity > 0.8:
			return "That's wonderful! I'm so happy for you!"
		case intensity > 0.5:
			return "That's great to hear!"
		default:
			return "I'm glad you're feeling good"
		}
	case "sad":
		switch {
		case intensity > 0.8:
			return "I'm really sorry you're feeling this way. I'm here for you. Would you like to talk about it?"
		case intensity > 0.5:
			return "I understand you're feeling down. Is there anything I can do to help?"
		default:
			return "I hope things get better soon"
		}
	case "angry":
		switch {
		case intensity > 0.8:
			return "I can sense you're really upset. Take a deep breath. I'm here to help."
		case intensity > 0.5:
			return "I understand your frustration. Let's work through this together."
		default:
			return "I hear you. How can I assist?"
		}
	case "anxious":
		switch {
		case intensity > 0.8:
			return "It's okay to feel anxious. Let's take this one step at a time. Would you like me to play calming music?"
		case intensity > 0.5:
			return "I understand you're worried. Remember to breathe. I'm here to help."
		default:
			return "Try not to worry too much. I've got your back."
		}
	case "tired":
		return "You sound tired. Maybe you should rest? I can set a reminder for later."
	case "excited":
		return "Your excitement is contagious! Let's make the most of this energy!"
	case "grateful":
		return "You're very welcome! I'm always happy to help you."
	case "confused":
		return "No worries, let me explain that better. What specifically would you like to know?"
	default:
		return "I'm listening. How can I help you today?"
	}
}

// MoodAction suggests a follow-up tailored to the mood, or empty when none.
func MoodAction(emotion string) string {
	switch emotion {
	case "sad":
		return "Would you like me to play some uplifting music or tell you a joke?"
	case "angry":
		return "How about some calming music or a breathing exercise?"
	case "anxious":
		return "Let me play some relaxing sounds. Take deep breaths."
	case "tired":
		return "You should rest. Want me to set an alarm for a power nap?"
	case "happy":
		return "Great mood! Want to capture this moment with a note?"
	default:
		return ""
	}
}

// ResponseTone maps an emotion to the voice tone used when speaking.
func ResponseTone(emotion string) string {
	switch emotion {
	case "sad", "anxious":
		return "gentle"
	case "happy", "excited":
		return "upbeat"
	case "angry":
		return "calm"
	default:
		return "neutral"
	}
}
