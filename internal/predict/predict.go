package predict

import (
	"fmt"
	"sync"
	"time"
)

// predictionThreshold is the minimum observations of an action in a given
// hour/weekday slot before it is offered as a prediction.
const predictionThreshold = 3

// Prediction is a suggested next action with an explanation.
type Prediction struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type slotKey struct {
	Action  string
	Hour    int
	Weekday time.Weekday
}

// Learner counts how often each action happens per hour-of-day and weekday,
// and predicts the action the user usually takes around now.
type Learner struct {
	mu     sync.Mutex
	freq   map[slotKey]int
	lastAt map[string]time.Time
	now    func() time.Time
}

func NewLearner() *Learner {
	return &Learner{
		freq:   make(map[slotKey]int),
		lastAt: make(map[string]time.Time),
		now:    func() time.Time { return time.Now() },
	}
}

// SetClock overrides the time source. Intended for tests.
func (l *Learner) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Learn records one occurrence of the action at the current time slot.
func (l *Learner) Learn(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.now()
	key := slotKey{Action: action, Hour: t.Hour(), Weekday: t.Weekday()}
	l.freq[key]++
	l.lastAt[action] = t
}

// Predict returns the most frequent action for the current slot, if it has
// been seen often enough to trust.
func (l *Learner) Predict() (Prediction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.now()

	var best string
	bestFreq := 0
	for key, freq := range l.freq {
		if key.Hour != t.Hour() || key.Weekday != t.Weekday() {
			continue
		}
		if freq > bestFreq || (freq == bestFreq && key.Action < best) {
			best = key.Action
			bestFreq = freq
		}
	}

	if bestFreq < predictionThreshold {
		return Prediction{}, false
	}
	confidence := float64(bestFreq) / 10
	if confidence > 1 {
		confidence = 1
	}
	return Prediction{
		Action:     best,
		Confidence: confidence,
		Reason:     "You usually do this at this time",
	}, true
}

// LastSeen reports when the action was last learned.
func (l *Learner) LastSeen(action string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.lastAt[action]
	return t, ok
}

// ContextPredictions lists likely actions from the hour of day plus the
// user's stated activity.
func (l *Learner) ContextPredictions(activity string) []Prediction {
	l.mu.Lock()
	hour := l.now().Hour()
	l.mu.Unlock()

	var out []Prediction
	switch {
	case hour >= 6 && hour <= 9:
		out = append(out,
			Prediction{Action: "check weather", Confidence: 0.8, Reason: "Morning routine"},
			Prediction{Action: "read news", Confidence: 0.7, Reason: "Morning routine"},
			Prediction{Action: "check calendar", Confidence: 0.6, Reason: "Plan your day"},
		)
	case hour >= 12 && hour <= 14:
		out = append(out, Prediction{Action: "set reminder", Confidence: 0.5, Reason: "Lunch time"})
	case hour >= 17 && hour <= 19:
		out = append(out,
			Prediction{Action: "call family", Confidence: 0.6, Reason: "Evening routine"},
			Prediction{Action: "check messages", Confidence: 0.7, Reason: "After work"},
		)
	case hour >= 21 && hour <= 23:
		out = append(out,
			Prediction{Action: "set alarm", Confidence: 0.8, Reason: "Bedtime routine"},
			Prediction{Action: "check tomorrow's schedule", Confidence: 0.6, Reason: "Plan ahead"},
		)
	}

	switch activity {
	case "driving":
		out = append(out,
			Prediction{Action: "navigate", Confidence: 0.9, Reason: "You're driving"},
			Prediction{Action: "play music", Confidence: 0.7, Reason: "Entertainment while driving"},
		)
	case "working":
		out = append(out,
			Prediction{Action: "set focus mode", Confidence: 0.8, Reason: "Minimize distractions"},
			Prediction{Action: "silence notifications", Confidence: 0.7, Reason: "Stay focused"},
		)
	}

	return out
}

// ProactiveSuggestions returns things worth saying unprompted right now.
func (l *Learner) ProactiveSuggestions() []string {
	l.mu.Lock()
	hour := l.now().Hour()
	l.mu.Unlock()

	var out []string
	switch {
	case hour >= 6 && hour <= 9:
		out = append(out,
			"Good morning! Would you like to hear the weather and news?",
			"Don't forget to check your calendar for today",
		)
	case hour >= 12 && hour <= 14:
		out = append(out, "It's lunch time. Want me to set a reminder for your afternoon tasks?")
	case hour >= 18 && hour <= 20:
		out = append(out, "Evening! Would you like a summary of your day?")
	case hour >= 21 && hour <= 23:
		out = append(out,
			"Getting late. Should I set your alarm for tomorrow?",
			"Want me to activate night mode?",
		)
	}

	if p, ok := l.Predict(); ok {
		out = append(out, fmt.Sprintf("Would you like to %s? %s.", p.Action, p.Reason))
	}
	return out
}
