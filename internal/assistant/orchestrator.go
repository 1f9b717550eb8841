package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrelworks/kestrel/internal/apps"
	"github.com/kestrelworks/kestrel/internal/books"
	"github.com/kestrelworks/kestrel/internal/brain"
	"github.com/kestrelworks/kestrel/internal/emotion"
	"github.com/kestrelworks/kestrel/internal/fedsync"
	"github.com/kestrelworks/kestrel/internal/intent"
	"github.com/kestrelworks/kestrel/internal/lang"
	"github.com/kestrelworks/kestrel/internal/media"
	"github.com/kestrelworks/kestrel/internal/memory"
	"github.com/kestrelworks/kestrel/internal/messaging"
	"github.com/kestrelworks/kestrel/internal/news"
	"github.com/kestrelworks/kestrel/internal/observability"
	"github.com/kestrelworks/kestrel/internal/ocr"
	"github.com/kestrelworks/kestrel/internal/predict"
)

// Speaker voices assistant replies. flush interrupts whatever is currently
// being spoken.
type Speaker interface {
	Speak(ctx context.Context, text string, flush bool) error
}

// Features bundles the capability modules the orchestrator dispatches to.
type Features struct {
	Memory     memory.Store
	Brain      brain.Adapter
	Emotion    *emotion.Detector
	Predict    *predict.Learner
	Lang       *lang.Selector
	Books      *books.Reader
	News       *news.Client
	Editor     *media.Editor
	Stabilizer *media.Stabilizer
	Audio      *media.AudioLab
	Memes      *media.MemeMaker
	OCR        *ocr.Processor
	Messenger  *messaging.Messenger
	Launcher   *apps.Launcher
	FedSync    *fedsync.Client
}

// Config tunes the orchestrator.
type Config struct {
	WakeWord           string
	ConversationWindow time.Duration
	SuggestionInterval time.Duration
	DocumentDir        string
}

// Orchestrator runs the dispatch pipeline: gate, normalize, classify,
// execute, speak, remember. One utterance is processed at a time, in
// arrival order.
type Orchestrator struct {
	cfg        Config
	state      *State
	classifier *intent.Classifier
	f          Features
	speaker    Speaker
	log        zerolog.Logger
	metrics    *observability.Metrics

	mu  sync.Mutex
	now func() time.Time
}

func NewOrchestrator(cfg Config, f Features, speaker Speaker, log zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		state:   NewState(cfg.WakeWord, cfg.ConversationWindow),
		f:       f,
		speaker: speaker,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
	o.classifier = intent.NewClassifier(o.rules(), o.chatFallback)
	return o
}

// State exposes the conversational state machine.
func (o *Orchestrator) State() *State { return o.state }

// Language reports the active recognition language code.
func (o *Orchestrator) Language() string {
	if o.f.Lang == nil {
		return "en"
	}
	return o.f.Lang.Current()
}

// SetClock overrides the time source. Intended for tests.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.mu.Lock()
	o.now = now
	o.mu.Unlock()
	o.state.SetClock(now)
}

// HandleUtterance processes one final recognition result. It returns the
// spoken reply, or ok=false when the utterance was gated out. Faults inside
// handlers never escape; they surface as a spoken failure phrase.
func (o *Orchestrator) HandleUtterance(ctx context.Context, utterance string) (speech string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	command, accepted := o.state.Gate(utterance)
	if !accepted {
		return "", false
	}
	langCode := o.f.Lang.Current()
	if command == "" {
		speech = lang.LocalizedResponse("activated", langCode)
		o.speak(ctx, speech)
		return speech, true
	}

	started := o.now()
	translated := lang.TranslateCommand(command, langCode)
	emo := o.f.Emotion.Detect(translated)

	convCtx, err := memory.ConversationContext(ctx, o.f.Memory)
	if err != nil {
		o.log.Warn().Err(err).Msg("conversation context unavailable")
	}

	resp, name, err := o.classifier.Dispatch(ctx, intent.Request{
		Command: translated,
		Context: convCtx,
		Emotion: emo.Emotion,
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
		o.log.Warn().Err(err).Str("intent", name).Msg("handler fault")
	}
	o.metrics.Commands.WithLabelValues(name, outcome).Inc()
	o.metrics.ObserveCommandLatency(o.now().Sub(started))
	o.metrics.ObserveStage("dispatch", float64(o.now().Sub(started).Milliseconds()))

	o.f.Predict.Learn(name)
	if rerr := o.f.FedSync.RecordCommand(ctx, name); rerr != nil {
		o.log.Debug().Err(rerr).Msg("usage counter not recorded")
	}
	if serr := o.f.Memory.SaveExchange(ctx, command, resp.Speech); serr != nil {
		o.log.Warn().Err(serr).Msg("exchange not saved")
	}
	o.updateMemoryGauges(ctx)

	o.speak(ctx, resp.Speech)
	o.log.Info().Str("intent", name).Str("emotion", emo.Emotion).Msg("command handled")
	return resp.Speech, true
}

func (o *Orchestrator) speak(ctx context.Context, text string) {
	if err := o.speaker.Speak(ctx, text, true); err != nil {
		o.log.Warn().Err(err).Msg("speak failed")
	}
}

func (o *Orchestrator) updateMemoryGauges(ctx context.Context) {
	notes, exchanges, err := o.f.Memory.Counts(ctx)
	if err != nil {
		return
	}
	o.metrics.MemoryItems.WithLabelValues("notes").Set(float64(notes))
	o.metrics.MemoryItems.WithLabelValues("exchanges").Set(float64(exchanges))
}

// RunSuggestions emits a proactive suggestion whenever the interval elapses,
// until the context is canceled.
func (o *Orchestrator) RunSuggestions(ctx context.Context) {
	interval := o.cfg.SuggestionInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.suggestOnce(ctx, interval)
		}
	}
}

func (o *Orchestrator) suggestOnce(ctx context.Context, interval time.Duration) {
	if !o.state.DueForSuggestion(interval) {
		return
	}
	suggestions := o.f.Predict.ProactiveSuggestions()
	if len(suggestions) == 0 {
		return
	}
	o.speak(ctx, suggestions[0])
	o.metrics.ObserveIndicator("proactive_suggestion")
}

// chatFallback forwards unmatched commands to the language model with recent
// conversation context and the detected emotion annotation.
func (o *Orchestrator) chatFallback(ctx context.Context, req intent.Request) (intent.Response, error) {
	input := req.Command
	if req.Emotion != "neutral" && req.Emotion != "" {
		input = input + "\n(The user sounds " + req.Emotion + ".)"
	}
	resp, err := o.f.Brain.Reply(ctx, brain.Request{Input: input, Context: req.Context})
	if err != nil {
		o.metrics.BrainErrors.WithLabelValues(o.f.Brain.Name(), "reply").Inc()
		return intent.Response{}, err
	}
	return intent.Response{Speech: resp.Text}, nil
}
