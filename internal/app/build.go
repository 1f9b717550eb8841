// Package app assembles the assistant service: memory store, brain
// adapters, feature modules, orchestrator, sessions, and the HTTP API.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrelworks/kestrel/internal/apps"
	"github.com/kestrelworks/kestrel/internal/assistant"
	"github.com/kestrelworks/kestrel/internal/biometrics"
	"github.com/kestrelworks/kestrel/internal/books"
	"github.com/kestrelworks/kestrel/internal/brain"
	"github.com/kestrelworks/kestrel/internal/config"
	"github.com/kestrelworks/kestrel/internal/emotion"
	"github.com/kestrelworks/kestrel/internal/fedsync"
	"github.com/kestrelworks/kestrel/internal/httpapi"
	"github.com/kestrelworks/kestrel/internal/lang"
	"github.com/kestrelworks/kestrel/internal/media"
	"github.com/kestrelworks/kestrel/internal/memory"
	"github.com/kestrelworks/kestrel/internal/messaging"
	"github.com/kestrelworks/kestrel/internal/news"
	"github.com/kestrelworks/kestrel/internal/observability"
	"github.com/kestrelworks/kestrel/internal/ocr"
	"github.com/kestrelworks/kestrel/internal/predict"
	"github.com/kestrelworks/kestrel/internal/session"
	"github.com/kestrelworks/kestrel/internal/voice"
)

const mediaTimeout = 2 * time.Minute

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *assistant.Orchestrator
	Metrics      *observability.Metrics
	BrainName    string
	Speaker      voice.Speaker
	Log          zerolog.Logger

	// Cleanup should be called on shutdown to release external resources
	// (DB handles, speech workers).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := memory.NewStore(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}

	adapter, err := buildBrain(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("brain init failed: %w", err)
	}
	applySavedAPIKey(ctx, store, adapter)
	log.Info().Str("brain", adapter.Name()).Msg("brain adapter ready")

	speaker := buildSpeaker(cfg, log)

	runner := media.NewRunner(cfg.FFmpegPath, cfg.MediaWorkDir, mediaTimeout)
	launcher := apps.NewLauncher()

	fed := fedsync.NewClient(cfg.FedServerURL, store)
	fed.SetDeviceID(cfg.DeviceID)

	f := assistant.Features{
		Memory:     store,
		Brain:      adapter,
		Emotion:    emotion.NewDetector(),
		Predict:    predict.NewLearner(),
		Lang:       lang.NewSelector(),
		Books:      books.NewReader(cfg.BookWordsPerPage, store),
		News:       news.NewClient(cfg.NewsAPIKey, cfg.NewsFeedURL),
		Editor:     media.NewEditor(runner),
		Stabilizer: media.NewStabilizer(runner),
		Audio:      media.NewAudioLab(runner),
		Memes:      media.NewMemeMaker(runner),
		OCR:        ocr.NewProcessor(cfg.TesseractPath),
		Messenger:  messaging.NewMessenger(store, launcher),
		Launcher:   launcher,
		FedSync:    fed,
	}

	orchestrator := assistant.NewOrchestrator(assistant.Config{
		WakeWord:           cfg.WakeWord,
		ConversationWindow: cfg.ConversationWindow,
		SuggestionInterval: cfg.SuggestionInterval,
		DocumentDir:        cfg.MediaWorkDir,
	}, f, speaker, log, metrics)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, sessions, orchestrator, httpapi.NewVoiceID(biometrics.NewRecognizer()), metrics, log)

	cleanup := func() error {
		var errs []string
		if err := speaker.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := store.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Metrics:      metrics,
		BrainName:    adapter.Name(),
		Speaker:      speaker,
		Log:          log,
		Cleanup:      cleanup,
	}, nil
}

// buildBrain wires every reachable backend so "use groq", "use openai", and
// "use ollama" can switch providers at runtime. The hosted adapters are
// registered even without a key so "set api key" can activate them later.
func buildBrain(cfg config.Config) (*brain.Switchable, error) {
	openai := brain.NewOpenAIAdapter(cfg.BrainHTTPURL, cfg.BrainAPIKey, cfg.BrainModel, cfg.BrainTimeout)
	groq := brain.NewGroqAdapter(cfg.GroqAPIKey, "", cfg.BrainTimeout)

	adapters := map[string]brain.Adapter{
		"mock":   brain.NewMockAdapter(),
		"openai": openai,
		"groq":   groq,
	}
	if strings.TrimSpace(cfg.OllamaURL) != "" {
		adapters["ollama"] = brain.NewOllamaAdapter(cfg.OllamaURL, cfg.OllamaModel, cfg.BrainTimeout)
	}

	current := strings.ToLower(strings.TrimSpace(cfg.BrainMode))
	switch current {
	case "", "auto":
		switch {
		case openai.HasKey():
			current = "openai"
		case groq.HasKey():
			current = "groq"
		case adapters["ollama"] != nil:
			current = "ollama"
		default:
			current = "mock"
		}
	case "openai":
		if !openai.HasKey() {
			return nil, fmt.Errorf("brain mode %q is not configured", current)
		}
	case "groq":
		if !groq.HasKey() {
			return nil, fmt.Errorf("brain mode %q is not configured", current)
		}
	case "ollama", "mock":
		if adapters[current] == nil {
			return nil, fmt.Errorf("brain mode %q is not configured", current)
		}
	default:
		return nil, fmt.Errorf("unsupported brain mode %q", cfg.BrainMode)
	}

	return brain.NewSwitchable(current, adapters)
}

// applySavedAPIKey restores a key saved through the "set api key" command in
// an earlier run. An explicit environment key wins over the stored one.
func applySavedAPIKey(ctx context.Context, store memory.Store, sw *brain.Switchable) {
	saved, ok, err := store.Preference(ctx, assistant.APIKeyPreference)
	if err != nil || !ok || saved == "" {
		return
	}
	a, found := sw.Adapter("openai")
	if !found {
		return
	}
	if oa, isOpenAI := a.(*brain.OpenAIAdapter); isOpenAI && !oa.HasKey() {
		oa.SetAPIKey(saved)
	}
}

// buildSpeaker prefers the configured synthesis command and falls back to
// logging when it fails or is absent.
func buildSpeaker(cfg config.Config, log zerolog.Logger) voice.Speaker {
	logSpeaker := voice.NewLogSpeaker(log)
	if strings.TrimSpace(cfg.TTSCommand) == "" {
		return logSpeaker
	}
	cmd, err := voice.NewCommandSpeaker(cfg.TTSCommand)
	if err != nil {
		log.Warn().Err(err).Msg("speech command rejected, logging replies instead")
		return logSpeaker
	}
	failover := voice.NewFailoverSpeaker(cmd, logSpeaker)
	failover.SetFallbackHook(func(err error) {
		log.Warn().Err(err).Msg("speech command failed, logging replies")
	})
	return failover
}
