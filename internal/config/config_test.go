package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WakeWord != "assistant" {
		t.Fatalf("WakeWord = %q, want %q", cfg.WakeWord, "assistant")
	}
	if cfg.ConversationWindow != 10*time.Second {
		t.Fatalf("ConversationWindow = %v, want 10s", cfg.ConversationWindow)
	}
	if cfg.SuggestionInterval != 30*time.Minute {
		t.Fatalf("SuggestionInterval = %v, want 30m", cfg.SuggestionInterval)
	}
	if cfg.BrainMode != "auto" {
		t.Fatalf("BrainMode = %q, want %q", cfg.BrainMode, "auto")
	}
	if cfg.BookWordsPerPage != 300 {
		t.Fatalf("BookWordsPerPage = %d, want 300", cfg.BookWordsPerPage)
	}
}

func TestLoadLowercasesWakeWord(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("KESTREL_WAKE_WORD", "Jarvis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WakeWord != "jarvis" {
		t.Fatalf("WakeWord = %q, want %q", cfg.WakeWord, "jarvis")
	}
}

func TestLoadRejectsShortConversationWindow(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("KESTREL_CONVERSATION_WINDOW", "250ms")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want window validation error")
	}
}

func TestLoadRejectsAmbiguousMemoryBackend(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/kestrel")
	t.Setenv("MEMORY_SQLITE_PATH", "/tmp/kestrel.db")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want backend conflict error")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"KESTREL_WAKE_WORD",
		"KESTREL_CONVERSATION_WINDOW",
		"KESTREL_SUGGESTION_INTERVAL",
		"KESTREL_DEVICE_ID",
		"BRAIN_MODE",
		"BRAIN_HTTP_URL",
		"BRAIN_API_KEY",
		"BRAIN_MODEL",
		"BRAIN_TIMEOUT",
		"OLLAMA_URL",
		"OLLAMA_MODEL",
		"DATABASE_URL",
		"MEMORY_SQLITE_PATH",
		"NEWS_API_KEY",
		"NEWS_FEED_URL",
		"FFMPEG_PATH",
		"TESSERACT_PATH",
		"MEDIA_WORK_DIR",
		"FED_SERVER_URL",
		"BOOK_WORDS_PER_PAGE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
