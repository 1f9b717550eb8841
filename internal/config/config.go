package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string

	AllowAnyOrigin bool

	// TTSCommand is an optional synthesis command line ("espeak -s 150").
	// When empty, server-side speech goes to the log only.
	TTSCommand string

	WakeWord                 string
	ConversationWindow       time.Duration
	SuggestionInterval       time.Duration
	SessionInactivityTimeout time.Duration

	BrainMode    string
	BrainHTTPURL string
	BrainAPIKey  string
	BrainModel   string
	GroqAPIKey   string
	OllamaURL    string
	OllamaModel  string
	BrainTimeout time.Duration

	DatabaseURL string
	SQLitePath  string

	NewsAPIKey  string
	NewsFeedURL string

	FFmpegPath    string
	TesseractPath string
	MediaWorkDir  string

	FedServerURL string
	DeviceID     string

	// ListenStdin drains standard input as a line-per-utterance recognizer,
	// for consoles and piped speech engines.
	ListenStdin bool

	BookWordsPerPage int
}

// Load reads an optional .env file plus environment variables and applies safe defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "kestrel"),
		LogLevel:         envOrDefault("APP_LOG_LEVEL", "info"),
		AllowAnyOrigin:   false,
		TTSCommand:       stringsTrimSpace("KESTREL_TTS_COMMAND"),
		// "assistant" is the out-of-box trigger; users change it with the
		// "change wake word to ..." command.
		WakeWord:                 strings.ToLower(envOrDefault("KESTREL_WAKE_WORD", "assistant")),
		BrainMode:                envOrDefault("BRAIN_MODE", "auto"),
		BrainHTTPURL:             stringsTrimSpace("BRAIN_HTTP_URL"),
		BrainAPIKey:              stringsTrimSpace("BRAIN_API_KEY"),
		BrainModel:               envOrDefault("BRAIN_MODEL", "gpt-3.5-turbo"),
		GroqAPIKey:               stringsTrimSpace("GROQ_API_KEY"),
		OllamaURL:                envOrDefault("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:              envOrDefault("OLLAMA_MODEL", "llama2"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		SQLitePath:               stringsTrimSpace("MEMORY_SQLITE_PATH"),
		NewsAPIKey:               stringsTrimSpace("NEWS_API_KEY"),
		NewsFeedURL:              envOrDefault("NEWS_FEED_URL", "https://feeds.bbci.co.uk/news/rss.xml"),
		FFmpegPath:               envOrDefault("FFMPEG_PATH", "ffmpeg"),
		TesseractPath:            envOrDefault("TESSERACT_PATH", "tesseract"),
		MediaWorkDir:             envOrDefault("MEDIA_WORK_DIR", os.TempDir()),
		FedServerURL:             stringsTrimSpace("FED_SERVER_URL"),
		DeviceID:                 stringsTrimSpace("KESTREL_DEVICE_ID"),
		ListenStdin:              envOrDefault("KESTREL_LISTEN_STDIN", "") == "true",
		BookWordsPerPage:         300,
		ShutdownTimeout:          15 * time.Second,
		ConversationWindow:       10 * time.Second,
		SuggestionInterval:       30 * time.Minute,
		SessionInactivityTimeout: 2 * time.Minute,
		BrainTimeout:             60 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationWindow, err = durationFromEnv("KESTREL_CONVERSATION_WINDOW", cfg.ConversationWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.SuggestionInterval, err = durationFromEnv("KESTREL_SUGGESTION_INTERVAL", cfg.SuggestionInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainTimeout, err = durationFromEnv("BRAIN_TIMEOUT", cfg.BrainTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BookWordsPerPage, err = intFromEnv("BOOK_WORDS_PER_PAGE", cfg.BookWordsPerPage)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.WakeWord) == "" {
		return Config{}, fmt.Errorf("KESTREL_WAKE_WORD must not be blank")
	}
	if cfg.ConversationWindow < time.Second {
		return Config{}, fmt.Errorf("KESTREL_CONVERSATION_WINDOW must be at least 1s")
	}
	if cfg.SuggestionInterval < time.Minute {
		return Config{}, fmt.Errorf("KESTREL_SUGGESTION_INTERVAL must be at least 1m")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.BookWordsPerPage <= 0 {
		return Config{}, fmt.Errorf("BOOK_WORDS_PER_PAGE must be positive")
	}
	if cfg.DatabaseURL != "" && cfg.SQLitePath != "" {
		return Config{}, fmt.Errorf("set DATABASE_URL or MEMORY_SQLITE_PATH, not both")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
