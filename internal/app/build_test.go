package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrelworks/kestrel/internal/assistant"
	"github.com/kestrelworks/kestrel/internal/config"
	"github.com/kestrelworks/kestrel/internal/memory"
	"github.com/kestrelworks/kestrel/internal/voice"
)

var namespaceSeq atomic.Int64

func testConfig() config.Config {
	return config.Config{
		BindAddr:                 "127.0.0.1:0",
		MetricsNamespace:         fmt.Sprintf("kestrelapp%d", namespaceSeq.Add(1)),
		WakeWord:                 "assistant",
		ConversationWindow:       10 * time.Second,
		SuggestionInterval:       30 * time.Minute,
		SessionInactivityTimeout: 2 * time.Minute,
		ShutdownTimeout:          time.Second,
		BrainMode:                "mock",
		BrainTimeout:             time.Second,
		FFmpegPath:               "ffmpeg",
		TesseractPath:            "tesseract",
		BookWordsPerPage:         300,
	}
}

func TestBuildWiresTheAssistant(t *testing.T) {
	cfg := testConfig()
	cfg.MediaWorkDir = t.TempDir()

	b, err := Build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer b.Cleanup()

	if b.BrainName != "switchable:mock" {
		t.Fatalf("BrainName = %q", b.BrainName)
	}
	if reply, ok := b.Orchestrator.HandleUtterance(context.Background(), "assistant what is the time"); !ok || reply == "" {
		t.Fatalf("HandleUtterance() = %q, %v", reply, ok)
	}
}

func TestBuildRejectsUnconfiguredBrainMode(t *testing.T) {
	cfg := testConfig()
	cfg.MediaWorkDir = t.TempDir()
	cfg.BrainMode = "openai"

	if _, err := Build(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("Build() accepted openai mode without an API key")
	}
}

func TestBuildFallsBackToLogSpeaker(t *testing.T) {
	cfg := testConfig()
	cfg.MediaWorkDir = t.TempDir()
	cfg.TTSCommand = ""

	b, err := Build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer b.Cleanup()
	if b.Speaker == nil {
		t.Fatal("no speaker wired")
	}
}

func TestListenDrainsRecognizer(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MediaWorkDir = t.TempDir()

	b, err := Build(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer b.Cleanup()

	rec := voice.NewMockRecognizer()
	rec.Emit("assistant take a note", false)
	rec.Emit("assistant take a note buy milk", true)
	rec.Close()
	b.Listen(ctx, rec)

	reply, ok := b.Orchestrator.HandleUtterance(ctx, "assistant read my notes")
	if !ok || !strings.Contains(reply, "buy milk") {
		t.Fatalf("read my notes after Listen: reply = %q ok = %v", reply, ok)
	}
}

func TestBuildRestoresSavedAPIKey(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "memory.db")

	store, err := memory.NewStore(ctx, "", dbPath)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.SetPreference(ctx, assistant.APIKeyPreference, "sk-saved"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	cfg := testConfig()
	cfg.MediaWorkDir = t.TempDir()
	cfg.SQLitePath = dbPath

	b, err := Build(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer b.Cleanup()

	reply, ok := b.Orchestrator.HandleUtterance(ctx, "assistant use openai")
	if !ok || reply != "Switched to openai." {
		t.Fatalf("use openai with restored key: reply = %q ok = %v", reply, ok)
	}
}
