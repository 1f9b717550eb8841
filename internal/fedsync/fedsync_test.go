package fedsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kestrelworks/kestrel/internal/memory"
)

func TestRecordAndCollect(t *testing.T) {
	ctx := context.Background()
	c := NewClient("", memory.NewInMemoryStore())

	for i := 0; i < 3; i++ {
		if err := c.RecordCommand(ctx, "weather"); err != nil {
			t.Fatalf("RecordCommand() error = %v", err)
		}
	}
	if err := c.RecordCommand(ctx, "news"); err != nil {
		t.Fatalf("RecordCommand() error = %v", err)
	}

	l, err := c.Collect(ctx, []string{"weather", "news", "unused"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if l.CommandFrequency["weather"] != 3 || l.CommandFrequency["news"] != 1 {
		t.Fatalf("CommandFrequency = %v", l.CommandFrequency)
	}
	if _, ok := l.CommandFrequency["unused"]; ok {
		t.Fatal("Collect() included a zero counter")
	}
}

func TestAnonymize(t *testing.T) {
	l := Learnings{
		CommandFrequency: map[string]int{"weather": 2, "call_phone_number": 1},
		UsagePatterns:    map[string]string{"note": "mail me at bob@example.com"},
		Corrections:      map[string]string{"weather": "whether"},
	}
	out := Anonymize(l)
	if _, ok := out.CommandFrequency["call_phone_number"]; ok {
		t.Fatal("Anonymize() kept a personal key")
	}
	if out.CommandFrequency["weather"] != 2 {
		t.Fatal("Anonymize() dropped a safe counter")
	}
	if out.UsagePatterns["note"] != "mail me at [REDACTED_EMAIL]" {
		t.Fatalf("UsagePatterns = %q", out.UsagePatterns["note"])
	}
	if out.Corrections["weather"] != "whether" {
		t.Fatalf("Corrections = %v", out.Corrections)
	}
}

func TestDeviceIDStableAndHashed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	c := NewClient("", store)

	id1, err := c.DeviceID(ctx)
	if err != nil {
		t.Fatalf("DeviceID() error = %v", err)
	}
	id2, err := c.DeviceID(ctx)
	if err != nil {
		t.Fatalf("DeviceID() error = %v", err)
	}
	if id1 != id2 {
		t.Fatalf("DeviceID() unstable: %q vs %q", id1, id2)
	}
	if len(id1) != 16 {
		t.Fatalf("DeviceID() len = %d, want 16 hex chars", len(id1))
	}
	raw, _, _ := store.Preference(ctx, deviceIDKey)
	if raw == id1 {
		t.Fatal("DeviceID() leaked the raw identifier")
	}
}

func TestSyncRoundTrip(t *testing.T) {
	ctx := context.Background()
	var uploaded update
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			if err := json.NewDecoder(r.Body).Decode(&uploaded); err != nil {
				t.Errorf("decode upload: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		case "/download":
			json.NewEncoder(w).Encode(map[string]any{
				"learnings": Learnings{
					CommandFrequency: map[string]int{"weather": 120},
					Corrections:      map[string]string{"weather": "whether"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := memory.NewInMemoryStore()
	c := NewClient(srv.URL, store)
	if err := c.SetEnabled(ctx, true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if err := c.RecordCommand(ctx, "weather"); err != nil {
		t.Fatalf("RecordCommand() error = %v", err)
	}

	if err := c.Sync(ctx, []string{"weather"}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if uploaded.DeviceID == "" {
		t.Fatal("upload missing device id")
	}
	if uploaded.Learnings.CommandFrequency["weather"] != 1 {
		t.Fatalf("uploaded frequency = %v", uploaded.Learnings.CommandFrequency)
	}

	v, ok, err := store.Preference(ctx, globalCountPrefix+"weather")
	if err != nil || !ok || v != "120" {
		t.Fatalf("global count = %q, %v, %v", v, ok, err)
	}
	fix, ok, err := c.Correction(ctx, "weather")
	if err != nil || !ok || fix != "whether" {
		t.Fatalf("Correction() = %q, %v, %v", fix, ok, err)
	}
}

func TestSyncDisabledIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called while disabled")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, memory.NewInMemoryStore())
	if err := c.Sync(context.Background(), []string{"weather"}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func TestUploadNoServer(t *testing.T) {
	c := NewClient("", memory.NewInMemoryStore())
	if err := c.Upload(context.Background(), Learnings{}); err == nil {
		t.Fatal("Upload() expected error without server")
	}
}

func TestUploadRetriesTransientServerFailure(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, memory.NewInMemoryStore())
	if err := c.Upload(ctx, Learnings{}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("server hit %d times, want 3", got)
	}
}

func TestUploadGivesUpAfterRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, memory.NewInMemoryStore())
	if err := c.Upload(context.Background(), Learnings{}); err == nil {
		t.Fatal("Upload() error = nil against a failing server")
	}
	if got := hits.Load(); got != retryAttempts {
		t.Fatalf("server hit %d times, want %d", got, retryAttempts)
	}
}

func TestConfiguredDeviceIDIsHashed(t *testing.T) {
	ctx := context.Background()
	c := NewClient("", memory.NewInMemoryStore())
	c.SetDeviceID("kitchen-tablet")

	id, err := c.DeviceID(ctx)
	if err != nil {
		t.Fatalf("DeviceID() error = %v", err)
	}
	if id == "kitchen-tablet" {
		t.Fatal("DeviceID() leaked the configured identifier")
	}
	if len(id) != 16 {
		t.Fatalf("DeviceID() len = %d, want 16 hex chars", len(id))
	}
	again, _ := c.DeviceID(ctx)
	if again != id {
		t.Fatalf("DeviceID() unstable: %q vs %q", id, again)
	}
}
