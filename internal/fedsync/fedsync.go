// Package fedsync shares anonymized usage statistics with an aggregation
// server and applies the merged model back locally. Only aggregate counters
// leave the device; anything resembling personal data is stripped first.
package fedsync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelworks/kestrel/internal/policy"
	"github.com/kestrelworks/kestrel/internal/reliability"
)

const (
	commandCountPrefix = "cmd_count:"
	globalCountPrefix  = "global_cmd:"
	correctionPrefix   = "correction:"
	enabledKey         = "fedsync_enabled"
	deviceIDKey        = "fedsync_device_id"
)

const (
	retryAttempts = 3
	retryBase     = 500 * time.Millisecond
	retryCap      = 5 * time.Second
)

// Store is the slice of the memory store fedsync needs.
type Store interface {
	SetPreference(ctx context.Context, key, value string) error
	Preference(ctx context.Context, key string) (string, bool, error)
}

// Learnings is the anonymized payload exchanged with the server.
type Learnings struct {
	CommandFrequency map[string]int    `json:"command_frequency"`
	UsagePatterns    map[string]string `json:"usage_patterns,omitempty"`
	Corrections      map[string]string `json:"error_corrections,omitempty"`
}

type update struct {
	DeviceID  string    `json:"device_id"`
	Learnings Learnings `json:"learnings"`
	Timestamp int64     `json:"timestamp"`
}

type Client struct {
	serverURL string
	deviceID  string
	store     Store
	http      *http.Client
}

func NewClient(serverURL string, store Store) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		store:     store,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// SetDeviceID pins the device identifier instead of minting one. The ID is
// still hashed before it leaves the device.
func (c *Client) SetDeviceID(id string) { c.deviceID = strings.TrimSpace(id) }

// SetHTTPClient overrides the HTTP client. Intended for tests.
func (c *Client) SetHTTPClient(hc *http.Client) { c.http = hc }

// do sends a request, retrying transient server failures with capped
// exponential backoff. Sync runs in the background, so a briefly unavailable
// aggregation server should not lose the round. build runs per attempt so
// each request gets a fresh body.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt-1, retryBase, retryCap)):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		res, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if reliability.IsRetryableHTTPStatus(res.StatusCode) && attempt < retryAttempts-1 {
			res.Body.Close()
			continue
		}
		return res, nil
	}
	return nil, lastErr
}

// RecordCommand bumps the local usage counter for an intent.
func (c *Client) RecordCommand(ctx context.Context, intent string) error {
	key := commandCountPrefix + intent
	n := 0
	if v, ok, err := c.store.Preference(ctx, key); err != nil {
		return err
	} else if ok {
		n, _ = strconv.Atoi(v)
	}
	return c.store.SetPreference(ctx, key, strconv.Itoa(n+1))
}

// CommandCount reads the local usage counter for an intent.
func (c *Client) CommandCount(ctx context.Context, intent string) (int, error) {
	v, ok, err := c.store.Preference(ctx, commandCountPrefix+intent)
	if err != nil || !ok {
		return 0, err
	}
	n, _ := strconv.Atoi(v)
	return n, nil
}

// SetEnabled turns sharing on or off. Sharing is off until enabled.
func (c *Client) SetEnabled(ctx context.Context, enabled bool) error {
	return c.store.SetPreference(ctx, enabledKey, strconv.FormatBool(enabled))
}

func (c *Client) Enabled(ctx context.Context) (bool, error) {
	v, ok, err := c.store.Preference(ctx, enabledKey)
	if err != nil || !ok {
		return false, err
	}
	return v == "true", nil
}

// DeviceID returns a stable hashed device identifier, preferring the
// configured one and generating a UUID on first use otherwise. The raw
// identifier never leaves the device.
func (c *Client) DeviceID(ctx context.Context) (string, error) {
	if c.deviceID != "" {
		sum := sha256.Sum256([]byte(c.deviceID))
		return hex.EncodeToString(sum[:8]), nil
	}
	raw, ok, err := c.store.Preference(ctx, deviceIDKey)
	if err != nil {
		return "", err
	}
	if !ok {
		raw = uuid.NewString()
		if err := c.store.SetPreference(ctx, deviceIDKey, raw); err != nil {
			return "", err
		}
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8]), nil
}

// Anonymize drops keys that look like personal identifiers and redacts PII
// patterns from the remaining string values.
func Anonymize(l Learnings) Learnings {
	out := Learnings{
		CommandFrequency: make(map[string]int, len(l.CommandFrequency)),
		UsagePatterns:    make(map[string]string, len(l.UsagePatterns)),
		Corrections:      make(map[string]string, len(l.Corrections)),
	}
	for k, v := range l.CommandFrequency {
		if personalKey(k) {
			continue
		}
		out.CommandFrequency[k] = v
	}
	for k, v := range l.UsagePatterns {
		if personalKey(k) {
			continue
		}
		red, _ := policy.RedactPII(v)
		out.UsagePatterns[k] = red
	}
	for k, v := range l.Corrections {
		if personalKey(k) || personalKey(v) {
			continue
		}
		red, _ := policy.RedactPII(v)
		out.Corrections[k] = red
	}
	return out
}

func personalKey(k string) bool {
	k = strings.ToLower(k)
	return strings.Contains(k, "name") ||
		strings.Contains(k, "email") ||
		strings.Contains(k, "phone")
}

// Collect assembles the local learnings for the given intents.
func (c *Client) Collect(ctx context.Context, intents []string) (Learnings, error) {
	l := Learnings{CommandFrequency: make(map[string]int)}
	for _, intent := range intents {
		n, err := c.CommandCount(ctx, intent)
		if err != nil {
			return Learnings{}, err
		}
		if n > 0 {
			l.CommandFrequency[intent] = n
		}
	}
	return l, nil
}

// Upload sends anonymized learnings to the server.
func (c *Client) Upload(ctx context.Context, l Learnings) error {
	if c.serverURL == "" {
		return fmt.Errorf("fedsync: no server configured")
	}
	deviceID, err := c.DeviceID(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(update{
		DeviceID:  deviceID,
		Learnings: Anonymize(l),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/upload", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("fedsync upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fedsync upload: status %d", resp.StatusCode)
	}
	return nil
}

// Download fetches the aggregated global model.
func (c *Client) Download(ctx context.Context) (Learnings, error) {
	if c.serverURL == "" {
		return Learnings{}, fmt.Errorf("fedsync: no server configured")
	}
	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/download", nil)
	})
	if err != nil {
		return Learnings{}, fmt.Errorf("fedsync download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Learnings{}, fmt.Errorf("fedsync download: status %d", resp.StatusCode)
	}
	var payload struct {
		Learnings Learnings `json:"learnings"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return Learnings{}, fmt.Errorf("fedsync download: %w", err)
	}
	return payload.Learnings, nil
}

// Apply stores the global model locally under separate keys so it never
// overwrites local counters.
func (c *Client) Apply(ctx context.Context, l Learnings) error {
	for intent, n := range l.CommandFrequency {
		if err := c.store.SetPreference(ctx, globalCountPrefix+intent, strconv.Itoa(n)); err != nil {
			return err
		}
	}
	for wrong, right := range l.Corrections {
		if err := c.store.SetPreference(ctx, correctionPrefix+wrong, right); err != nil {
			return err
		}
	}
	return nil
}

// Correction returns the learned correction for a misrecognized word.
func (c *Client) Correction(ctx context.Context, word string) (string, bool, error) {
	return c.store.Preference(ctx, correctionPrefix+word)
}

// Sync uploads local learnings for the given intents and applies the
// downloaded global model. It is a no-op until sharing is enabled.
func (c *Client) Sync(ctx context.Context, intents []string) error {
	enabled, err := c.Enabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	local, err := c.Collect(ctx, intents)
	if err != nil {
		return err
	}
	if err := c.Upload(ctx, local); err != nil {
		return err
	}
	global, err := c.Download(ctx)
	if err != nil {
		return err
	}
	return c.Apply(ctx, global)
}
