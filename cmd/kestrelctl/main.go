// Command kestrelctl drives a running kestrel server from the terminal:
// one-shot commands through the say endpoint, or a full session over the
// websocket stream with per-turn latency.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kestrelworks/kestrel/internal/protocol"
)

type options struct {
	baseURL string
	userID  string
	useWS   bool
	timeout time.Duration
	texts   []string
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kestrelctl: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "kestrelctl: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var timeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "kestrel base URL")
	flag.StringVar(&cfg.userID, "user-id", "kestrelctl", "user_id for the session")
	flag.BoolVar(&cfg.useWS, "ws", false, "stream through a session websocket instead of the say endpoint")
	flag.IntVar(&timeoutMS, "timeout-ms", 15000, "per-turn reply timeout in milliseconds")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if timeoutMS <= 0 {
		return options{}, fmt.Errorf("timeout-ms must be > 0")
	}
	cfg.timeout = time.Duration(timeoutMS) * time.Millisecond

	cfg.texts = flag.Args()
	if len(cfg.texts) == 0 {
		return options{}, fmt.Errorf("usage: kestrelctl [flags] \"assistant what is the time\" ...")
	}
	return cfg, nil
}

func run(cfg options) error {
	if cfg.useWS {
		return runWS(cfg)
	}
	for _, text := range cfg.texts {
		if err := sayOnce(cfg, text); err != nil {
			return err
		}
	}
	return nil
}

type sayRequest struct {
	Text string `json:"text"`
}

type sayResponse struct {
	Handled bool   `json:"handled"`
	Reply   string `json:"reply"`
}

func sayOnce(cfg options, text string) error {
	raw, err := json.Marshal(sayRequest{Text: text})
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := http.Post(cfg.baseURL+"/v1/assistant/say", "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("say failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out sayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if !out.Handled {
		fmt.Printf("(gated, %dms) %q\n", time.Since(start).Milliseconds(), text)
		return nil
	}
	fmt.Printf("(%dms) %s\n", time.Since(start).Milliseconds(), out.Reply)
	return nil
}

func runWS(cfg options) error {
	sessionID, err := createSession(cfg)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(cfg.baseURL, "http", "ws", 1) +
		"/v1/assistant/session/ws?session_id=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	for _, text := range cfg.texts {
		start := time.Now()
		err := conn.WriteJSON(protocol.ClientUtterance{
			Type:      protocol.TypeClientUtterance,
			SessionID: sessionID,
			Text:      text,
			Final:     true,
			TSMs:      start.UnixMilli(),
		})
		if err != nil {
			return err
		}
		if err := printTurn(conn, cfg.timeout, text, start); err != nil {
			return err
		}
	}

	return conn.WriteJSON(protocol.ClientControl{
		Type:      protocol.TypeClientControl,
		SessionID: sessionID,
		Action:    protocol.ActionEnd,
	})
}

func createSession(cfg options) (string, error) {
	raw, err := json.Marshal(map[string]string{"user_id": cfg.userID})
	if err != nil {
		return "", err
	}
	resp, err := http.Post(cfg.baseURL+"/v1/assistant/session", "application/json", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create session failed: %s", resp.Status)
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("create session returned no session_id")
	}
	return out.SessionID, nil
}

// printTurn reads frames until the turn resolves: a spoken reply, a gate
// notice, or an error event.
func printTurn(conn *websocket.Conn, timeout time.Duration, text string, start time.Time) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("turn %q: %w", text, err)
		}
		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		switch env.Type {
		case protocol.TypeAssistantSpeech:
			var msg protocol.AssistantSpeech
			if err := json.Unmarshal(raw, &msg); err != nil {
				return err
			}
			fmt.Printf("(%dms) %s\n", time.Since(start).Milliseconds(), msg.Text)
			return nil
		case protocol.TypeSystemEvent:
			var msg protocol.SystemEvent
			if err := json.Unmarshal(raw, &msg); err != nil {
				return err
			}
			fmt.Printf("(%s) %q\n", msg.Code, text)
			return nil
		case protocol.TypeErrorEvent:
			var msg protocol.ErrorEvent
			if err := json.Unmarshal(raw, &msg); err != nil {
				return err
			}
			return fmt.Errorf("server error %s: %s", msg.Code, msg.Detail)
		default:
			// state events and other notifications are informational
		}
	}
}
