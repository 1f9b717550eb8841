package memory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Retention caps. When a cap is reached the oldest item is evicted first.
const (
	MaxNotes     = 100
	MaxExchanges = 50
)

// contextDepth is how many recent exchanges feed the model prompt.
const contextDepth = 3

// Note is a single remembered fact ("remember that ...").
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange is one user utterance paired with the assistant's reply.
type Exchange struct {
	ID        string    `json:"id"`
	UserInput string    `json:"user_input"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notes, conversation exchanges, and user preferences.
// All list results are in chronological order, oldest first.
type Store interface {
	SaveNote(ctx context.Context, text string) error
	RecentNotes(ctx context.Context, limit int) ([]Note, error)
	SearchNotes(ctx context.Context, query string) ([]Note, error)

	SaveExchange(ctx context.Context, userInput, response string) error
	RecentExchanges(ctx context.Context, limit int) ([]Exchange, error)

	SetPreference(ctx context.Context, key, value string) error
	Preference(ctx context.Context, key string) (string, bool, error)

	Counts(ctx context.Context) (notes int, exchanges int, err error)
	ClearOlderThan(ctx context.Context, cutoff time.Time) error
	Close() error
}

// ConversationContext formats the most recent exchanges for prompt injection.
// An empty store yields an empty string.
func ConversationContext(ctx context.Context, s Store) (string, error) {
	exchanges, err := s.RecentExchanges(ctx, contextDepth)
	if err != nil {
		return "", fmt.Errorf("recent exchanges: %w", err)
	}
	return FormatContext(exchanges), nil
}

// FormatContext renders exchanges as alternating User/Assistant lines.
func FormatContext(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	parts := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		parts = append(parts, fmt.Sprintf("User: %s\nAssistant: %s", ex.UserInput, ex.Response))
	}
	return strings.Join(parts, "\n")
}
