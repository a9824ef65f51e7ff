// Package session keeps the sliding conversation window per user.
package session

import (
	"context"
	"time"

	"github.com/havenmind/havenmind-ai-platform/internal/llm"
)

// DefaultWindow is the number of most recent turns kept per user.
const DefaultWindow = 6

// DefaultTTL bounds how long an idle session survives in persistent stores.
const DefaultTTL = 24 * time.Hour

// Turn is one exchange entry in a session window.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Message converts a turn into a chat message for prompt assembly.
func (t Turn) Message() llm.ChatMessage {
	return llm.ChatMessage{Role: t.Role, Content: t.Content}
}

// Store holds per-user conversation windows. Appends past the window drop
// the oldest turns first, and users never see each other's history.
type Store interface {
	// Append adds a turn to the user's window, trimming it to the window
	// size.
	Append(ctx context.Context, userID string, turn Turn) error
	// History returns the user's window oldest first.
	History(ctx context.Context, userID string) ([]Turn, error)
	// Clear removes the user's window.
	Clear(ctx context.Context, userID string) error
}

// Recent returns the user's last n turns oldest first, without mutating the
// window.
func Recent(ctx context.Context, s Store, userID string, n int) ([]Turn, error) {
	turns, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns, nil
}

// trimWindow keeps the newest window entries of turns.
func trimWindow(turns []Turn, window int) []Turn {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(turns) <= window {
		return turns
	}
	return turns[len(turns)-window:]
}
