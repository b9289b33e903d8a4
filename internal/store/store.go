// Package store provides persistence for conversations and messages.
package store

import (
	"context"
	"errors"

	"github.com/renato-saldanha/talk-to-api/internal/model"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// ConversationStore is the persistence contract consumed by the funnel
// orchestration layer.
type ConversationStore interface {
	// FindOrCreate loads the conversation for a phone number, creating a
	// fresh active one at collect_name when none exists. The second return
	// value reports whether a conversation was created.
	FindOrCreate(ctx context.Context, phoneNumber string) (*model.Conversation, bool, error)

	// Find loads the conversation for a phone number, or ErrNotFound.
	Find(ctx context.Context, phoneNumber string) (*model.Conversation, error)

	// Update applies a partial update and refreshes last_activity.
	Update(ctx context.Context, phoneNumber string, update model.ConversationUpdate) (*model.Conversation, error)

	// SetStatus changes only the conversation status, without touching
	// last_activity. Used for the expiry transition observed on load.
	SetStatus(ctx context.Context, phoneNumber string, status model.Status) error

	// AppendMessage appends a transcript entry.
	AppendMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error)

	// ListMessages returns the transcript ordered by creation time.
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	// List returns conversations ordered by recency, for the operator API.
	List(ctx context.Context, limit, offset int) ([]model.Conversation, int, error)
}
