package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single transcript entry. Ordering by CreatedAt defines
// the conversation transcript.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// SubmitMessageRequest is the request to submit an inbound lead message.
type SubmitMessageRequest struct {
	Content string `json:"content"`
}

// SubmitMessageResponse is the response after a processed turn.
type SubmitMessageResponse struct {
	Reply        string   `json:"reply"`
	Conversation Snapshot `json:"conversation"`
}

// TranscriptResponse is the operator view of a conversation with its messages.
type TranscriptResponse struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}
