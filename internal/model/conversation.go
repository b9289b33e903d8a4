// Package model defines data structures for the lead qualification funnel.
package model

import (
	"time"
)

// Status represents the lifecycle status of a conversation.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusQualified Status = "qualified"
	StatusRejected  Status = "rejected"
)

// Terminal reports whether the status accepts no further turns.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusQualified || s == StatusRejected
}

// FunnelStep represents the active step of the qualification funnel.
type FunnelStep string

const (
	StepCollectName             FunnelStep = "collect_name"
	StepCollectBirthDate        FunnelStep = "collect_birth_date"
	StepCollectWeightLossReason FunnelStep = "collect_weight_loss_reason"
	StepQualified               FunnelStep = "qualified"
	StepRejected                FunnelStep = "rejected"
)

// Terminal reports whether the step resolves the funnel.
func (s FunnelStep) Terminal() bool {
	return s == StepQualified || s == StepRejected
}

// Fields holds the data collected from the lead. A nil pointer means the
// field has not been collected yet; fields are filled monotonically and
// never reset by a turn.
type Fields struct {
	Name             *string `json:"name,omitempty"`
	BirthDate        *string `json:"birth_date,omitempty"` // YYYY-MM-DD
	WeightLossReason *string `json:"weight_loss_reason,omitempty"`
	Qualified        *bool   `json:"qualified,omitempty"`
}

// Conversation represents a phone-number-identified funnel conversation.
type Conversation struct {
	ID           string     `json:"id"`
	PhoneNumber  string     `json:"phone_number"`
	Status       Status     `json:"status"`
	FunnelStep   FunnelStep `json:"funnel_step"`
	Fields       Fields     `json:"fields"`
	LastActivity time.Time  `json:"last_activity"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Snapshot is the redacted public view of a conversation. It carries no
// transcript and no internal scores.
type Snapshot struct {
	PhoneNumber string         `json:"phone_number"`
	Status      Status         `json:"status"`
	FunnelStep  FunnelStep     `json:"funnel_step"`
	Fields      SnapshotFields `json:"fields"`
}

// SnapshotFields is the public projection of collected fields.
type SnapshotFields struct {
	Name             *string `json:"name,omitempty"`
	BirthDate        *string `json:"birth_date,omitempty"`
	WeightLossReason *string `json:"weight_loss_reason,omitempty"`
}

// Snapshot projects the conversation to its public view.
func (c *Conversation) Snapshot() Snapshot {
	return Snapshot{
		PhoneNumber: c.PhoneNumber,
		Status:      c.Status,
		FunnelStep:  c.FunnelStep,
		Fields: SnapshotFields{
			Name:             c.Fields.Name,
			BirthDate:        c.Fields.BirthDate,
			WeightLossReason: c.Fields.WeightLossReason,
		},
	}
}

// ConversationUpdate is a partial update applied to a conversation after a
// turn. Nil members are left untouched by the store.
type ConversationUpdate struct {
	Status     *Status
	FunnelStep *FunnelStep
	Fields     *Fields
	FinishedAt *time.Time
}

// ListConversationsResponse is the response for the operator listing endpoint.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	HasMore       bool           `json:"has_more"`
}
