// Package events publishes lead lifecycle events for downstream consumers
// such as the clinic's CRM. Publishing is best-effort: a broker outage never
// affects a turn.
package events

import (
	"context"
	"time"

	"github.com/renato-saldanha/talk-to-api/internal/model"
)

// Type identifies a lead lifecycle event.
type Type string

const (
	TypeLeadCreated   Type = "lead_created"
	TypeLeadQualified Type = "lead_qualified"
	TypeLeadRejected  Type = "lead_rejected"
	TypeLeadExpired   Type = "lead_expired"
)

// LeadEvent is the payload published for a lead lifecycle change.
type LeadEvent struct {
	Type        Type             `json:"type"`
	PhoneNumber string           `json:"phone_number"`
	Status      model.Status     `json:"status"`
	FunnelStep  model.FunnelStep `json:"funnel_step"`
	Name        *string          `json:"name,omitempty"`
	BirthDate   *string          `json:"birth_date,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// Publisher emits lead lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event *LeadEvent) error
}

// NopPublisher discards events. Used when no broker is configured and in
// tests.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(ctx context.Context, event *LeadEvent) error {
	return nil
}
