// Package events defines the lead scoring events that cross module
// boundaries. Bus infrastructure lives in platform/events.
package events

import (
	"smartlead_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// LeadScored is published after a persisted lead received a new score.
// PreviousClassification is empty for a lead that was never scored.
type LeadScored struct {
	BaseEvent
	LeadID                 uuid.UUID `json:"leadId"`
	TenantID               uuid.UUID `json:"tenantId"`
	PreviousScore          int       `json:"previousScore"`
	PreviousClassification string    `json:"previousClassification,omitempty"`
	Score                  int       `json:"score"`
	Classification         string    `json:"classification"`
	Priority               string    `json:"priority"`
	Degraded               bool      `json:"degraded"`
}

func (e LeadScored) EventName() string { return "leads.lead.scored" }
