package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Classification is the coarse temperature bucket derived from a score.
type Classification string

const (
	ClassificationHot  Classification = "HOT"
	ClassificationWarm Classification = "WARM"
	ClassificationCold Classification = "COLD"
)

// Priority is the action-urgency bucket derived from a score.
type Priority string

const (
	PriorityImmediate Priority = "IMMEDIATE"
	PriorityHigh      Priority = "HIGH"
	PriorityMedium    Priority = "MEDIUM"
	PriorityLow       Priority = "LOW"
)

// Lead is the scoring input. Only Score, Classification and LastScoredAt are
// ever written by the engine, and only through UpdateLead.
type Lead struct {
	ID                uuid.UUID // uuid.Nil before the lead is persisted
	TenantID          uuid.UUID
	Email             string
	Name              string
	Company           string
	JobTitle          string
	Phone             string
	LinkedInURL       string
	Website           string
	Source            *string
	Notes             string
	EstimatedBudget   *int64
	ExpectedCloseDate *time.Time

	Score          int
	Classification Classification
	LastScoredAt   *time.Time
}

// HasID reports whether the lead has been persisted.
func (l Lead) HasID() bool {
	return l.ID != uuid.Nil
}

// identifiable reports whether the lead carries anything a salesperson could
// act on. Leads failing this are still scored.
func (l Lead) identifiable() bool {
	for _, v := range []string{l.Email, l.Name, l.Company, l.Phone, l.LinkedInURL, l.Website} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Interaction is a recorded touchpoint with a lead.
type Interaction struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Type      string
	CreatedAt time.Time
}

// InteractionStore lists the interaction history of a lead within its
// tenant. Order is not significant. Implementations may block.
type InteractionStore interface {
	ListByLead(ctx context.Context, tenantID, leadID uuid.UUID) ([]Interaction, error)
}

// Adjuster supplies the optional external score adjustment in [-20, 20].
// Adjust never fails; any problem yields 0.
type Adjuster interface {
	Adjust(ctx context.Context, lead Lead) int
	Invalidate(ctx context.Context, leadID uuid.UUID)
}

// Breakdown exposes the sub-scores behind a result.
type Breakdown struct {
	Rule       int  `json:"rule"`
	Engagement int  `json:"engagement"`
	BANT       int  `json:"bant"`
	Adjustment int  `json:"aiAdjustment"`
	Degraded   bool `json:"degraded"`
}

// Result is the output of a scoring run.
type Result struct {
	Score           int            `json:"score"`
	Classification  Classification `json:"classification"`
	Priority        Priority       `json:"priority"`
	Recommendations []string       `json:"recommendations"`
	Breakdown       Breakdown      `json:"breakdown"`
}

// Stage names the step a scoring run is in. Used for logging failures.
type Stage string

const (
	StageReady      Stage = "ready"
	StageScoring    Stage = "scoring"
	StageAggregated Stage = "aggregated"
	StageLLM        Stage = "llm"
	StageClassified Stage = "classified"
	StageDone       Stage = "done"
)
