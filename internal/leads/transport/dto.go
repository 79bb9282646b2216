package transport

import (
	"strings"
	"time"

	"smartlead_backend/internal/leads/scoring"
	"smartlead_backend/platform/phone"
	"smartlead_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ScoreLeadRequest is an ad-hoc lead to score. It carries no id: stored
// leads are scored through the rescore endpoint, so engagement history and
// cached adjustments are never attached to client-supplied data.
type ScoreLeadRequest struct {
	Email             string     `json:"email" validate:"required,max=320"`
	Name              string     `json:"name" validate:"max=200"`
	Company           string     `json:"company" validate:"max=200"`
	JobTitle          string     `json:"jobTitle" validate:"max=200"`
	Phone             string     `json:"phone" validate:"omitempty,max=40,phone"`
	LinkedInURL       string     `json:"linkedinUrl" validate:"omitempty,max=500,url"`
	Website           string     `json:"website" validate:"omitempty,max=500"`
	Source            *string    `json:"source,omitempty" validate:"omitempty,max=100"`
	Notes             string     `json:"notes" validate:"max=5000"`
	EstimatedBudget   *int64     `json:"estimatedBudget,omitempty" validate:"omitempty,gte=0"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
}

// ToLead maps the request onto a scoring lead owned by tenantID. Notes are
// stripped of HTML and the phone number is normalized to E.164.
func (r ScoreLeadRequest) ToLead(tenantID uuid.UUID) scoring.Lead {
	return scoring.Lead{
		TenantID:          tenantID,
		Email:             strings.TrimSpace(r.Email),
		Name:              strings.TrimSpace(r.Name),
		Company:           strings.TrimSpace(r.Company),
		JobTitle:          strings.TrimSpace(r.JobTitle),
		Phone:             phone.NormalizeE164(r.Phone, ""),
		LinkedInURL:       strings.TrimSpace(r.LinkedInURL),
		Website:           strings.TrimSpace(r.Website),
		Source:            r.Source,
		Notes:             sanitize.Text(r.Notes),
		EstimatedBudget:   r.EstimatedBudget,
		ExpectedCloseDate: r.ExpectedCloseDate,
	}
}

// ScoreResponse is returned by the score and rescore endpoints.
type ScoreResponse struct {
	LeadID          *uuid.UUID             `json:"leadId,omitempty"`
	Score           int                    `json:"score"`
	Classification  scoring.Classification `json:"classification"`
	Priority        scoring.Priority       `json:"priority"`
	Recommendations []string               `json:"recommendations"`
	Breakdown       scoring.Breakdown      `json:"breakdown"`
	LastScoredAt    *time.Time             `json:"lastScoredAt,omitempty"`
}

// NewScoreResponse builds a response for lead and its result.
func NewScoreResponse(lead scoring.Lead, result scoring.Result) ScoreResponse {
	resp := ScoreResponse{
		Score:           result.Score,
		Classification:  result.Classification,
		Priority:        result.Priority,
		Recommendations: result.Recommendations,
		Breakdown:       result.Breakdown,
		LastScoredAt:    lead.LastScoredAt,
	}
	if lead.HasID() {
		id := lead.ID
		resp.LeadID = &id
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []string{}
	}
	return resp
}

type BatchScoreRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds" validate:"required,min=1,max=500"`
}

type BatchScoreResponse struct {
	Scores map[uuid.UUID]int `json:"scores"`
}

type ClassifyRequest struct {
	Score int `form:"score" validate:"gte=0,lte=100"`
}

type ClassifyResponse struct {
	Score          int                    `json:"score"`
	Classification scoring.Classification `json:"classification"`
	Priority       scoring.Priority       `json:"priority"`
}

// RescoreStaleRequest asks for a background rescore of leads last scored
// more than StaleAfter ago (Go duration syntax, e.g. "72h").
type RescoreStaleRequest struct {
	StaleAfter string `json:"staleAfter" validate:"omitempty,max=32"`
	Limit      int    `json:"limit" validate:"omitempty,gte=1,lte=10000"`
}

type RescoreStaleResponse struct {
	TaskID      string    `json:"taskId"`
	StaleBefore time.Time `json:"staleBefore"`
	Limit       int       `json:"limit"`
}
