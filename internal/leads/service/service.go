// Package service coordinates lead scoring with persistence, events and the
// background rescoring queue.
package service

import (
	"context"
	"errors"
	"time"

	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/scoring"
	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultRescoreLimit = 500
	rescorePageSize     = 100
)

// LeadStore is the persistence the service needs.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (scoring.Lead, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID) ([]scoring.Lead, error)
	ListLeadsForRescoring(ctx context.Context, tenantID *uuid.UUID, staleBefore time.Time, afterID uuid.UUID, limit int) ([]scoring.Lead, error)
	UpdateLeadScore(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, score int, classification scoring.Classification, scoredAt time.Time) error
}

// RescoreScheduler enqueues background rescoring.
type RescoreScheduler interface {
	EnqueueLeadRescore(ctx context.Context, tenantID uuid.UUID, staleBefore time.Time, limit int) (string, error)
}

type Service struct {
	repo       LeadStore
	scorer     *scoring.Service
	bus        events.Publisher
	scheduler  RescoreScheduler
	log        *logger.Logger
	staleAfter time.Duration
	now        func() time.Time
}

// New creates the service. bus and scheduler may be nil.
func New(repo LeadStore, scorer *scoring.Service, bus events.Publisher, scheduler RescoreScheduler, staleAfter time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if staleAfter <= 0 {
		staleAfter = 7 * 24 * time.Hour
	}
	return &Service{
		repo:       repo,
		scorer:     scorer,
		bus:        bus,
		scheduler:  scheduler,
		log:        log,
		staleAfter: staleAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Score scores an unsaved or ad-hoc lead without persisting anything.
func (s *Service) Score(ctx context.Context, lead scoring.Lead) scoring.Result {
	return s.scorer.ScoreLead(ctx, lead)
}

// Classify returns the classification and priority for a raw score.
func (s *Service) Classify(score int) (scoring.Classification, scoring.Priority) {
	return s.scorer.ClassifyLead(score), scoring.PriorityFor(score)
}

// Rescore loads a lead, rescores it with a fresh AI adjustment, persists
// the write-back columns and publishes LeadScored.
func (s *Service) Rescore(ctx context.Context, tenantID, leadID uuid.UUID) (scoring.Lead, scoring.Result, error) {
	lead, err := s.repo.GetByID(ctx, leadID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return scoring.Lead{}, scoring.Result{}, apperr.NotFound("lead not found")
		}
		return scoring.Lead{}, scoring.Result{}, apperr.Wrap(apperr.KindStoreUnavailable, "load lead", err).WithOp("leads.Rescore")
	}

	result, err := s.rescoreAndPersist(ctx, &lead)
	if err != nil {
		return scoring.Lead{}, scoring.Result{}, err
	}
	return lead, result, nil
}

// BatchScore scores the tenant's leads with the given ids. Unknown ids are
// absent from the result. Nothing is persisted.
func (s *Service) BatchScore(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	leads, err := s.repo.ListByIDs(ctx, ids, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "load leads", err).WithOp("leads.BatchScore")
	}
	return s.scorer.BatchScore(ctx, leads), nil
}

// RequestStaleRescore enqueues a background job for the tenant's leads last
// scored more than staleAfter ago (the configured default when <= 0).
func (s *Service) RequestStaleRescore(ctx context.Context, tenantID uuid.UUID, staleAfter time.Duration, limit int) (string, time.Time, int, error) {
	if s.scheduler == nil {
		return "", time.Time{}, 0, apperr.Unavailable("background rescoring is not configured")
	}
	if staleAfter <= 0 {
		staleAfter = s.staleAfter
	}
	if limit <= 0 {
		limit = defaultRescoreLimit
	}

	staleBefore := s.now().Add(-staleAfter)
	taskID, err := s.scheduler.EnqueueLeadRescore(ctx, tenantID, staleBefore, limit)
	if err != nil {
		return "", time.Time{}, 0, apperr.Wrap(apperr.KindUnavailable, "enqueue rescore", err)
	}

	s.log.WithContext(ctx).Info("stale lead rescore enqueued",
		"tenantId", tenantID, "taskId", taskID, "staleBefore", staleBefore, "limit", limit)
	return taskID, staleBefore, limit, nil
}

// RescoreStale rescores up to limit leads scored before staleBefore (all
// tenants when tenantID is nil) and returns how many were persisted. A
// limit <= 0 means no limit. Failures on single leads are logged and
// skipped.
func (s *Service) RescoreStale(ctx context.Context, tenantID *uuid.UUID, staleBefore time.Time, limit int) (int, error) {
	rescored := 0
	afterID := uuid.Nil

	for limit <= 0 || rescored < limit {
		pageSize := rescorePageSize
		if limit > 0 {
			pageSize = min(pageSize, limit-rescored)
		}

		page, err := s.repo.ListLeadsForRescoring(ctx, tenantID, staleBefore, afterID, pageSize)
		if err != nil {
			return rescored, apperr.Wrap(apperr.KindStoreUnavailable, "list stale leads", err).WithOp("leads.RescoreStale")
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			if err := ctx.Err(); err != nil {
				return rescored, err
			}
			if _, err := s.rescoreAndPersist(ctx, &page[i]); err != nil {
				s.log.WithContext(ctx).Warn("stale lead rescore failed", "leadId", page[i].ID, "error", err)
				continue
			}
			rescored++
		}

		afterID = page[len(page)-1].ID
		if len(page) < pageSize {
			break
		}
	}

	return rescored, nil
}

func (s *Service) rescoreAndPersist(ctx context.Context, lead *scoring.Lead) (scoring.Result, error) {
	previous, previousClass := lead.Score, lead.Classification
	result := s.scorer.UpdateLead(ctx, lead)

	scoredAt := s.now()
	if lead.LastScoredAt != nil {
		scoredAt = *lead.LastScoredAt
	}
	if err := s.repo.UpdateLeadScore(ctx, lead.ID, lead.TenantID, lead.Score, lead.Classification, scoredAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return scoring.Result{}, apperr.NotFound("lead not found")
		}
		return scoring.Result{}, apperr.Wrap(apperr.KindStoreUnavailable, "persist lead score", err).WithOp("leads.Rescore")
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadScored{
			BaseEvent:              events.NewBaseEventAt(scoredAt),
			LeadID:                 lead.ID,
			TenantID:               lead.TenantID,
			PreviousScore:          previous,
			PreviousClassification: string(previousClass),
			Score:                  result.Score,
			Classification:         string(result.Classification),
			Priority:               string(result.Priority),
			Degraded:               result.Breakdown.Degraded,
		})
	}
	return result, nil
}
