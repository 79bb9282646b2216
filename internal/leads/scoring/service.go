// Package scoring computes lead scores, classifications and next-action
// recommendations from lead attributes, interaction history and an optional
// AI adjustment.
package scoring

import (
	"context"
	"fmt"
	"time"

	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 8

// Service computes lead scores. It is safe for concurrent use; the only
// shared mutable state lives behind the Adjuster.
type Service struct {
	store      InteractionStore
	adjuster   Adjuster
	log        *logger.Logger
	now        func() time.Time
	batchLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithAdjuster enables the AI adjustment stage.
func WithAdjuster(adjuster Adjuster) Option {
	return func(s *Service) { s.adjuster = adjuster }
}

// WithClock overrides the time source used for recency and timeline rules.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBatchConcurrency bounds the number of leads BatchScore scores at once.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// New creates a new scoring service.
func New(store InteractionStore, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		store:      store,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		batchLimit: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreLead scores a lead without modifying it. It never fails: every
// problem along the way lowers fidelity but still yields a valid result.
func (s *Service) ScoreLead(ctx context.Context, lead Lead) Result {
	start := time.Now()
	defer func() { metricScoringDuration.Observe(time.Since(start).Seconds()) }()

	log := s.log.WithContext(ctx)
	if !lead.identifiable() {
		log.Debug("scoring lead without identifying fields",
			"leadId", lead.ID, "kind", apperr.KindInputMalformed.String())
	}

	now := s.now()
	subs := s.computeSubScores(ctx, lead, now)

	breakdown := Breakdown{Rule: subs.rule, Engagement: subs.engagement, BANT: subs.bant}
	var score int

	if subs.err != nil {
		score = s.degrade(log, lead, StageScoring, subs.err, &breakdown)
	} else {
		adjustment, err := s.adjust(ctx, lead)
		if err != nil {
			score = s.degrade(log, lead, StageLLM, err, &breakdown)
		} else {
			breakdown.Adjustment = adjustment
			score = Aggregate(subs.rule, subs.engagement, subs.bant, adjustment)
		}
	}

	result := Result{
		Score:           score,
		Classification:  Classify(score),
		Priority:        PriorityFor(score),
		Recommendations: Recommend(lead, score),
		Breakdown:       breakdown,
	}
	metricClassifications.WithLabelValues(string(result.Classification)).Inc()

	log.ScoreComputed(lead.ID.String(), score, breakdown.Rule, breakdown.Engagement, breakdown.BANT, breakdown.Adjustment, breakdown.Degraded)
	return result
}

// UpdateLead drops any cached AI adjustment for the lead, rescores it and
// writes Score, Classification and LastScoredAt back onto it.
func (s *Service) UpdateLead(ctx context.Context, lead *Lead) Result {
	if lead == nil {
		return s.ScoreLead(ctx, Lead{})
	}

	if lead.HasID() && s.adjuster != nil {
		s.adjuster.Invalidate(ctx, lead.ID)
	}

	result := s.ScoreLead(ctx, *lead)

	scoredAt := s.now()
	lead.Score = result.Score
	lead.Classification = result.Classification
	lead.LastScoredAt = &scoredAt

	s.log.WithContext(ctx).Info("lead score updated",
		"leadId", lead.ID, "score", result.Score, "classification", result.Classification)
	return result
}

// ClassifyLead maps a score to its classification.
func (s *Service) ClassifyLead(score int) Classification {
	return Classify(score)
}

// BatchScore scores leads in parallel and returns score by lead id. Leads
// without an id are skipped. When an id repeats, the first occurrence in
// input order decides the score. If ctx is cancelled, leads not yet started
// are left out of the result.
func (s *Service) BatchScore(ctx context.Context, leads []Lead) map[uuid.UUID]int {
	unique := make([]Lead, 0, len(leads))
	seen := make(map[uuid.UUID]struct{}, len(leads))
	for _, lead := range leads {
		if !lead.HasID() {
			continue
		}
		if _, dup := seen[lead.ID]; dup {
			continue
		}
		seen[lead.ID] = struct{}{}
		unique = append(unique, lead)
	}

	scores := make([]int, len(unique))
	done := make([]bool, len(unique))

	var g errgroup.Group
	g.SetLimit(s.batchLimit)
	for i := range unique {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			scores[i] = s.ScoreLead(ctx, unique[i]).Score
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[uuid.UUID]int, len(unique))
	for i, lead := range unique {
		if done[i] {
			out[lead.ID] = scores[i]
		}
	}
	return out
}

type subScores struct {
	rule       int
	engagement int
	bant       int
	err        error
}

// computeSubScores runs the attribute, engagement and BANT scorers
// concurrently. A failure in any of them is reported through err; rule is
// kept whenever the attribute scorers themselves succeeded.
func (s *Service) computeSubScores(ctx context.Context, lead Lead, now time.Time) subScores {
	var out subScores
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return guard("rule", func() { out.rule = RuleBasedScore(lead) })
	})
	g.Go(func() error {
		return guard("engagement", func() { out.engagement = s.engagement(gctx, lead, now) })
	})
	g.Go(func() error {
		return guard("bant", func() { out.bant = BANTScore(lead, now) })
	})

	out.err = g.Wait()
	return out
}

func (s *Service) engagement(ctx context.Context, lead Lead, now time.Time) int {
	if !lead.HasID() || s.store == nil {
		return 0
	}

	interactions, err := s.store.ListByLead(ctx, lead.TenantID, lead.ID)
	if err != nil {
		metricStoreFailures.Inc()
		s.log.WithContext(ctx).Warn("interaction fetch failed, engagement ignored",
			"leadId", lead.ID, "kind", apperr.KindStoreUnavailable.String(), "error", err)
		return 0
	}
	return EngagementScore(interactions, now)
}

func (s *Service) adjust(ctx context.Context, lead Lead) (adjustment int, err error) {
	if s.adjuster == nil {
		return 0, nil
	}
	err = guard("llm", func() { adjustment = ClampAdjustment(s.adjuster.Adjust(ctx, lead)) })
	return adjustment, err
}

// degrade falls back to the rule-based score with no adjustment.
func (s *Service) degrade(log *logger.Logger, lead Lead, stage Stage, err error, b *Breakdown) int {
	metricScoringDegraded.Inc()
	log.Error("lead scoring degraded to rule-based score",
		"leadId", lead.ID, "stage", stage, "kind", apperr.KindAggregatorFailure.String(), "error", err)

	b.Engagement = 0
	b.BANT = 0
	b.Adjustment = 0
	b.Degraded = true
	return ClampScore(b.Rule)
}

// guard converts a panic inside fn into an aggregator failure.
func guard(step string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Wrap(apperr.KindAggregatorFailure, step+" scorer failed", fmt.Errorf("%v", r))
		}
	}()
	fn()
	return nil
}
