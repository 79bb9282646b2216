package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

type memoryStore struct {
	mu           sync.Mutex
	interactions map[uuid.UUID][]Interaction
	owners       map[uuid.UUID]uuid.UUID
	err          error
	calls        int
}

func (m *memoryStore) ListByLead(_ context.Context, tenantID, leadID uuid.UUID) ([]Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if owner, ok := m.owners[leadID]; ok && owner != tenantID {
		return nil, nil
	}
	return m.interactions[leadID], nil
}

type stubAdjuster struct {
	mu          sync.Mutex
	value       int
	panics      bool
	invalidated []uuid.UUID
}

func (s *stubAdjuster) Adjust(context.Context, Lead) int {
	if s.panics {
		panic("adjuster exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *stubAdjuster) Invalidate(_ context.Context, leadID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, leadID)
}

func newTestService(store InteractionStore, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(store, nil, opts...)
}

func minimalExecutive() Lead {
	return Lead{
		ID:          uuid.New(),
		Email:       "jane@acme-technologies.com",
		Company:     "Acme Technologies Inc",
		JobTitle:    "Chief Revenue Officer",
		Phone:       "+1555",
		LinkedInURL: "x",
		Website:     "x",
		Source:      strPtr("referral"),
	}
}

func engagedDirector() (Lead, *memoryStore) {
	lead := Lead{
		ID:       uuid.New(),
		Email:    "x@corp.com",
		JobTitle: "Director",
		Company:  "X Corp",
		Phone:    "1",
	}
	meetings := make([]Interaction, 0, 4)
	for i := 0; i < 4; i++ {
		meetings = append(meetings, Interaction{
			ID:        uuid.New(),
			LeadID:    lead.ID,
			Type:      "meeting",
			CreatedAt: fixedNow.Add(-time.Duration(i+1) * 24 * time.Hour),
		})
	}
	return lead, &memoryStore{interactions: map[uuid.UUID][]Interaction{lead.ID: meetings}}
}

func urgentDirector() (Lead, *memoryStore) {
	lead, store := engagedDirector()
	closeDate := fixedNow.AddDate(0, 0, 10)
	budget := int64(50_000)
	lead.ExpectedCloseDate = &closeDate
	lead.EstimatedBudget = &budget
	lead.Notes = "urgent need, looking for"
	return lead, store
}

func TestScoreLead_MinimalExecutive(t *testing.T) {
	svc := newTestService(&memoryStore{})

	result := svc.ScoreLead(context.Background(), minimalExecutive())

	require.Equal(t, 100, result.Breakdown.Rule)
	require.Equal(t, 0, result.Breakdown.Engagement)
	require.Equal(t, 10, result.Breakdown.BANT)
	require.Equal(t, 43, result.Score)
	require.Equal(t, ClassificationCold, result.Classification)
	require.Equal(t, PriorityMedium, result.Priority)
	require.Equal(t, []string{recNurture, recGatherInfo}, result.Recommendations)
}

func TestScoreLead_FreeEmailManagerWithoutCompany(t *testing.T) {
	svc := newTestService(&memoryStore{})

	result := svc.ScoreLead(context.Background(), Lead{ID: uuid.New(), Email: "bob@gmail.com", JobTitle: "Marketing Manager"})

	require.Equal(t, 35, result.Breakdown.Rule)
	require.Equal(t, 6, result.Breakdown.BANT)
	require.Equal(t, 16, result.Score)
	require.Equal(t, ClassificationCold, result.Classification)
	require.Equal(t, PriorityLow, result.Priority)
	require.Contains(t, result.Recommendations, recObtainPhone)
	require.Contains(t, result.Recommendations, recResearchCompany)
}

func TestScoreLead_EngagementDominant(t *testing.T) {
	lead, store := engagedDirector()
	svc := newTestService(store)

	result := svc.ScoreLead(context.Background(), lead)

	require.Equal(t, 83, result.Breakdown.Rule)
	require.Equal(t, 35, result.Breakdown.Engagement)
	require.Equal(t, 8, result.Breakdown.BANT)
	require.Equal(t, 47, result.Score)
	require.Equal(t, ClassificationCold, result.Classification)
	require.Equal(t, PriorityMedium, result.Priority)
}

func TestScoreLead_TimelineUrgency(t *testing.T) {
	lead, store := urgentDirector()
	svc := newTestService(store)

	result := svc.ScoreLead(context.Background(), lead)

	// notes hit "urgent", "need" and "looking for": 30 + 8 + 9 + 15
	require.Equal(t, 62, result.Breakdown.BANT)
	require.Equal(t, 61, result.Score)
	require.Equal(t, ClassificationWarm, result.Classification)
	require.Equal(t, PriorityHigh, result.Priority)
}

func TestScoreLead_AdjustmentAppliedAndClamped(t *testing.T) {
	lead, store := urgentDirector()
	adjuster := &stubAdjuster{value: 15}
	svc := newTestService(store, WithAdjuster(adjuster))

	result := svc.ScoreLead(context.Background(), lead)
	require.Equal(t, 76, result.Score)
	require.Equal(t, 15, result.Breakdown.Adjustment)
	require.Equal(t, ClassificationHot, result.Classification)
	require.Equal(t, PriorityHigh, result.Priority)

	adjuster.value = -50
	result = svc.UpdateLead(context.Background(), &lead)
	require.Equal(t, -20, result.Breakdown.Adjustment)
	require.Equal(t, 41, result.Score)
	require.Equal(t, ClassificationCold, result.Classification)
	require.Equal(t, PriorityMedium, result.Priority)
}

func TestScoreLead_ZeroAdjustmentMatchesDisabled(t *testing.T) {
	lead, store := urgentDirector()

	disabled := newTestService(store).ScoreLead(context.Background(), lead)
	zero := newTestService(store, WithAdjuster(&stubAdjuster{})).ScoreLead(context.Background(), lead)

	require.Equal(t, disabled, zero)
}

func TestScoreLead_DoesNotMutateInput(t *testing.T) {
	lead, store := urgentDirector()
	before := lead

	newTestService(store).ScoreLead(context.Background(), lead)

	require.Equal(t, before, lead)
}

func TestScoreLead_StoreFailureIgnoresEngagement(t *testing.T) {
	lead, _ := engagedDirector()
	store := &memoryStore{err: errors.New("connection refused")}
	svc := newTestService(store)

	result := svc.ScoreLead(context.Background(), lead)

	require.Equal(t, 0, result.Breakdown.Engagement)
	require.False(t, result.Breakdown.Degraded)
	require.Equal(t, 35, result.Score) // round(0.4*83 + 0.25*8)
}

func TestScoreLead_WithoutIDSkipsStore(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)

	lead := minimalExecutive()
	lead.ID = uuid.Nil
	result := svc.ScoreLead(context.Background(), lead)

	require.Equal(t, 43, result.Score)
	require.Zero(t, store.calls)
}

func TestScoreLead_EmptyLeadStillScores(t *testing.T) {
	result := newTestService(nil).ScoreLead(context.Background(), Lead{})

	// only the default source score contributes: round(0.4*5)
	require.Equal(t, 2, result.Score)
	require.Equal(t, ClassificationCold, result.Classification)
}

func TestScoreLead_AdjusterPanicDegradesToRuleScore(t *testing.T) {
	lead, store := engagedDirector()
	svc := newTestService(store, WithAdjuster(&stubAdjuster{panics: true}))

	result := svc.ScoreLead(context.Background(), lead)

	require.True(t, result.Breakdown.Degraded)
	require.Equal(t, 83, result.Score)
	require.Zero(t, result.Breakdown.Engagement)
	require.Zero(t, result.Breakdown.Adjustment)
	require.Equal(t, ClassificationHot, result.Classification)
	require.Equal(t, PriorityImmediate, result.Priority)
}

func TestScoreLead_ResultsStayInRange(t *testing.T) {
	lead, store := urgentDirector()
	for _, adj := range []int{-1000, -20, 0, 20, 1000} {
		svc := newTestService(store, WithAdjuster(&stubAdjuster{value: adj}))
		result := svc.ScoreLead(context.Background(), lead)
		require.GreaterOrEqual(t, result.Score, 0)
		require.LessOrEqual(t, result.Score, 100)
		require.GreaterOrEqual(t, result.Breakdown.Adjustment, -20)
		require.LessOrEqual(t, result.Breakdown.Adjustment, 20)
		require.Equal(t, Classify(result.Score), result.Classification)
	}
}

func TestUpdateLead_WritesBackAndInvalidates(t *testing.T) {
	lead, store := engagedDirector()
	adjuster := &stubAdjuster{value: 5}
	svc := newTestService(store, WithAdjuster(adjuster))

	result := svc.UpdateLead(context.Background(), &lead)

	require.Equal(t, []uuid.UUID{lead.ID}, adjuster.invalidated)
	require.Equal(t, result.Score, lead.Score)
	require.Equal(t, result.Classification, lead.Classification)
	require.NotNil(t, lead.LastScoredAt)
	require.True(t, lead.LastScoredAt.Equal(fixedNow))
}

func TestClassifyLead(t *testing.T) {
	svc := newTestService(nil)
	require.Equal(t, ClassificationHot, svc.ClassifyLead(75))
	require.Equal(t, ClassificationWarm, svc.ClassifyLead(74))
	require.Equal(t, ClassificationCold, svc.ClassifyLead(49))
}

func TestBatchScore_FirstOccurrenceWinsAndNilIDsSkipped(t *testing.T) {
	exec := minimalExecutive()
	duplicate := exec
	duplicate.JobTitle = ""
	duplicate.Company = ""
	anonymous := minimalExecutive()
	anonymous.ID = uuid.Nil
	manager := Lead{ID: uuid.New(), Email: "bob@gmail.com", JobTitle: "Marketing Manager"}

	svc := newTestService(&memoryStore{}, WithBatchConcurrency(2))
	scores := svc.BatchScore(context.Background(), []Lead{exec, anonymous, duplicate, manager})

	require.Len(t, scores, 2)
	require.Equal(t, 43, scores[exec.ID])
	require.Equal(t, 16, scores[manager.ID])
}

func TestBatchScore_MatchesIndividualScores(t *testing.T) {
	lead, store := engagedDirector()
	svc := newTestService(store)

	leads := []Lead{lead, minimalExecutive(), {ID: uuid.New(), Email: "bob@gmail.com"}}
	scores := svc.BatchScore(context.Background(), leads)

	for _, l := range leads {
		require.Equal(t, svc.ScoreLead(context.Background(), l).Score, scores[l.ID])
	}
}

func TestBatchScore_CancelledContextReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scores := newTestService(&memoryStore{}).BatchScore(ctx, []Lead{minimalExecutive()})

	require.Empty(t, scores)
}

func TestBatchScore_Empty(t *testing.T) {
	require.Empty(t, newTestService(nil).BatchScore(context.Background(), nil))
}

func TestScoreLead_EngagementScopedToLeadTenant(t *testing.T) {
	lead, store := engagedDirector()
	lead.TenantID = uuid.New()
	svc := newTestService(store)

	store.owners = map[uuid.UUID]uuid.UUID{lead.ID: uuid.New()}
	require.Zero(t, svc.ScoreLead(context.Background(), lead).Breakdown.Engagement)

	store.owners[lead.ID] = lead.TenantID
	require.Equal(t, 35, svc.ScoreLead(context.Background(), lead).Breakdown.Engagement)
}

func TestScoreLead_Idempotent(t *testing.T) {
	lead, store := urgentDirector()
	svc := newTestService(store, WithAdjuster(&stubAdjuster{value: 7}))

	first := svc.ScoreLead(context.Background(), lead)
	second := svc.ScoreLead(context.Background(), lead)

	require.Equal(t, first, second)
}

func TestScoreLead_MeetingNeverLowersEngagement(t *testing.T) {
	lead := Lead{ID: uuid.New(), Email: "x@corp.com", JobTitle: "Director"}
	store := &memoryStore{interactions: map[uuid.UUID][]Interaction{
		lead.ID: {{ID: uuid.New(), LeadID: lead.ID, Type: "email_open", CreatedAt: fixedNow.AddDate(0, 0, -20)}},
	}}
	svc := newTestService(store)

	previous := svc.ScoreLead(context.Background(), lead).Breakdown.Engagement
	for i := 0; i < 8; i++ {
		store.mu.Lock()
		store.interactions[lead.ID] = append(store.interactions[lead.ID], Interaction{
			ID:        uuid.New(),
			LeadID:    lead.ID,
			Type:      "meeting",
			CreatedAt: fixedNow.AddDate(0, 0, -i*3),
		})
		store.mu.Unlock()

		current := svc.ScoreLead(context.Background(), lead).Breakdown.Engagement
		require.GreaterOrEqual(t, current, previous, "after %d meetings", i+1)
		previous = current
	}
	require.Equal(t, 35, previous)
}
