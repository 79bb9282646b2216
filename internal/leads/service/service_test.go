package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/scoring"
	"smartlead_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]scoring.Lead
	updates []uuid.UUID
	failIDs map[uuid.UUID]bool
}

func newFakeStore(leads ...scoring.Lead) *fakeStore {
	s := &fakeStore{leads: map[uuid.UUID]scoring.Lead{}, failIDs: map[uuid.UUID]bool{}}
	for _, l := range leads {
		s.leads[l.ID] = l
	}
	return s
}

func (f *fakeStore) GetByID(_ context.Context, id, tenantID uuid.UUID) (scoring.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok || l.TenantID != tenantID {
		return scoring.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) ListByIDs(_ context.Context, ids []uuid.UUID, tenantID uuid.UUID) ([]scoring.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scoring.Lead, 0, len(ids))
	for _, id := range ids {
		if l, ok := f.leads[id]; ok && l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLeadsForRescoring(_ context.Context, tenantID *uuid.UUID, staleBefore time.Time, afterID uuid.UUID, limit int) ([]scoring.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scoring.Lead, 0)
	for _, l := range f.leads {
		if tenantID != nil && l.TenantID != *tenantID {
			continue
		}
		if l.LastScoredAt != nil && !l.LastScoredAt.Before(staleBefore) {
			continue
		}
		if l.ID.String() <= afterID.String() {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateLeadScore(_ context.Context, id, tenantID uuid.UUID, score int, classification scoring.Classification, scoredAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id] {
		return errors.New("write failed")
	}
	l, ok := f.leads[id]
	if !ok || l.TenantID != tenantID {
		return repository.ErrNotFound
	}
	l.Score = score
	l.Classification = classification
	l.LastScoredAt = &scoredAt
	f.leads[id] = l
	f.updates = append(f.updates, id)
	return nil
}

type fakeScheduler struct {
	tenantID    uuid.UUID
	staleBefore time.Time
	limit       int
	err         error
}

func (f *fakeScheduler) EnqueueLeadRescore(_ context.Context, tenantID uuid.UUID, staleBefore time.Time, limit int) (string, error) {
	f.tenantID, f.staleBefore, f.limit = tenantID, staleBefore, limit
	return "task-1", f.err
}

func newTestService(store *fakeStore, bus events.Bus, scheduler RescoreScheduler) *Service {
	scorer := scoring.New(nil, nil, scoring.WithClock(func() time.Time { return testNow }))
	svc := New(store, scorer, bus, scheduler, 0, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func executive(tenantID uuid.UUID) scoring.Lead {
	return scoring.Lead{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Email:       "jane@acme-technologies.com",
		Company:     "Acme Technologies Inc",
		JobTitle:    "Chief Revenue Officer",
		Phone:       "+1555",
		LinkedInURL: "x",
		Website:     "x",
	}
}

func TestRescore_PersistsAndPublishes(t *testing.T) {
	tenant := uuid.New()
	lead := executive(tenant)
	store := newFakeStore(lead)
	bus := events.NewInMemoryBus(nil)

	var got events.LeadScored
	bus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		got = e.(events.LeadScored)
		return nil
	}))

	svc := newTestService(store, bus, nil)
	updated, result, err := svc.Rescore(context.Background(), tenant, lead.ID)
	require.NoError(t, err)
	bus.Wait()

	// rule 25+20+30+15+5, bant 10: round(38 + 2.5)
	require.Equal(t, 41, result.Score)
	require.Equal(t, 41, updated.Score)
	require.NotNil(t, updated.LastScoredAt)
	require.Equal(t, 41, store.leads[lead.ID].Score)
	require.Equal(t, scoring.ClassificationCold, store.leads[lead.ID].Classification)

	require.Equal(t, lead.ID, got.LeadID)
	require.Equal(t, 41, got.Score)
	require.Equal(t, "COLD", got.Classification)
}

func TestRescore_UnknownLeadIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, nil)

	_, _, err := svc.Rescore(context.Background(), uuid.New(), uuid.New())
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRescore_OtherTenantIsNotFound(t *testing.T) {
	lead := executive(uuid.New())
	svc := newTestService(newFakeStore(lead), nil, nil)

	_, _, err := svc.Rescore(context.Background(), uuid.New(), lead.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBatchScore_OnlyTenantLeads(t *testing.T) {
	tenant := uuid.New()
	mine := executive(tenant)
	theirs := executive(uuid.New())
	svc := newTestService(newFakeStore(mine, theirs), nil, nil)

	scores, err := svc.BatchScore(context.Background(), tenant, []uuid.UUID{mine.ID, theirs.ID, uuid.New()})
	require.NoError(t, err)
	require.Equal(t, map[uuid.UUID]int{mine.ID: 41}, scores)
}

func TestRequestStaleRescore(t *testing.T) {
	scheduler := &fakeScheduler{}
	svc := newTestService(newFakeStore(), nil, scheduler)
	tenant := uuid.New()

	taskID, staleBefore, limit, err := svc.RequestStaleRescore(context.Background(), tenant, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "task-1", taskID)
	require.Equal(t, testNow.Add(-7*24*time.Hour), staleBefore)
	require.Equal(t, defaultRescoreLimit, limit)
	require.Equal(t, tenant, scheduler.tenantID)
}

func TestRequestStaleRescore_WithoutScheduler(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, nil)

	_, _, _, err := svc.RequestStaleRescore(context.Background(), uuid.New(), time.Hour, 10)
	require.True(t, apperr.Is(err, apperr.KindUnavailable))
}

func TestRescoreStale_PagesAndSkipsFailures(t *testing.T) {
	tenant := uuid.New()
	fresh := executive(tenant)
	recent := testNow.Add(-time.Hour)
	fresh.LastScoredAt = &recent

	leads := []scoring.Lead{fresh}
	for i := 0; i < 250; i++ {
		leads = append(leads, executive(tenant))
	}
	store := newFakeStore(leads...)
	store.failIDs[leads[3].ID] = true

	svc := newTestService(store, nil, nil)
	count, err := svc.RescoreStale(context.Background(), &tenant, testNow.Add(-24*time.Hour), 0)
	require.NoError(t, err)
	require.Equal(t, 249, count)
	require.NotContains(t, store.updates, fresh.ID)
}

func TestRescoreStale_RespectsLimit(t *testing.T) {
	tenant := uuid.New()
	leads := make([]scoring.Lead, 0, 30)
	for i := 0; i < 30; i++ {
		leads = append(leads, executive(tenant))
	}
	svc := newTestService(newFakeStore(leads...), nil, nil)

	count, err := svc.RescoreStale(context.Background(), nil, testNow, 12)
	require.NoError(t, err)
	require.Equal(t, 12, count)
}

func TestHandleLeadScored_CountsTransitions(t *testing.T) {
	tenant := uuid.New()
	lead := executive(tenant)
	store := newFakeStore(lead)
	bus := events.NewInMemoryBus(nil)
	svc := newTestService(store, bus, nil)
	bus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(svc.HandleLeadScored))

	fresh := metricTransitions.WithLabelValues(unscoredClassification, "COLD")
	steady := metricTransitions.WithLabelValues("COLD", "COLD")
	freshBefore, steadyBefore := testutil.ToFloat64(fresh), testutil.ToFloat64(steady)

	_, _, err := svc.Rescore(context.Background(), tenant, lead.ID)
	require.NoError(t, err)
	bus.Wait()
	_, _, err = svc.Rescore(context.Background(), tenant, lead.ID)
	require.NoError(t, err)
	bus.Wait()

	require.Equal(t, freshBefore+1, testutil.ToFloat64(fresh))
	require.Equal(t, steadyBefore+1, testutil.ToFloat64(steady))
}

func TestRescore_PublishesPreviousClassification(t *testing.T) {
	tenant := uuid.New()
	lead := executive(tenant)
	lead.Score = 90
	lead.Classification = scoring.ClassificationHot
	store := newFakeStore(lead)

	var got events.LeadScored
	bus := events.NewInMemoryBus(nil)
	bus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		got = e.(events.LeadScored)
		return nil
	}))

	_, _, err := newTestService(store, bus, nil).Rescore(context.Background(), tenant, lead.ID)
	require.NoError(t, err)
	bus.Wait()

	require.Equal(t, 90, got.PreviousScore)
	require.Equal(t, "HOT", got.PreviousClassification)
	require.Equal(t, "COLD", got.Classification)
	require.NotEqual(t, uuid.Nil, got.EventID())
	require.True(t, testNow.Equal(got.OccurredAt()))
}
