package repository

import (
	"context"
	"errors"
	"time"

	"smartlead_backend/internal/leads/scoring"
	"smartlead_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, organization_id, email, name, company, job_title, phone, linkedin_url, website,
	source, notes, estimated_budget, expected_close_date, score, classification, last_scored_at`

func scanLead(row pgx.Row) (scoring.Lead, error) {
	var (
		lead           scoring.Lead
		classification string
	)
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.Email, &lead.Name, &lead.Company, &lead.JobTitle, &lead.Phone,
		&lead.LinkedInURL, &lead.Website, &lead.Source, &lead.Notes, &lead.EstimatedBudget,
		&lead.ExpectedCloseDate, &lead.Score, &classification, &lead.LastScoredAt,
	)
	lead.Classification = scoring.Classification(classification)
	return lead, err
}

// GetByID loads a lead within a tenant.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (scoring.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.Lead{}, ErrNotFound
	}
	return lead, err
}

// ListByIDs loads the leads of a tenant whose id is in ids. Unknown ids are
// ignored; order is unspecified.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID) ([]scoring.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = ANY($1) AND organization_id = $2 AND deleted_at IS NULL
	`, ids, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// ListLeadsForRescoring returns up to limit leads that were never scored or
// were last scored before staleBefore, ordered by id. A nil tenantID spans
// all tenants. Pass the last id of the previous page as afterID, or uuid.Nil
// for the first page.
func (r *Repository) ListLeadsForRescoring(ctx context.Context, tenantID *uuid.UUID, staleBefore time.Time, afterID uuid.UUID, limit int) ([]scoring.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE deleted_at IS NULL
			AND ($1::uuid IS NULL OR organization_id = $1)
			AND (last_scored_at IS NULL OR last_scored_at < $2)
			AND id > $3
		ORDER BY id
		LIMIT $4
	`, tenantID, staleBefore, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// UpdateLeadScore persists the scoring write-back columns only.
func (r *Repository) UpdateLeadScore(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, score int, classification scoring.Classification, scoredAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET score = $3, classification = $4, last_scored_at = $5, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, tenantID, score, string(classification), scoredAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByLead returns every interaction a tenant recorded for a lead. It
// implements scoring.InteractionStore.
func (r *Repository) ListByLead(ctx context.Context, tenantID, leadID uuid.UUID) ([]scoring.Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, type, created_at
		FROM lead_interactions
		WHERE lead_id = $1 AND organization_id = $2
		ORDER BY created_at DESC
	`, leadID, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "list lead interactions", err)
	}
	defer rows.Close()

	items := make([]scoring.Interaction, 0)
	for rows.Next() {
		var it scoring.Interaction
		if err := rows.Scan(&it.ID, &it.LeadID, &it.Type, &it.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindStoreUnavailable, "scan lead interaction", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "iterate lead interactions", err)
	}
	return items, nil
}

// ListTenantIDs returns every tenant that owns at least one lead.
func (r *Repository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT organization_id FROM leads WHERE deleted_at IS NULL ORDER BY organization_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectLeads(rows pgx.Rows) ([]scoring.Lead, error) {
	items := make([]scoring.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
