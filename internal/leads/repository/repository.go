package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agency_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("lead not found")

const leadColumns = `id, name, status, last_active_at, status_changed_at, deal_value::text, tags,
	is_high_quality, phone, email, website, social_link, source, notes, industry, service_type`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type ListParams struct {
	Status string
	Tag    string
	Search string
	Limit  int
	Offset int
}

// ListAll returns the whole roster in creation order.
func (r *Repository) ListAll(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

// List returns one page of leads matching params and the total match count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if params.Status != "" {
		args = append(args, params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Tag != "" {
		args = append(args, params.Tag)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(tags) t WHERE lower(t) = lower($%d))", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", len(args), len(args), len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM leads%s ORDER BY last_active_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		leadColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	leads, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// Create inserts lead. The id, when zero, is generated by the database.
// A non-nil StatusChangedAt is kept; otherwise the insert time is used.
func (r *Repository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	id := lead.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			id, name, status, last_active_at, status_changed_at, deal_value, tags,
			is_high_quality, phone, email, website, social_link, source, notes, industry, service_type
		) VALUES ($1, $2, $3, $4, COALESCE($5, now()), $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+leadColumns,
		id, lead.Name, lead.Status.String(), lead.LastActiveAt, lead.StatusChangedAt, decimalParam(lead.DealValue), tagsParam(lead.Tags),
		lead.IsHighQuality, lead.Phone, lead.Email, lead.Website, lead.SocialLink, lead.Source, lead.Notes, lead.Industry, lead.ServiceType,
	)
	return scanLead(row)
}

// Update overwrites the descriptive attributes of lead. Status and activity
// are changed through ChangeStatus and TouchActivity.
func (r *Repository) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			name = $2, deal_value = $3::numeric, tags = $4, is_high_quality = $5,
			phone = $6, email = $7, website = $8, social_link = $9,
			source = $10, notes = $11, industry = $12, service_type = $13,
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		lead.ID, lead.Name, decimalParam(lead.DealValue), tagsParam(lead.Tags), lead.IsHighQuality,
		lead.Phone, lead.Email, lead.Website, lead.SocialLink,
		lead.Source, lead.Notes, lead.Industry, lead.ServiceType,
	)
	updated, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return updated, err
}

// ChangeStatus moves the lead to status and stamps status_changed_at with at.
// Setting the current status again keeps the original timestamp.
func (r *Repository) ChangeStatus(ctx context.Context, id uuid.UUID, status domain.Status, at time.Time) (domain.Status, domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		WITH prev AS (
			SELECT id, status AS old_status FROM leads WHERE id = $1 FOR UPDATE
		)
		UPDATE leads l SET
			status = $2,
			status_changed_at = CASE WHEN prev.old_status = $2 THEN l.status_changed_at ELSE $3 END,
			updated_at = now()
		FROM prev
		WHERE l.id = prev.id
		RETURNING prev.old_status, `+qualified("l", leadColumns),
		id, status.String(), at,
	)

	var oldStatus string
	lead, err := scanLeadWithPrefix(row, &oldStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return "", domain.Lead{}, err
	}
	parsed, _ := domain.ParseStatus(oldStatus)
	return parsed, lead, nil
}

// TouchActivity moves last_active_at forward to at. Older instants are ignored.
func (r *Repository) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET last_active_at = GREATEST(last_active_at, $2), updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, at,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func qualified(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func decimalParam(v *decimal.Decimal) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func tagsParam(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	items := make([]domain.Lead, 0)
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

func scanLead(row pgx.Row) (domain.Lead, error) {
	return scanLeadWithPrefix(row)
}

func scanLeadWithPrefix(row pgx.Row, prefix ...interface{}) (domain.Lead, error) {
	var (
		lead      domain.Lead
		status    string
		dealValue *string
	)
	dest := append(prefix,
		&lead.ID, &lead.Name, &status, &lead.LastActiveAt, &lead.StatusChangedAt, &dealValue, &lead.Tags,
		&lead.IsHighQuality, &lead.Phone, &lead.Email, &lead.Website, &lead.SocialLink,
		&lead.Source, &lead.Notes, &lead.Industry, &lead.ServiceType,
	)
	if err := row.Scan(dest...); err != nil {
		return domain.Lead{}, err
	}

	lead.Status, _ = domain.ParseStatus(status)
	if dealValue != nil {
		parsed, err := decimal.NewFromString(*dealValue)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("parse deal value %q: %w", *dealValue, err)
		}
		lead.DealValue = &parsed
	}
	return lead, nil
}
