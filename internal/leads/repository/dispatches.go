package repository

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// HasDispatchSince reports whether stepID was already sent to the lead at or
// after since. A nil since matches any earlier dispatch.
func (r *Repository) HasDispatchSince(ctx context.Context, leadID uuid.UUID, stepID string, since *time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM drip_dispatches
			WHERE lead_id = $1 AND step_id = $2 AND ($3::timestamptz IS NULL OR sent_at >= $3)
		)
	`, leadID, stepID, since).Scan(&exists)
	return exists, err
}

// RecordDispatch stores a sent drip message. It returns false when the same
// (lead, step, date) was already recorded.
func (r *Repository) RecordDispatch(ctx context.Context, leadID uuid.UUID, stepID string, sendDate civil.Date) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO drip_dispatches (lead_id, step_id, send_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (lead_id, step_id, send_date) DO NOTHING
	`, leadID, stepID, sendDate.In(time.UTC))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
