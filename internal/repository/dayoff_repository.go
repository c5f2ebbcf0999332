package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// DayOffRepository persists personal and global day-off records.
type DayOffRepository struct {
	db *sqlx.DB
}

// NewDayOffRepository creates a new day-off repository.
func NewDayOffRepository(db *sqlx.DB) *DayOffRepository {
	return &DayOffRepository{db: db}
}

// ListPersonal returns a user's day-off records, newest span first.
func (r *DayOffRepository) ListPersonal(ctx context.Context, userID string) ([]models.DayOffRecord, error) {
	const query = `SELECT id, user_id, scope, start_date, end_date, reason, color, created_at, updated_at FROM day_offs WHERE scope = $1 AND user_id = $2 ORDER BY start_date DESC, id`
	var records []models.DayOffRecord
	if err := r.db.SelectContext(ctx, &records, query, models.ScopePersonal, userID); err != nil {
		return nil, fmt.Errorf("list personal day-offs: %w", err)
	}
	return records, nil
}

// ListGlobal returns every institution-wide day-off record.
func (r *DayOffRepository) ListGlobal(ctx context.Context) ([]models.DayOffRecord, error) {
	const query = `SELECT id, user_id, scope, start_date, end_date, reason, color, created_at, updated_at FROM day_offs WHERE scope = $1 ORDER BY start_date DESC, id`
	var records []models.DayOffRecord
	if err := r.db.SelectContext(ctx, &records, query, models.ScopeGlobal); err != nil {
		return nil, fmt.Errorf("list global day-offs: %w", err)
	}
	return records, nil
}

// ListPersonalInWindow returns the user's records whose span intersects the
// inclusive [from, to] window.
func (r *DayOffRepository) ListPersonalInWindow(ctx context.Context, userID string, from, to time.Time) ([]models.DayOffRecord, error) {
	const query = `SELECT id, user_id, scope, start_date, end_date, reason, color, created_at, updated_at FROM day_offs WHERE scope = $1 AND user_id = $2 AND start_date <= $4 AND COALESCE(end_date, start_date) >= $3 ORDER BY start_date, id`
	var records []models.DayOffRecord
	if err := r.db.SelectContext(ctx, &records, query, models.ScopePersonal, userID, from, to); err != nil {
		return nil, fmt.Errorf("list personal day-offs in window: %w", err)
	}
	return records, nil
}

// ListGlobalInWindow returns global records whose span intersects the window.
func (r *DayOffRepository) ListGlobalInWindow(ctx context.Context, from, to time.Time) ([]models.DayOffRecord, error) {
	const query = `SELECT id, user_id, scope, start_date, end_date, reason, color, created_at, updated_at FROM day_offs WHERE scope = $1 AND start_date <= $3 AND COALESCE(end_date, start_date) >= $2 ORDER BY start_date, id`
	var records []models.DayOffRecord
	if err := r.db.SelectContext(ctx, &records, query, models.ScopeGlobal, from, to); err != nil {
		return nil, fmt.Errorf("list global day-offs in window: %w", err)
	}
	return records, nil
}

// FindByID loads a single record regardless of scope.
func (r *DayOffRepository) FindByID(ctx context.Context, id string) (*models.DayOffRecord, error) {
	const query = `SELECT id, user_id, scope, start_date, end_date, reason, color, created_at, updated_at FROM day_offs WHERE id = $1`
	var record models.DayOffRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create stores a new day-off record.
func (r *DayOffRepository) Create(ctx context.Context, record *models.DayOffRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO day_offs (id, user_id, scope, start_date, end_date, reason, color, created_at, updated_at) VALUES (:id, :user_id, :scope, :start_date, :end_date, :reason, :color, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create day-off: %w", err)
	}
	return nil
}

// Update modifies an existing record.
func (r *DayOffRepository) Update(ctx context.Context, record *models.DayOffRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE day_offs SET start_date = :start_date, end_date = :end_date, reason = :reason, color = :color, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update day-off: %w", err)
	}
	return nil
}

// Delete removes a record by id.
func (r *DayOffRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM day_offs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete day-off: %w", err)
	}
	return nil
}
