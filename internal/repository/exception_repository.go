package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// ExceptionRepository persists applied exceptions for both scopes.
type ExceptionRepository struct {
	db *sqlx.DB
}

// NewExceptionRepository creates a new exception repository.
func NewExceptionRepository(db *sqlx.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// exceptionRow carries the LEFT JOINed pattern columns alongside the exception.
type exceptionRow struct {
	models.AppliedException
	PatternName *string         `db:"pattern_name"`
	PatternData *types.JSONText `db:"pattern_payload"`
}

const exceptionSelect = `SELECT e.id, e.user_id, e.scope, e.date, e.is_day_off, e.exception_pattern_id, e.period_index, e.class_id, e.reason, e.created_at, e.updated_at, p.name AS pattern_name, p.pattern_data AS pattern_payload FROM applied_exceptions e LEFT JOIN exception_patterns p ON p.id = e.exception_pattern_id`

func hydrate(rows []exceptionRow) []models.AppliedException {
	out := make([]models.AppliedException, 0, len(rows))
	for _, row := range rows {
		exc := row.AppliedException
		if exc.ExceptionPatternID != nil && row.PatternName != nil && row.PatternData != nil {
			exc.Pattern = &models.ExceptionPattern{
				ID:          *exc.ExceptionPatternID,
				Name:        *row.PatternName,
				PatternData: *row.PatternData,
			}
		}
		out = append(out, exc)
	}
	return out
}

// ListPersonal returns a user's exceptions, most recent date first.
func (r *ExceptionRepository) ListPersonal(ctx context.Context, userID string) ([]models.AppliedException, error) {
	query := exceptionSelect + ` WHERE e.scope = $1 AND e.user_id = $2 ORDER BY e.date DESC, e.id`
	var rows []exceptionRow
	if err := r.db.SelectContext(ctx, &rows, query, models.ExceptionScopePersonal, userID); err != nil {
		return nil, fmt.Errorf("list personal exceptions: %w", err)
	}
	return hydrate(rows), nil
}

// ListGlobal returns every global exception.
func (r *ExceptionRepository) ListGlobal(ctx context.Context) ([]models.AppliedException, error) {
	query := exceptionSelect + ` WHERE e.scope = $1 ORDER BY e.date DESC, e.id`
	var rows []exceptionRow
	if err := r.db.SelectContext(ctx, &rows, query, models.ExceptionScopeGlobal); err != nil {
		return nil, fmt.Errorf("list global exceptions: %w", err)
	}
	return hydrate(rows), nil
}

// ListPersonalInWindow returns the user's exceptions dated inside [from, to].
func (r *ExceptionRepository) ListPersonalInWindow(ctx context.Context, userID string, from, to time.Time) ([]models.AppliedException, error) {
	query := exceptionSelect + ` WHERE e.scope = $1 AND e.user_id = $2 AND e.date BETWEEN $3 AND $4 ORDER BY e.date, e.id`
	var rows []exceptionRow
	if err := r.db.SelectContext(ctx, &rows, query, models.ExceptionScopePersonal, userID, from, to); err != nil {
		return nil, fmt.Errorf("list personal exceptions in window: %w", err)
	}
	return hydrate(rows), nil
}

// ListGlobalInWindow returns global exceptions dated inside [from, to].
func (r *ExceptionRepository) ListGlobalInWindow(ctx context.Context, from, to time.Time) ([]models.AppliedException, error) {
	query := exceptionSelect + ` WHERE e.scope = $1 AND e.date BETWEEN $2 AND $3 ORDER BY e.date, e.id`
	var rows []exceptionRow
	if err := r.db.SelectContext(ctx, &rows, query, models.ExceptionScopeGlobal, from, to); err != nil {
		return nil, fmt.Errorf("list global exceptions in window: %w", err)
	}
	return hydrate(rows), nil
}

// FindByID loads a single exception.
func (r *ExceptionRepository) FindByID(ctx context.Context, id string) (*models.AppliedException, error) {
	query := exceptionSelect + ` WHERE e.id = $1`
	var row exceptionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	hydrated := hydrate([]exceptionRow{row})
	return &hydrated[0], nil
}

// Create stores a new applied exception.
func (r *ExceptionRepository) Create(ctx context.Context, exc *models.AppliedException) error {
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = now
	}
	exc.UpdatedAt = now

	const query = `INSERT INTO applied_exceptions (id, user_id, scope, date, is_day_off, exception_pattern_id, period_index, class_id, reason, created_at, updated_at) VALUES (:id, :user_id, :scope, :date, :is_day_off, :exception_pattern_id, :period_index, :class_id, :reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exc); err != nil {
		return fmt.Errorf("create exception: %w", err)
	}
	return nil
}

// Update modifies an exception's behavior fields.
func (r *ExceptionRepository) Update(ctx context.Context, exc *models.AppliedException) error {
	exc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applied_exceptions SET date = :date, is_day_off = :is_day_off, exception_pattern_id = :exception_pattern_id, period_index = :period_index, class_id = :class_id, reason = :reason, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, exc); err != nil {
		return fmt.Errorf("update exception: %w", err)
	}
	return nil
}

// Delete removes an exception by id.
func (r *ExceptionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM applied_exceptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	return nil
}
