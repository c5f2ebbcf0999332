package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// PatternRepository persists exception patterns. A teacher sees their own
// patterns plus the global catalog; only admins write global ones.
type PatternRepository struct {
	db *sqlx.DB
}

// NewPatternRepository creates a new pattern repository.
func NewPatternRepository(db *sqlx.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

// ListVisible returns the user's own patterns and all global patterns.
func (r *PatternRepository) ListVisible(ctx context.Context, userID string) ([]models.ExceptionPattern, error) {
	const query = `SELECT id, user_id, name, pattern_data, is_global, created_at, updated_at FROM exception_patterns WHERE user_id = $1 OR is_global = TRUE ORDER BY is_global, name`
	var patterns []models.ExceptionPattern
	if err := r.db.SelectContext(ctx, &patterns, query, userID); err != nil {
		return nil, fmt.Errorf("list visible patterns: %w", err)
	}
	return patterns, nil
}

// ListGlobal returns only the global catalog.
func (r *PatternRepository) ListGlobal(ctx context.Context) ([]models.ExceptionPattern, error) {
	const query = `SELECT id, user_id, name, pattern_data, is_global, created_at, updated_at FROM exception_patterns WHERE is_global = TRUE ORDER BY name`
	var patterns []models.ExceptionPattern
	if err := r.db.SelectContext(ctx, &patterns, query); err != nil {
		return nil, fmt.Errorf("list global patterns: %w", err)
	}
	return patterns, nil
}

// FindByID loads a single pattern.
func (r *PatternRepository) FindByID(ctx context.Context, id string) (*models.ExceptionPattern, error) {
	const query = `SELECT id, user_id, name, pattern_data, is_global, created_at, updated_at FROM exception_patterns WHERE id = $1`
	var pattern models.ExceptionPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		return nil, err
	}
	return &pattern, nil
}

// FindByIDs loads several patterns keyed by id. Missing ids are simply absent
// from the result, matching the fail-soft resolution contract.
func (r *PatternRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.ExceptionPattern, error) {
	out := make(map[string]models.ExceptionPattern, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, name, pattern_data, is_global, created_at, updated_at FROM exception_patterns WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build pattern lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var patterns []models.ExceptionPattern
	if err := r.db.SelectContext(ctx, &patterns, query, args...); err != nil {
		return nil, fmt.Errorf("find patterns by ids: %w", err)
	}
	for _, p := range patterns {
		out[p.ID] = p
	}
	return out, nil
}

// NameExists reports whether another pattern in the same visibility bucket
// already uses the name. excludeID skips the pattern being updated.
func (r *PatternRepository) NameExists(ctx context.Context, userID *string, name, excludeID string) (bool, error) {
	var (
		query string
		args  []interface{}
	)
	if userID == nil {
		query = `SELECT COUNT(*) FROM exception_patterns WHERE is_global = TRUE AND LOWER(name) = LOWER($1) AND id <> $2`
		args = []interface{}{name, excludeID}
	} else {
		query = `SELECT COUNT(*) FROM exception_patterns WHERE user_id = $1 AND LOWER(name) = LOWER($2) AND id <> $3`
		args = []interface{}{*userID, name, excludeID}
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check pattern name: %w", err)
	}
	return count > 0, nil
}

// CountReferences returns how many applied exceptions still point at the pattern.
func (r *PatternRepository) CountReferences(ctx context.Context, patternID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM applied_exceptions WHERE exception_pattern_id = $1`, patternID); err != nil {
		return 0, fmt.Errorf("count pattern references: %w", err)
	}
	return count, nil
}

// Create stores a new pattern.
func (r *PatternRepository) Create(ctx context.Context, pattern *models.ExceptionPattern) error {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = now
	}
	pattern.UpdatedAt = now

	const query = `INSERT INTO exception_patterns (id, user_id, name, pattern_data, is_global, created_at, updated_at) VALUES (:id, :user_id, :name, :pattern_data, :is_global, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}
	return nil
}

// Update modifies a pattern's name and payload.
func (r *PatternRepository) Update(ctx context.Context, pattern *models.ExceptionPattern) error {
	pattern.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exception_patterns SET name = :name, pattern_data = :pattern_data, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("update pattern: %w", err)
	}
	return nil
}

// Delete removes a pattern by id.
func (r *PatternRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exception_patterns WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	return nil
}
