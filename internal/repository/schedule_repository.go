package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// ScheduleRepository persists the recurring weekly template as one row per
// occupied (weekday, period) cell.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetWeekly assembles a user's weekly template from the stored slot rows.
// Absent cells come back as empty slots after normalization in the service.
func (r *ScheduleRepository) GetWeekly(ctx context.Context, userID string) (models.WeeklySchedule, error) {
	const query = `SELECT id, user_id, weekday, period, class_id, created_at, updated_at FROM schedule_slots WHERE user_id = $1 ORDER BY weekday, period`
	var rows []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("get weekly schedule: %w", err)
	}

	schedule := models.WeeklySchedule{}
	for _, row := range rows {
		if row.Period < 0 || row.Period >= models.PeriodsPerDay {
			continue
		}
		if schedule[row.Weekday] == nil {
			schedule[row.Weekday] = make([]models.Slot, models.PeriodsPerDay)
		}
		schedule[row.Weekday][row.Period] = models.Slot{ClassID: row.ClassID}
	}
	return schedule, nil
}

// ReplaceWeekly swaps the user's stored template for the given grid inside a
// transaction. Empty slots are not persisted.
func (r *ScheduleRepository) ReplaceWeekly(ctx context.Context, userID string, schedule models.WeeklySchedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace weekly: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear weekly schedule: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO schedule_slots (id, user_id, weekday, period, class_id, created_at, updated_at) VALUES (:id, :user_id, :weekday, :period, :class_id, :created_at, :updated_at)`
	for _, day := range models.Weekdays {
		for period, slot := range schedule[day] {
			if slot.IsEmpty() || period >= models.PeriodsPerDay {
				continue
			}
			row := models.ScheduleSlot{
				ID:        uuid.NewString(),
				UserID:    userID,
				Weekday:   day,
				Period:    period,
				ClassID:   slot.ClassID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
				return fmt.Errorf("insert schedule slot %s/%d: %w", day, period, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace weekly: %w", err)
	}
	return nil
}

// ClearClass blanks every template cell that references the class. Used when a
// class is deleted so the template never points at a missing class.
func (r *ScheduleRepository) ClearClass(ctx context.Context, userID, classID string) error {
	const query = `DELETE FROM schedule_slots WHERE user_id = $1 AND class_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, classID); err != nil {
		return fmt.Errorf("clear class from schedule: %w", err)
	}
	return nil
}
