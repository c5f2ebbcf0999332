package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// PeriodsPerDay is the fixed number of teaching periods on every schedulable day.
const PeriodsPerDay = 6

// Weekday names a schedulable day. Sunday is not schedulable in this model.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// Weekdays lists the schedulable days in week order.
var Weekdays = [6]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Slot is one period of a day's schedule: a class reference or empty.
// An empty slot marshals to JSON null, matching the grid contract used by clients.
type Slot struct {
	ClassID string `json:"class_id"`
	Notes   string `json:"notes,omitempty"`
}

// IsEmpty reports whether the slot holds no class.
func (s Slot) IsEmpty() bool {
	return s.ClassID == ""
}

// MarshalJSON renders empty slots as null.
func (s Slot) MarshalJSON() ([]byte, error) {
	if s.IsEmpty() {
		return []byte("null"), nil
	}
	type alias Slot
	return json.Marshal(alias(s))
}

// UnmarshalJSON accepts null for empty slots.
func (s *Slot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Slot{}
		return nil
	}
	type alias Slot
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = Slot(a)
	return nil
}

// WeeklySchedule is the recurring template: one fixed-length slot row per weekday.
type WeeklySchedule map[Weekday][]Slot

// Normalize returns a copy where every weekday key is present with exactly
// PeriodsPerDay slots, padding short rows with empty slots and truncating long ones.
func (w WeeklySchedule) Normalize() WeeklySchedule {
	out := make(WeeklySchedule, len(Weekdays))
	for _, day := range Weekdays {
		row := make([]Slot, PeriodsPerDay)
		copy(row, w[day])
		out[day] = row
	}
	return out
}

// Clone returns a deep copy of the schedule.
func (w WeeklySchedule) Clone() WeeklySchedule {
	out := make(WeeklySchedule, len(w))
	for day, slots := range w {
		row := make([]Slot, len(slots))
		copy(row, slots)
		out[day] = row
	}
	return out
}

// ScheduleSlot is the persisted form of one slot of the weekly template.
type ScheduleSlot struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Weekday   Weekday   `db:"weekday" json:"weekday"`
	Period    int       `db:"period" json:"period"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
