package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ExceptionPattern is a reusable remap template: entry i names the 1-based
// original period whose content should appear at position i on an excepted day,
// or null to leave the position blank.
type ExceptionPattern struct {
	ID          string         `db:"id" json:"id"`
	UserID      *string        `db:"user_id" json:"user_id,omitempty"`
	Name        string         `db:"name" json:"name"`
	PatternData types.JSONText `db:"pattern_data" json:"pattern_data"`
	IsGlobal    bool           `db:"is_global" json:"is_global"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// PatternSlots is the decoded pattern payload, always PeriodsPerDay entries.
type PatternSlots [PeriodsPerDay]*int

// Slots decodes PatternData. Short payloads are padded with nulls and long ones
// truncated, mirroring the grid normalization rules. The second return is false
// when the payload cannot be decoded at all.
func (p ExceptionPattern) Slots() (PatternSlots, bool) {
	var slots PatternSlots
	if len(p.PatternData) == 0 {
		return slots, false
	}
	var raw []*int
	if err := json.Unmarshal(p.PatternData, &raw); err != nil {
		return slots, false
	}
	for i := 0; i < PeriodsPerDay && i < len(raw); i++ {
		slots[i] = raw[i]
	}
	return slots, true
}

// EncodePatternSlots renders pattern slots back to their JSON storage form.
func EncodePatternSlots(slots []*int) (types.JSONText, error) {
	normalized := make([]*int, PeriodsPerDay)
	copy(normalized, slots)
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	return types.JSONText(data), nil
}
