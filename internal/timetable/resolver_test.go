package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func baseSchedule() models.WeeklySchedule {
	return models.WeeklySchedule{
		models.Monday: {
			{ClassID: "1"}, {}, {ClassID: "2"}, {}, {}, {},
		},
		models.Tuesday: {
			{ClassID: "3"}, {ClassID: "3"}, {}, {}, {ClassID: "1"}, {},
		},
	}
}

func patternWith(t *testing.T, id string, slots []*int) models.ExceptionPattern {
	t.Helper()
	data, err := models.EncodePatternSlots(slots)
	require.NoError(t, err)
	return models.ExceptionPattern{ID: id, Name: "pattern " + id, PatternData: data}
}

func allSettings() models.ResolutionSettings {
	return models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: true}
}

func TestResolveIdempotent(t *testing.T) {
	resolver := NewResolver(nil)
	in := Input{
		Base: baseSchedule(),
		PersonalDayOffs: []models.DayOffRecord{
			{ID: "off", StartDate: mustDate(t, "2025-01-07")},
		},
		Settings: allSettings(),
	}
	first := resolver.Resolve(in)
	second := resolver.Resolve(in)
	assert.Equal(t, first, second)
}

func TestResolvePadsEveryWeekday(t *testing.T) {
	resolver := NewResolver(nil)
	in := Input{
		Base: models.WeeklySchedule{
			models.Monday: {{ClassID: "1"}, {ClassID: "2"}},
			models.Friday: {{}, {}, {}, {}, {}, {}, {ClassID: "overflow"}},
		},
		Settings: allSettings(),
	}
	resolved := resolver.Resolve(in)
	for _, day := range models.Weekdays {
		require.Len(t, resolved[day], models.PeriodsPerDay, "weekday %s", day)
	}
	assert.Equal(t, "1", resolved[models.Monday][0].ClassID)
	assert.True(t, resolved[models.Monday][2].IsEmpty())
	// Overflow beyond six periods is truncated.
	for _, slot := range resolved[models.Friday] {
		assert.True(t, slot.IsEmpty())
	}
}

func TestResolvePersonalPatternBeatsGlobalDayOff(t *testing.T) {
	// 2025-01-06 is a Monday. The global day-off blanks it, then the personal
	// pattern rebuilds slot 1 from original period 3 of the pristine base.
	resolver := NewResolver(nil)
	pattern := patternWith(t, "pat-1", []*int{intPtr(3), nil, nil, nil, nil, nil})
	in := Input{
		Base: baseSchedule(),
		GlobalDayOffs: []models.DayOffRecord{
			{ID: "global-off", Scope: models.ScopeGlobal, StartDate: mustDate(t, "2025-01-06")},
		},
		PersonalExceptions: []models.AppliedException{
			{
				ID:                 "exc-1",
				Date:               mustDate(t, "2025-01-06"),
				ExceptionPatternID: strPtr("pat-1"),
			},
		},
		Patterns: map[string]models.ExceptionPattern{"pat-1": pattern},
		Settings: allSettings(),
	}

	resolved := resolver.Resolve(in)
	monday := resolved[models.Monday]
	require.Len(t, monday, models.PeriodsPerDay)
	assert.Equal(t, "2", monday[0].ClassID)
	for i := 1; i < models.PeriodsPerDay; i++ {
		assert.True(t, monday[i].IsEmpty(), "slot %d", i)
	}
}

func TestResolveGlobalPatternReadsPristineBase(t *testing.T) {
	// A global day-off blanks Monday first; the global pattern must still pull
	// class content from the original base, not from the blanked grid.
	resolver := NewResolver(nil)
	pattern := patternWith(t, "pat-g", []*int{nil, intPtr(1), nil, nil, nil, nil})
	in := Input{
		Base: baseSchedule(),
		GlobalDayOffs: []models.DayOffRecord{
			{ID: "global-off", Scope: models.ScopeGlobal, StartDate: mustDate(t, "2025-01-06")},
		},
		GlobalExceptions: []models.AppliedException{
			{ID: "gexc", Scope: models.ExceptionScopeGlobal, Date: mustDate(t, "2025-01-06"), ExceptionPatternID: strPtr("pat-g")},
		},
		Patterns: map[string]models.ExceptionPattern{"pat-g": pattern},
		Settings: allSettings(),
	}
	resolved := resolver.Resolve(in)
	assert.True(t, resolved[models.Monday][0].IsEmpty())
	assert.Equal(t, "1", resolved[models.Monday][1].ClassID)
}

func TestResolveAdHocTouchesOneSlot(t *testing.T) {
	resolver := NewResolver(nil)
	in := Input{
		Base: baseSchedule(),
		PersonalExceptions: []models.AppliedException{
			{
				ID:          "adhoc",
				Date:        mustDate(t, "2025-01-06"),
				PeriodIndex: intPtr(2),
				ClassID:     strPtr("9"),
				Reason:      strPtr("substitute"),
			},
		},
		Settings: allSettings(),
	}
	resolved := resolver.Resolve(in)
	base := baseSchedule().Normalize()

	monday := resolved[models.Monday]
	assert.Equal(t, "9", monday[2].ClassID)
	assert.Equal(t, "substitute", monday[2].Notes)
	for i := 0; i < models.PeriodsPerDay; i++ {
		if i == 2 {
			continue
		}
		assert.Equal(t, base[models.Monday][i], monday[i], "slot %d", i)
	}
}

func TestResolveSettingsGateGlobalLayers(t *testing.T) {
	resolver := NewResolver(nil)
	globalOff := models.DayOffRecord{ID: "g", Scope: models.ScopeGlobal, StartDate: mustDate(t, "2025-01-06")}
	in := Input{
		Base:          baseSchedule(),
		GlobalDayOffs: []models.DayOffRecord{globalOff},
		Settings:      models.ResolutionSettings{ApplyGlobalDaysOff: false, ApplyGlobalExceptions: true},
	}
	resolved := resolver.Resolve(in)
	assert.Equal(t, "1", resolved[models.Monday][0].ClassID, "gated layer must not blank the day")

	// The record stays queryable through the index even while gated.
	idx := NewDateRangeIndex(in.GlobalDayOffs)
	assert.True(t, idx.IsCovered("2025-01-06"))

	in.Settings.ApplyGlobalDaysOff = true
	resolved = resolver.Resolve(in)
	assert.True(t, resolved[models.Monday][0].IsEmpty())
}

func TestResolveGlobalExceptionsGate(t *testing.T) {
	resolver := NewResolver(nil)
	in := Input{
		Base: baseSchedule(),
		GlobalExceptions: []models.AppliedException{
			{ID: "g", Scope: models.ExceptionScopeGlobal, Date: mustDate(t, "2025-01-06"), IsDayOff: true},
		},
		Settings: models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: false},
	}
	resolved := resolver.Resolve(in)
	assert.Equal(t, "1", resolved[models.Monday][0].ClassID)
}

func TestResolveMissingPatternFailsSoft(t *testing.T) {
	resolver := NewResolver(nil)
	in := Input{
		Base: baseSchedule(),
		PersonalExceptions: []models.AppliedException{
			{ID: "exc", Date: mustDate(t, "2025-01-06"), ExceptionPatternID: strPtr("ghost")},
		},
		Settings: allSettings(),
	}
	resolved := resolver.Resolve(in)
	assert.Equal(t, "1", resolved[models.Monday][0].ClassID, "prior stage result must stand")
	assert.Equal(t, "2", resolved[models.Monday][2].ClassID)
}

func TestResolveEmbeddedPatternWins(t *testing.T) {
	resolver := NewResolver(nil)
	pattern := patternWith(t, "pat-e", []*int{intPtr(1), nil, nil, nil, nil, nil})
	in := Input{
		Base: baseSchedule(),
		PersonalExceptions: []models.AppliedException{
			{
				ID:                 "exc",
				Date:               mustDate(t, "2025-01-06"),
				ExceptionPatternID: strPtr("pat-e"),
				Pattern:            &pattern,
			},
		},
		Settings: allSettings(),
	}
	resolved := resolver.Resolve(in)
	assert.Equal(t, "1", resolved[models.Monday][0].ClassID)
	assert.True(t, resolved[models.Monday][2].IsEmpty())
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	resolver := NewResolver(nil)
	base := baseSchedule()
	in := Input{
		Base: base,
		PersonalExceptions: []models.AppliedException{
			{ID: "exc", Date: mustDate(t, "2025-01-06"), IsDayOff: true},
		},
		Settings: allSettings(),
	}
	_ = resolver.Resolve(in)
	assert.Equal(t, baseSchedule(), base, "base schedule must stay untouched")
	assert.Len(t, base[models.Monday], 6)
}

func TestResolveDate(t *testing.T) {
	resolver := NewResolver(nil)
	in := Input{
		Base: baseSchedule(),
		PersonalDayOffs: []models.DayOffRecord{
			// A different Monday; must not bleed into the requested date.
			{ID: "other-monday", StartDate: mustDate(t, "2025-01-13")},
		},
		Settings: allSettings(),
	}

	slots := resolver.ResolveDate(in, "2025-01-06")
	require.Len(t, slots, models.PeriodsPerDay)
	assert.Equal(t, "1", slots[0].ClassID)

	slots = resolver.ResolveDate(in, "2025-01-13")
	for _, slot := range slots {
		assert.True(t, slot.IsEmpty())
	}

	// Sundays are not schedulable.
	slots = resolver.ResolveDate(in, "2025-01-12")
	require.Len(t, slots, models.PeriodsPerDay)
	for _, slot := range slots {
		assert.True(t, slot.IsEmpty())
	}
}

func TestResolveWindowClipsSpilloverRange(t *testing.T) {
	// Thu 2025-01-02 .. Mon 2025-01-06 overlaps the windowed week only on
	// Monday. The Thursday the range covered the week before must keep its
	// regular schedule.
	resolver := NewResolver(nil)
	end := mustDate(t, "2025-01-06")
	in := Input{
		Base: models.WeeklySchedule{
			models.Monday:   {{ClassID: "1"}, {}, {}, {}, {}, {}},
			models.Thursday: {{ClassID: "4"}, {}, {}, {}, {}, {}},
		},
		PersonalDayOffs: []models.DayOffRecord{
			{ID: "long-off", StartDate: mustDate(t, "2025-01-02"), EndDate: &end},
		},
		Settings:    allSettings(),
		WindowStart: "2025-01-06",
		WindowEnd:   "2025-01-11",
	}

	resolved := resolver.Resolve(in)
	for _, slot := range resolved[models.Monday] {
		assert.True(t, slot.IsEmpty())
	}
	assert.Equal(t, "4", resolved[models.Thursday][0].ClassID)

	// Without a window every covered date projects, as before.
	in.WindowStart, in.WindowEnd = "", ""
	resolved = resolver.Resolve(in)
	assert.True(t, resolved[models.Thursday][0].IsEmpty())
}

func TestResolveUntouchedWeekdayShowsRegularSchedule(t *testing.T) {
	resolver := NewResolver(nil)
	in := Input{
		Base: baseSchedule(),
		PersonalExceptions: []models.AppliedException{
			{ID: "exc", Date: mustDate(t, "2025-01-06"), IsDayOff: true},
		},
		Settings: allSettings(),
	}
	resolved := resolver.Resolve(in)
	assert.Equal(t, "3", resolved[models.Tuesday][0].ClassID)
	assert.Equal(t, "1", resolved[models.Tuesday][4].ClassID)
}
