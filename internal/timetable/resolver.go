package timetable

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// Input is one fully-specified resolution snapshot. The resolver never mutates
// it; callers re-resolve whenever any underlying collection changes.
type Input struct {
	Base               models.WeeklySchedule
	PersonalDayOffs    []models.DayOffRecord
	PersonalExceptions []models.AppliedException
	GlobalDayOffs      []models.DayOffRecord
	GlobalExceptions   []models.AppliedException
	Patterns           map[string]models.ExceptionPattern
	Settings           models.ResolutionSettings
	// WindowStart/WindowEnd bound, inclusively, the dates the resolver may
	// project onto weekdays. A day-off range fetched for a week often spills
	// past it; dates outside the window must not blank that week's weekdays.
	// Empty means unbounded.
	WindowStart string
	WindowEnd   string
}

func (in Input) inWindow(date string) bool {
	if in.WindowStart != "" && date < in.WindowStart {
		return false
	}
	if in.WindowEnd != "" && date > in.WindowEnd {
		return false
	}
	return true
}

// Resolver merges the base weekly schedule with the four exception layers into
// an effective schedule. Precedence, lowest to highest: base grid, global
// day-offs, global exceptions, personal day-offs, personal exceptions. Global
// layers are gated by settings; personal layers always apply. Pattern remaps
// always read the pristine base grid, never the partially overlaid one.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve computes the effective weekly grid for the snapshot. Every date
// carried by the input's layers and inside its window is mapped onto its
// weekday, so callers scope the layers (and set the window) to the week they
// are rendering.
func (r *Resolver) Resolve(in Input) models.WeeklySchedule {
	base := in.Base.Normalize()
	working := base.Clone()

	if in.Settings.ApplyGlobalDaysOff {
		r.blankCoveredDays(working, in, in.GlobalDayOffs)
	}
	if in.Settings.ApplyGlobalExceptions {
		r.applyExceptions(working, base, in, in.GlobalExceptions)
	}
	r.blankCoveredDays(working, in, in.PersonalDayOffs)
	r.applyExceptions(working, base, in, in.PersonalExceptions)

	return working
}

// ResolveDate computes the effective slots for one concrete date. Layers are
// narrowed to entries touching that date before resolving, so records for other
// dates sharing the weekday cannot bleed in. Sundays resolve to an empty day.
func (r *Resolver) ResolveDate(in Input, date string) []models.Slot {
	day, ok := WeekdayOf(date)
	if !ok {
		return make([]models.Slot, models.PeriodsPerDay)
	}
	resolved := r.Resolve(narrowToDate(in, date))
	return resolved[day]
}

func (r *Resolver) blankCoveredDays(working models.WeeklySchedule, in Input, records []models.DayOffRecord) {
	idx := NewDateRangeIndex(records)
	for _, date := range idx.CoveredDates() {
		if !in.inWindow(date) {
			continue
		}
		day, ok := WeekdayOf(date)
		if !ok {
			continue
		}
		working[day] = make([]models.Slot, models.PeriodsPerDay)
	}
}

func (r *Resolver) applyExceptions(working, base models.WeeklySchedule, in Input, exceptions []models.AppliedException) {
	sorted := make([]models.AppliedException, len(exceptions))
	copy(sorted, exceptions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DateString() < sorted[j].DateString()
	})

	for _, exc := range sorted {
		if !in.inWindow(exc.DateString()) {
			continue
		}
		day, ok := WeekdayOf(exc.DateString())
		if !ok {
			continue
		}
		switch {
		case exc.IsDayOff:
			working[day] = make([]models.Slot, models.PeriodsPerDay)
		case exc.ExceptionPatternID != nil:
			pattern, found := r.lookupPattern(in, exc)
			if !found {
				// Fail soft: a dangling pattern reference leaves the
				// prior stage's result standing for this day.
				r.logger.Warn("exception references unknown pattern",
					zap.String("date", exc.DateString()),
					zap.Stringp("pattern_id", exc.ExceptionPatternID))
				continue
			}
			slots, ok := pattern.Slots()
			if !ok {
				r.logger.Warn("pattern payload is not decodable",
					zap.String("pattern_id", pattern.ID),
					zap.String("date", exc.DateString()))
				continue
			}
			working[day] = remapFromBase(base[day], slots)
		case exc.PeriodIndex != nil:
			r.applyAdHoc(working, day, exc)
		}
	}
}

func (r *Resolver) lookupPattern(in Input, exc models.AppliedException) (models.ExceptionPattern, bool) {
	if exc.Pattern != nil {
		return *exc.Pattern, true
	}
	if exc.ExceptionPatternID == nil {
		return models.ExceptionPattern{}, false
	}
	pattern, ok := in.Patterns[*exc.ExceptionPatternID]
	return pattern, ok
}

func (r *Resolver) applyAdHoc(working models.WeeklySchedule, day models.Weekday, exc models.AppliedException) {
	period := *exc.PeriodIndex
	if period < 0 || period >= models.PeriodsPerDay {
		// Validated at write time; tolerate bad stored data instead of panicking.
		r.logger.Warn("ad-hoc override period out of range",
			zap.String("date", exc.DateString()), zap.Int("period", period))
		return
	}
	slot := models.Slot{}
	if exc.ClassID != nil {
		slot.ClassID = *exc.ClassID
	}
	if exc.Reason != nil {
		slot.Notes = *exc.Reason
	}
	working[day][period] = slot
}

// remapFromBase builds a day's slots from the pristine base row per the
// pattern: result[i] copies original period patternData[i] (1-based), or stays
// empty when the entry is null.
func remapFromBase(baseRow []models.Slot, slots models.PatternSlots) []models.Slot {
	result := make([]models.Slot, models.PeriodsPerDay)
	for i, orig := range slots {
		if orig == nil {
			continue
		}
		idx := *orig - 1
		if idx < 0 || idx >= len(baseRow) {
			continue
		}
		result[i] = baseRow[idx]
	}
	return result
}

func narrowToDate(in Input, date string) Input {
	out := Input{
		Base:        in.Base,
		Patterns:    in.Patterns,
		Settings:    in.Settings,
		WindowStart: date,
		WindowEnd:   date,
	}
	for _, rec := range in.PersonalDayOffs {
		if rec.IncludesDate(date) {
			out.PersonalDayOffs = append(out.PersonalDayOffs, rec)
		}
	}
	for _, rec := range in.GlobalDayOffs {
		if rec.IncludesDate(date) {
			out.GlobalDayOffs = append(out.GlobalDayOffs, rec)
		}
	}
	for _, exc := range in.PersonalExceptions {
		if exc.DateString() == date {
			out.PersonalExceptions = append(out.PersonalExceptions, exc)
		}
	}
	for _, exc := range in.GlobalExceptions {
		if exc.DateString() == date {
			out.GlobalExceptions = append(out.GlobalExceptions, exc)
		}
	}
	return out
}
