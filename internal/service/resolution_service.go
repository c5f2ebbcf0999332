package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	"github.com/noah-isme/jadwal-guru-api/internal/timetable"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
)

type resolutionScheduleRepository interface {
	GetWeekly(ctx context.Context, userID string) (models.WeeklySchedule, error)
}

type resolutionDayOffRepository interface {
	ListPersonalInWindow(ctx context.Context, userID string, from, to time.Time) ([]models.DayOffRecord, error)
	ListGlobalInWindow(ctx context.Context, from, to time.Time) ([]models.DayOffRecord, error)
}

type resolutionExceptionRepository interface {
	ListPersonalInWindow(ctx context.Context, userID string, from, to time.Time) ([]models.AppliedException, error)
	ListGlobalInWindow(ctx context.Context, from, to time.Time) ([]models.AppliedException, error)
}

type resolutionPatternRepository interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.ExceptionPattern, error)
}

type resolutionSettingsRepository interface {
	GetResolutionSettings(ctx context.Context) (models.ResolutionSettings, error)
}

// ResolutionService assembles the effective schedule: it gathers the base
// template and the four exception layers, runs the resolver, and caches the
// rendered week.
type ResolutionService struct {
	schedules  resolutionScheduleRepository
	dayOffs    resolutionDayOffRepository
	exceptions resolutionExceptionRepository
	patterns   resolutionPatternRepository
	settings   resolutionSettingsRepository
	resolver   *timetable.Resolver
	cache      *CacheService
	metrics    *MetricsService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewResolutionService constructs a ResolutionService.
func NewResolutionService(
	schedules resolutionScheduleRepository,
	dayOffs resolutionDayOffRepository,
	exceptions resolutionExceptionRepository,
	patterns resolutionPatternRepository,
	settings resolutionSettingsRepository,
	resolver *timetable.Resolver,
	cache *CacheService,
	metrics *MetricsService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ResolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = timetable.NewResolver(logger)
	}
	return &ResolutionService{
		schedules:  schedules,
		dayOffs:    dayOffs,
		exceptions: exceptions,
		patterns:   patterns,
		settings:   settings,
		resolver:   resolver,
		cache:      cache,
		metrics:    metrics,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

func resolutionCacheKey(userID, weekStart string) string {
	return fmt.Sprintf("resolution:%s:%s", userID, weekStart)
}

// resolutionCachePattern matches every cached week for the user; pass "*" to
// match every user.
func resolutionCachePattern(userID string) string {
	return fmt.Sprintf("resolution:%s:*", userID)
}

// ResolveWeek returns the effective schedule for the week containing date.
func (s *ResolutionService) ResolveWeek(ctx context.Context, userID, date string) (*dto.ResolvedWeek, error) {
	week, err := timetable.WeekDates(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	start := time.Now()
	cacheKey := resolutionCacheKey(userID, week[0])
	if s.cache != nil {
		var cached dto.ResolvedWeek
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil && hit {
			if s.metrics != nil {
				s.metrics.ObserveResolution("week", true, time.Since(start))
			}
			return &cached, nil
		}
	}

	from, err := timetable.ParseDate(week[0])
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	to, err := timetable.ParseDate(week[5])
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	input, err := s.gather(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	resolved := s.resolver.Resolve(*input)
	result := s.renderWeek(week, *input, resolved)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache resolved week", zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveResolution("week", false, time.Since(start))
	}
	return result, nil
}

// ResolveDate returns the effective slots for one concrete date.
func (s *ResolutionService) ResolveDate(ctx context.Context, userID, date string) (*dto.ResolvedDay, error) {
	if _, err := timetable.ParseDate(date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	start := time.Now()
	at, _ := timetable.ParseDate(date)
	input, err := s.gather(ctx, userID, at, at)
	if err != nil {
		return nil, err
	}

	slots := s.resolver.ResolveDate(*input, date)
	day := s.renderDay(date, *input, slots)
	if s.metrics != nil {
		s.metrics.ObserveResolution("date", false, time.Since(start))
	}
	return &day, nil
}

// gather fetches the five resolution inputs concurrently.
func (s *ResolutionService) gather(ctx context.Context, userID string, from, to time.Time) (*timetable.Input, error) {
	var (
		wg       sync.WaitGroup
		base     models.WeeklySchedule
		pOffs    []models.DayOffRecord
		gOffs    []models.DayOffRecord
		pExcs    []models.AppliedException
		gExcs    []models.AppliedException
		settings models.ResolutionSettings
		errs     [5]error
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		base, errs[0] = s.schedules.GetWeekly(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		pOffs, errs[1] = s.dayOffs.ListPersonalInWindow(ctx, userID, from, to)
	}()
	go func() {
		defer wg.Done()
		gOffs, errs[2] = s.dayOffs.ListGlobalInWindow(ctx, from, to)
	}()
	go func() {
		defer wg.Done()
		var err1, err2 error
		pExcs, err1 = s.exceptions.ListPersonalInWindow(ctx, userID, from, to)
		gExcs, err2 = s.exceptions.ListGlobalInWindow(ctx, from, to)
		if err1 != nil {
			errs[3] = err1
		} else {
			errs[3] = err2
		}
	}()
	go func() {
		defer wg.Done()
		settings, errs[4] = s.settings.GetResolutionSettings(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to gather resolution inputs")
		}
	}

	patterns, err := s.loadPatterns(ctx, pExcs, gExcs)
	if err != nil {
		return nil, err
	}

	return &timetable.Input{
		Base:               base,
		PersonalDayOffs:    pOffs,
		PersonalExceptions: pExcs,
		GlobalDayOffs:      gOffs,
		GlobalExceptions:   gExcs,
		Patterns:           patterns,
		Settings:           settings,
		// Day-off ranges intersecting the window may extend past it; the
		// window keeps their out-of-range dates from blanking this week.
		WindowStart: from.Format(models.DateLayout),
		WindowEnd:   to.Format(models.DateLayout),
	}, nil
}

// loadPatterns backfills pattern payloads for exceptions the join did not
// hydrate. Missing patterns stay absent; the resolver fails soft on them.
func (s *ResolutionService) loadPatterns(ctx context.Context, groups ...[]models.AppliedException) (map[string]models.ExceptionPattern, error) {
	var missing []string
	seen := map[string]bool{}
	for _, group := range groups {
		for _, exc := range group {
			if exc.ExceptionPatternID == nil || exc.Pattern != nil || seen[*exc.ExceptionPatternID] {
				continue
			}
			seen[*exc.ExceptionPatternID] = true
			missing = append(missing, *exc.ExceptionPatternID)
		}
	}
	if len(missing) == 0 {
		return map[string]models.ExceptionPattern{}, nil
	}
	patterns, err := s.patterns.FindByIDs(ctx, missing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patterns")
	}
	return patterns, nil
}

func (s *ResolutionService) renderWeek(week [6]string, in timetable.Input, resolved models.WeeklySchedule) *dto.ResolvedWeek {
	out := &dto.ResolvedWeek{
		WeekStart: week[0],
		Days:      make([]dto.ResolvedDay, 0, len(week)),
		Settings:  in.Settings,
	}
	globalOffs := timetable.NewDateRangeIndex(in.GlobalDayOffs)
	personalOffs := timetable.NewDateRangeIndex(in.PersonalDayOffs)
	for _, date := range week {
		day, ok := timetable.WeekdayOf(date)
		if !ok {
			continue
		}
		rendered := dto.ResolvedDay{
			Date:    date,
			Weekday: day,
			Slots:   resolved[day],
		}
		s.decorateDayOff(&rendered, in, globalOffs, personalOffs, date)
		out.Days = append(out.Days, rendered)
	}
	return out
}

func (s *ResolutionService) renderDay(date string, in timetable.Input, slots []models.Slot) dto.ResolvedDay {
	day, _ := timetable.WeekdayOf(date)
	rendered := dto.ResolvedDay{
		Date:    date,
		Weekday: day,
		Slots:   slots,
	}
	s.decorateDayOff(&rendered, in, timetable.NewDateRangeIndex(in.GlobalDayOffs), timetable.NewDateRangeIndex(in.PersonalDayOffs), date)
	return rendered
}

// decorateDayOff marks the day and carries reason/color when a day-off record
// or a day-off exception covers the date. Personal records win over global
// ones, mirroring the resolution precedence. The indexes are built once per
// rendered week and shared across its days.
func (s *ResolutionService) decorateDayOff(day *dto.ResolvedDay, in timetable.Input, globalOffs, personalOffs *timetable.DateRangeIndex, date string) {
	if in.Settings.ApplyGlobalDaysOff {
		if owner, ok := globalOffs.OwnerOf(date); ok {
			day.DayOff = true
			day.Reason = owner.Reason
			day.Color = owner.Color
		}
	}
	if in.Settings.ApplyGlobalExceptions {
		for _, exc := range in.GlobalExceptions {
			if exc.IsDayOff && exc.DateString() == date {
				day.DayOff = true
				if exc.Reason != nil {
					day.Reason = *exc.Reason
				}
			}
		}
	}
	if owner, ok := personalOffs.OwnerOf(date); ok {
		day.DayOff = true
		day.Reason = owner.Reason
		day.Color = owner.Color
	}
	for _, exc := range in.PersonalExceptions {
		if exc.IsDayOff && exc.DateString() == date {
			day.DayOff = true
			if exc.Reason != nil {
				day.Reason = *exc.Reason
			}
		}
	}
}
