package timetable

import (
	"time"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// ParseDate parses a canonical YYYY-MM-DD string.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, date, time.Local)
}

// WeekdayOf maps a canonical date to its schedulable weekday. The date is
// anchored at midday local time so timezone and DST boundaries cannot shift it
// into a neighboring day. Sundays return false: they are not schedulable.
func WeekdayOf(date string) (models.Weekday, bool) {
	t, err := ParseDate(date)
	if err != nil {
		return "", false
	}
	anchored := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local)
	switch anchored.Weekday() {
	case time.Monday:
		return models.Monday, true
	case time.Tuesday:
		return models.Tuesday, true
	case time.Wednesday:
		return models.Wednesday, true
	case time.Thursday:
		return models.Thursday, true
	case time.Friday:
		return models.Friday, true
	case time.Saturday:
		return models.Saturday, true
	default:
		return "", false
	}
}

// WeekDates returns the monday..saturday dates of the week containing the
// given date, in week order. A Sunday belongs to the week that starts the
// following day, matching how the weekly grid is presented.
func WeekDates(date string) ([6]string, error) {
	var week [6]string
	t, err := ParseDate(date)
	if err != nil {
		return week, err
	}
	anchored := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local)
	offset := int(anchored.Weekday()) - int(time.Monday)
	if anchored.Weekday() == time.Sunday {
		offset = -1
	}
	monday := anchored.AddDate(0, 0, -offset)
	for i := range week {
		week[i] = monday.AddDate(0, 0, i).Format(models.DateLayout)
	}
	return week, nil
}
