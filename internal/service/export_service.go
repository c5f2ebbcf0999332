package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
	"github.com/noah-isme/jadwal-guru-api/pkg/export"
)

type exportClassRepository interface {
	List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, int, error)
}

// ExportService renders a resolved week as a downloadable document.
type ExportService struct {
	resolution *ResolutionService
	classes    exportClassRepository
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	enabled    bool
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(resolution *ResolutionService, classes exportClassRepository, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		resolution: resolution,
		classes:    classes,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		enabled:    enabled,
		logger:     logger,
	}
}

// Enabled reports whether exports are switched on.
func (s *ExportService) Enabled() bool {
	return s != nil && s.enabled
}

// ExportWeek renders the effective week containing date in the requested
// format ("csv" or "pdf") and returns the payload with its content type.
func (s *ExportService) ExportWeek(ctx context.Context, userID, date, format string) ([]byte, string, error) {
	if !s.Enabled() {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	week, err := s.resolution.ResolveWeek(ctx, userID, date)
	if err != nil {
		return nil, "", err
	}

	names, err := s.classNames(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	dataset := buildWeekDataset(week, names)

	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Jadwal Minggu "+week.WeekStart)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *ExportService) classNames(ctx context.Context, userID string) (map[string]string, error) {
	names := make(map[string]string)
	filter := models.ClassFilter{Page: 1, PageSize: 100}
	for {
		classes, total, err := s.classes.List(ctx, userID, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
		}
		for _, class := range classes {
			names[class.ID] = class.Name
		}
		if len(classes) == 0 || len(names) >= total {
			return names, nil
		}
		filter.Page++
	}
}

func buildWeekDataset(week *dto.ResolvedWeek, classNames map[string]string) export.Dataset {
	headers := []string{"Tanggal", "Hari"}
	for i := 1; i <= models.PeriodsPerDay; i++ {
		headers = append(headers, fmt.Sprintf("Jam %d", i))
	}

	rows := make([]map[string]string, 0, len(week.Days))
	for _, day := range week.Days {
		row := map[string]string{
			"Tanggal": day.Date,
			"Hari":    string(day.Weekday),
		}
		for i, slot := range day.Slots {
			if i >= models.PeriodsPerDay {
				break
			}
			key := fmt.Sprintf("Jam %d", i+1)
			switch {
			case day.DayOff:
				row[key] = "LIBUR"
			case slot.IsEmpty():
				row[key] = "-"
			default:
				name := classNames[slot.ClassID]
				if name == "" {
					name = slot.ClassID
				}
				row[key] = name
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
