package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/jsedlak/cabjobs/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes
// for job summaries.
type Service struct {
	jobs      repository.JobRepository
	templates repository.TemplateRepository
	logger    *slog.Logger
}

func NewService(jobs repository.JobRepository, templates repository.TemplateRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, templates: templates, logger: logger}
}

// ExportJobXLSX returns an XLSX workbook (as bytes) summarizing one job:
// one row per job item with its cabinet, dimensions, quantity and
// regeneration status.
func (s *Service) ExportJobXLSX(ctx context.Context, jobID uuid.UUID) ([]byte, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	items, err := s.jobs.ListItems(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Job"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// The default sheet is not needed once ours exists.
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Item", "Cabinet", "Width", "Height", "Depth", "Quantity", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, it := range items {
		cabinetName := ""
		if tmpl, err := s.templates.GetByID(ctx, it.CabinetID); err == nil {
			cabinetName = tmpl.Name
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, it.Name)
		write(2, cabinetName)
		write(3, dimOrEmpty(it.Width))
		write(4, dimOrEmpty(it.Height))
		write(5, dimOrEmpty(it.Depth))
		write(6, it.Quantity)
		write(7, string(it.OutputStatus))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("job exported", "job", job.Name, "items", len(items))
	return buf.Bytes(), nil
}

func dimOrEmpty(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
