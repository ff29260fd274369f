// Package jobs owns the job/item lifecycle and the recalculation engine
// that regenerates per-item part files from template sources.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jsedlak/cabjobs/internal/async"
	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/entity"
	"github.com/jsedlak/cabjobs/internal/partprogram"
	"github.com/jsedlak/cabjobs/internal/repository"
	"github.com/jsedlak/cabjobs/internal/worklist"
)

type Service struct {
	jobs      repository.JobRepository
	templates repository.TemplateRepository
	worklist  *worklist.Generator
	queue     async.Queue
	jobsRoot  string
	logger    *slog.Logger
}

func NewService(jobs repository.JobRepository, templates repository.TemplateRepository,
	wl *worklist.Generator, jobsRoot string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		jobs:      jobs,
		templates: templates,
		worklist:  wl,
		jobsRoot:  jobsRoot,
		logger:    logger,
	}
	s.queue = async.NewDispatcher(s.runTask, logger)
	return s
}

// Shutdown waits for in-flight background regenerations.
func (s *Service) Shutdown(ctx context.Context) {
	s.queue.Shutdown(ctx)
}

func (s *Service) CreateJob(ctx context.Context, name string, description *string) (*entity.Job, error) {
	job := &entity.Job{ID: uuid.New(), Name: name, Description: description}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context) ([]entity.Job, error) {
	return s.jobs.ListJobs(ctx)
}

// AddCabinetToJob creates a job item from a template: quantity clamped to
// at least 1, parameter values snapshotted from the template defaults
// (per-part names never materialize as item rows), and the first
// regeneration fired in the background.
func (s *Service) AddCabinetToJob(ctx context.Context, jobID, cabinetID uuid.UUID, name string, quantity int) (*entity.JobItem, error) {
	if _, err := s.jobs.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	tmpl, err := s.templates.GetByID(ctx, cabinetID)
	if err != nil {
		return nil, err
	}
	taken, err := s.jobs.ItemNameExists(ctx, jobID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.NewAppError("DUPLICATE_ITEM",
			fmt.Sprintf("item %q already exists in this job", name), common.ErrAlreadyExists)
	}
	if quantity < 1 {
		quantity = 1
	}

	item := &entity.JobItem{
		ID:        uuid.New(),
		JobID:     jobID,
		CabinetID: cabinetID,
		Name:      name,
		Quantity:  quantity,
		Width:     tmpl.BaseWidth,
		Height:    tmpl.BaseHeight,
		Depth:     tmpl.BaseDepth,
	}

	var values []entity.ItemParameterValue
	for _, p := range tmpl.Parameters {
		if partprogram.IsPerPartParameter(p.Name) {
			continue
		}
		values = append(values, entity.ItemParameterValue{
			ParamName: p.Name,
			Value:     p.DefaultValue,
		})
	}

	if err := s.jobs.CreateItem(ctx, item, values); err != nil {
		return nil, err
	}
	s.enqueue(item.ID)
	return item, nil
}

// ItemEdit carries the editable fields of a job item. Nil means "leave
// unchanged".
type ItemEdit struct {
	Name       *string
	Width      *float64
	Height     *float64
	Depth      *float64
	Quantity   *int
	Parameters map[string]string
}

// UpdateItem applies an edit and re-fires regeneration unconditionally,
// even when nothing output-relevant changed. A rename also tries to move
// the existing destination directory; failure there (including "not
// created yet") is tolerated since the rerun recreates it under the new
// name.
func (s *Service) UpdateItem(ctx context.Context, itemID uuid.UUID, edit ItemEdit) (*entity.JobItem, error) {
	item, err := s.jobs.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.GetJob(ctx, item.JobID)
	if err != nil {
		return nil, err
	}

	if edit.Name != nil && *edit.Name != item.Name {
		taken, err := s.jobs.ItemNameExists(ctx, item.JobID, *edit.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, common.NewAppError("DUPLICATE_ITEM",
				fmt.Sprintf("item %q already exists in this job", *edit.Name), common.ErrAlreadyExists)
		}
		oldDir := s.itemDir(job.Name, item.Name)
		newDir := s.itemDir(job.Name, *edit.Name)
		if err := os.Rename(oldDir, newDir); err != nil {
			s.logger.Warn("failed to rename item directory", "item_id", itemID,
				"from", oldDir, "to", newDir, "error", err)
		}
		item.Name = *edit.Name
	}
	if edit.Width != nil {
		item.Width = edit.Width
	}
	if edit.Height != nil {
		item.Height = edit.Height
	}
	if edit.Depth != nil {
		item.Depth = edit.Depth
	}
	if edit.Quantity != nil {
		q := *edit.Quantity
		if q < 1 {
			q = 1
		}
		item.Quantity = q
	}

	if err := s.jobs.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	if len(edit.Parameters) > 0 {
		values := make([]entity.ItemParameterValue, 0, len(edit.Parameters))
		for name, value := range edit.Parameters {
			if partprogram.IsPerPartParameter(name) {
				continue
			}
			values = append(values, entity.ItemParameterValue{ParamName: name, Value: value})
		}
		if err := s.jobs.UpsertParameterValues(ctx, itemID, values); err != nil {
			return nil, err
		}
	}

	s.enqueue(itemID)
	return item, nil
}

// DeleteItem removes the item's regenerated directory best-effort, then
// the store row.
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.jobs.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if job, err := s.jobs.GetJob(ctx, item.JobID); err == nil {
		dir := s.itemDir(job.Name, item.Name)
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove item directory", "item_id", itemID, "dir", dir, "error", err)
		}
	}
	return s.jobs.DeleteItem(ctx, itemID)
}

// SetItemFileQuantity overrides one file's worklist row count for one
// item. Quantities below 1 clamp to 1.
func (s *Service) SetItemFileQuantity(ctx context.Context, itemID, fileID uuid.UUID, quantity int) error {
	if _, err := s.jobs.GetItem(ctx, itemID); err != nil {
		return err
	}
	return s.jobs.SetFileQuantity(ctx, itemID, fileID, quantity)
}

func (s *Service) itemDir(jobName, itemName string) string {
	return filepath.Join(s.jobsRoot, common.Slugify(jobName), itemName)
}

func (s *Service) enqueue(itemID uuid.UUID) {
	s.queue.Enqueue(context.Background(), async.Task{ItemID: itemID})
}

// runTask is the background entry: regenerate, then derive the worklist.
// Errors were already logged and recorded on the item's status.
func (s *Service) runTask(ctx context.Context, task async.Task) {
	if err := s.Recalculate(ctx, task.ItemID); err != nil {
		return
	}
	if s.worklist != nil {
		s.worklist.Generate(ctx, task.ItemID)
	}
}
