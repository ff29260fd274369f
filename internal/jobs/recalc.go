package jobs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jsedlak/cabjobs/constants"
	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/partprogram"
)

// Recalculate regenerates every part file of one job item by applying
// its parameter overrides to the template sources.
//
// Status contract: generating while the run is live, generated when the
// run finishes, error only when a failure escapes the per-file loop
// (directory creation, lookups). A bad individual source file is logged
// and skipped; it never downgrades the run. There is no partial-success
// state.
//
// Concurrent runs for the same item are not mutually excluded; a second
// edit racing the first run is last-writer-wins on both the status field
// and the files on disk.
func (s *Service) Recalculate(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.jobs.GetItem(ctx, itemID)
	if err != nil {
		s.logger.Error("recalculate: item lookup failed", "item_id", itemID, "error", err)
		return err
	}
	if err := s.jobs.SetOutputStatus(ctx, itemID, constants.OutputStatusGenerating); err != nil {
		return err
	}

	if err := s.regenerate(ctx, item.JobID, itemID, item.CabinetID, item.Name); err != nil {
		if serr := s.jobs.SetOutputStatus(ctx, itemID, constants.OutputStatusError); serr != nil {
			s.logger.Error("recalculate: failed to record error status", "item_id", itemID, "error", serr)
		}
		s.logger.Error("recalculate failed", "item_id", itemID, "error", err)
		return err
	}

	if err := s.jobs.SetOutputStatus(ctx, itemID, constants.OutputStatusGenerated); err != nil {
		return err
	}
	s.logger.Info("recalculated", "item_id", itemID)
	return nil
}

func (s *Service) regenerate(ctx context.Context, jobID, itemID, cabinetID uuid.UUID, itemName string) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return common.WrapError(err, "load job")
	}
	tmpl, err := s.templates.GetByID(ctx, cabinetID)
	if err != nil {
		return common.WrapError(err, "load template")
	}

	destDir := s.itemDir(job.Name, itemName)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return common.WrapError(err, "create destination directory")
	}

	values, err := s.jobs.ListParameterValues(ctx, itemID)
	if err != nil {
		return common.WrapError(err, "load parameter values")
	}
	overrides := make(map[string]string, len(values))
	for _, v := range values {
		overrides[v.ParamName] = v.Value
	}

	// Per-file failures are isolated: one bad source file must not block
	// the rest of the directory.
	for _, f := range tmpl.Files {
		src := filepath.Join(tmpl.CatalogPath, f.RelativePath)
		data, err := os.ReadFile(src)
		if err != nil {
			s.logger.Error("recalculate: read failed", "item_id", itemID, "file", src, "error", err)
			continue
		}
		out := partprogram.RewriteParameterValues(string(data), overrides)
		dst := filepath.Join(destDir, f.Filename)
		if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
			s.logger.Error("recalculate: write failed", "item_id", itemID, "file", dst, "error", err)
			continue
		}
	}
	return nil
}
