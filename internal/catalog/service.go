// Package catalog imports part-program source directories as cabinet
// templates: structural validation first, then a verbatim copy into the
// canonical catalog directory and one transactional store write. A
// failed import leaves no trace on disk or in the store.
package catalog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jsedlak/cabjobs/constants"
	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/entity"
	"github.com/jsedlak/cabjobs/internal/partprogram"
	"github.com/jsedlak/cabjobs/internal/repository"
)

type Service struct {
	templates   repository.TemplateRepository
	catalogRoot string
	logger      *slog.Logger
}

func NewService(templates repository.TemplateRepository, catalogRoot string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{templates: templates, catalogRoot: catalogRoot, logger: logger}
}

// ImportTemplate imports every part-program file in srcDir as a new
// cabinet template named name. Validation happens before any side
// effect; if any file violates the per-part parameter invariants the
// whole import aborts with an aggregated message.
func (s *Service) ImportTemplate(ctx context.Context, name, srcDir string) (*entity.CabinetTemplate, error) {
	slug := common.Slugify(name)
	if slug == "" {
		return nil, common.NewAppError("INVALID_NAME", "template name produces an empty slug", common.ErrInvalidInput)
	}

	exists, err := s.templates.SlugExists(ctx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.NewAppError("ALREADY_EXISTS",
			fmt.Sprintf("template %q already exists", slug), common.ErrAlreadyExists)
	}

	filenames, err := listPartProgramFiles(srcDir)
	if err != nil {
		return nil, err
	}
	if len(filenames) == 0 {
		return nil, common.NewAppError("NO_FILES",
			fmt.Sprintf("no part-program files in %s", srcDir), common.ErrNoFiles)
	}

	meta, err := LoadMetadata(srcDir)
	if err != nil {
		return nil, common.NewAppError("BAD_METADATA", "invalid template metadata", err)
	}

	contents := make(map[string]string, len(filenames))
	var problems []string
	for _, fn := range filenames {
		data, err := os.ReadFile(filepath.Join(srcDir, fn))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", fn, err))
			continue
		}
		text := string(data)
		contents[fn] = text
		problems = append(problems, validateFile(fn, text)...)
	}
	if len(problems) > 0 {
		return nil, common.NewAppError("VALIDATION",
			strings.Join(problems, "; "), common.ErrValidation)
	}

	tmpl := &entity.CabinetTemplate{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		CatalogPath: filepath.Join(s.catalogRoot, slug),
	}
	if meta != nil && meta.Description != "" {
		tmpl.Description = &meta.Description
	}

	// Base dimensions come from the first file's panel block, if any.
	if panel := partprogram.ParsePanel(contents[filenames[0]]); panel != nil {
		w, h, t := panel.Width, panel.Height, panel.Thickness
		tmpl.BaseWidth, tmpl.BaseHeight, tmpl.BaseDepth = &w, &h, &t
	}

	groupByParam := buildGroups(tmpl, meta)
	collectParameters(tmpl, filenames, contents, groupByParam)

	for i, fn := range filenames {
		quantity := 1
		if meta != nil {
			if q, ok := meta.Quantities[fn]; ok && q >= 1 {
				quantity = q
			}
		}
		sum := sha256.Sum256([]byte(contents[fn]))
		tmpl.Files = append(tmpl.Files, entity.TemplateFile{
			ID:           uuid.New(),
			Filename:     fn,
			RelativePath: fn,
			ContentHash:  sum[:],
			Quantity:     quantity,
			SortOrder:    i,
		})
	}

	if err := os.MkdirAll(tmpl.CatalogPath, 0o755); err != nil {
		return nil, common.WrapError(err, "create catalog directory")
	}
	for _, fn := range filenames {
		if err := os.WriteFile(filepath.Join(tmpl.CatalogPath, fn), []byte(contents[fn]), 0o644); err != nil {
			s.cleanup(tmpl.CatalogPath)
			return nil, common.WrapError(err, "copy source file")
		}
	}

	if err := s.templates.Create(ctx, tmpl); err != nil {
		s.cleanup(tmpl.CatalogPath)
		return nil, common.WrapError(err, "persist template")
	}

	s.logger.Info("template imported", "slug", slug,
		"files", len(tmpl.Files), "parameters", len(tmpl.Parameters))
	return tmpl, nil
}

// validateFile enforces the structural invariants of one source file:
// exactly 2 axis-pair parameters and exactly 1 thickness parameter.
func validateFile(fn, text string) []string {
	var axisPairs, thickness int
	for _, p := range partprogram.ParseParameters(text) {
		switch {
		case partprogram.IsAxisPairParameter(p.Name):
			axisPairs++
		case p.Name == constants.ThicknessParamName:
			thickness++
		}
	}
	var problems []string
	if axisPairs != 2 {
		problems = append(problems,
			fmt.Sprintf("%s: expected 2 axis-pair parameters, found %d", fn, axisPairs))
	}
	if thickness != 1 {
		problems = append(problems,
			fmt.Sprintf("%s: expected 1 %s parameter, found %d", fn, constants.ThicknessParamName, thickness))
	}
	return problems
}

// buildGroups materializes metadata groups and returns a parameter-name
// to group-ID mapping.
func buildGroups(tmpl *entity.CabinetTemplate, meta *Metadata) map[string]uuid.UUID {
	byParam := make(map[string]uuid.UUID)
	if meta == nil {
		return byParam
	}
	for i, g := range meta.Groups {
		group := entity.ParameterGroup{ID: uuid.New(), Name: g.Name, SortOrder: i}
		tmpl.Groups = append(tmpl.Groups, group)
		for _, pname := range g.Parameters {
			byParam[pname] = group.ID
		}
	}
	return byParam
}

// collectParameters gathers parameters across all files in file order,
// deduplicates first-occurrence-wins, and filters per-part and reserved
// names before they reach the store.
func collectParameters(tmpl *entity.CabinetTemplate, filenames []string, contents map[string]string, groupByParam map[string]uuid.UUID) {
	var all []partprogram.Parameter
	for _, fn := range filenames {
		all = append(all, partprogram.ParseParameters(contents[fn])...)
	}
	for _, p := range partprogram.Deduplicate(all) {
		if partprogram.IsPerPartParameter(p.Name) || partprogram.IsExcludedParameter(p.Name) {
			continue
		}
		tp := entity.TemplateParameter{
			ID:           uuid.New(),
			Name:         p.Name,
			DefaultValue: p.Value,
			Description:  p.Description,
			ParamType:    string(partprogram.ClassifyType(p.Value, p.Description)),
			SortID:       p.SortID,
		}
		if gid, ok := groupByParam[p.Name]; ok {
			g := gid
			tp.GroupID = &g
		}
		tmpl.Parameters = append(tmpl.Parameters, tp)
	}
}

// listPartProgramFiles returns dialect filenames in srcDir, sorted, non-recursive.
func listPartProgramFiles(srcDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, common.WrapError(err, "read source directory")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !constants.IsPartProgramFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// UpdateBaseDimensions changes a template's base dimensions and
// propagates them into the panel blocks of its canonical source files
// (dot notation, matching the read side). Per-file rewrite failures are
// logged and skipped; the store update is authoritative.
func (s *Service) UpdateBaseDimensions(ctx context.Context, templateID uuid.UUID, width, height, depth *float64) error {
	tmpl, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return err
	}
	if err := s.templates.UpdateBaseDimensions(ctx, templateID, width, height, depth); err != nil {
		return err
	}

	dims := partprogram.PanelDims{Width: width, Height: height, Thickness: depth}
	for _, f := range tmpl.Files {
		path := filepath.Join(tmpl.CatalogPath, f.RelativePath)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error("failed to read source file for dimension update", "file", path, "error", err)
			continue
		}
		out := partprogram.RewritePanelDimensions(string(data), dims)
		if out == string(data) {
			continue
		}
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			s.logger.Error("failed to write source file for dimension update", "file", path, "error", err)
		}
	}
	return nil
}

func (s *Service) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to clean up catalog directory", "dir", dir, "error", err)
	}
}
