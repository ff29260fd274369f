// Package worklist derives the CNC-facing manifest for one job item from
// its regenerated part files.
package worklist

import (
	"context"
	"encoding/xml"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/partprogram"
	"github.com/jsedlak/cabjobs/internal/repository"
)

// Namespace is the fixed namespace of the manifest root element.
const Namespace = "urn:cabjobs:worklist"

// ManifestFilename is written into the item's destination directory.
const ManifestFilename = "worklist.xml"

type manifest struct {
	XMLName xml.Name       `xml:"Worklist"`
	Xmlns   string         `xml:"xmlns,attr"`
	Parts   []manifestPart `xml:"Part"`
}

type manifestPart struct {
	Name        string `xml:"Name"`
	File        string `xml:"File"`
	Description string `xml:"Description"`
	Quantity    string `xml:"Quantity"`
}

type Generator struct {
	jobs         repository.JobRepository
	templates    repository.TemplateRepository
	settings     repository.SettingsRepository
	jobsRoot     string
	programsRoot string
	logger       *slog.Logger
}

func NewGenerator(jobs repository.JobRepository, templates repository.TemplateRepository,
	settings repository.SettingsRepository, jobsRoot, programsRoot string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		jobs:         jobs,
		templates:    templates,
		settings:     settings,
		jobsRoot:     jobsRoot,
		programsRoot: programsRoot,
		logger:       logger,
	}
}

// Generate writes the manifest for itemID next to its regenerated part
// files. One row per template file in file order. It never propagates
// errors past its own boundary: every failure is logged and converted
// into a false return. A single unreadable part file only blanks that
// row's description.
func (g *Generator) Generate(ctx context.Context, itemID uuid.UUID) bool {
	item, err := g.jobs.GetItem(ctx, itemID)
	if err != nil {
		g.logger.Error("worklist: item lookup failed", "item_id", itemID, "error", err)
		return false
	}
	job, err := g.jobs.GetJob(ctx, item.JobID)
	if err != nil {
		g.logger.Error("worklist: job lookup failed", "item_id", itemID, "error", err)
		return false
	}
	tmpl, err := g.templates.GetByID(ctx, item.CabinetID)
	if err != nil {
		g.logger.Error("worklist: template lookup failed", "item_id", itemID, "error", err)
		return false
	}

	quantities := map[uuid.UUID]int{}
	if overrides, err := g.jobs.ListFileQuantities(ctx, itemID); err != nil {
		g.logger.Error("worklist: quantity lookup failed", "item_id", itemID, "error", err)
		return false
	} else {
		for _, q := range overrides {
			quantities[q.FileID] = q.Quantity
		}
	}

	jobSlug := common.Slugify(job.Name)
	destDir := filepath.Join(g.jobsRoot, jobSlug, item.Name)
	cncRoot := g.resolveProgramsRoot(ctx)

	m := manifest{Xmlns: Namespace}
	for _, f := range tmpl.Files {
		quantity := 1
		if q, ok := quantities[f.ID]; ok && q >= 1 {
			quantity = q
		}
		m.Parts = append(m.Parts, manifestPart{
			Name:        strings.TrimSuffix(f.Filename, filepath.Ext(f.Filename)),
			File:        filepath.Join(cncRoot, jobSlug, item.Name, f.Filename),
			Description: readDescription(filepath.Join(destDir, f.Filename)),
			Quantity:    strconv.Itoa(quantity),
		})
	}

	out, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		g.logger.Error("worklist: marshal failed", "item_id", itemID, "error", err)
		return false
	}
	data := append([]byte(xml.Header), out...)
	if err := os.WriteFile(filepath.Join(destDir, ManifestFilename), data, 0o644); err != nil {
		g.logger.Error("worklist: write failed", "item_id", itemID, "error", err)
		return false
	}
	g.logger.Info("worklist generated", "item_id", itemID, "parts", len(m.Parts))
	return true
}

// resolveProgramsRoot prefers the DB-backed override and falls back to
// the configured default.
func (g *Generator) resolveProgramsRoot(ctx context.Context) string {
	if g.settings != nil {
		if v, ok, err := g.settings.Get(ctx, repository.SettingCNCProgramsRoot); err == nil && ok && v != "" {
			return v
		}
	}
	return g.programsRoot
}

// readDescription reads the panel description from an already-regenerated
// file. Unreadable or panel-less files yield an empty description.
func readDescription(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	panel := partprogram.ParsePanel(string(data))
	if panel == nil {
		return ""
	}
	return panel.Description
}
