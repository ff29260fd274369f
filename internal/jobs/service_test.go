package jobs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsedlak/cabjobs/constants"
	"github.com/jsedlak/cabjobs/internal/catalog"
	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/entity"
	"github.com/jsedlak/cabjobs/internal/repository"
)

const testPart = `<PartProgram>
  <PanelDimensions>
    <Name>BOK_L</Name>
    <Description>Left side panel</Description>
    <Width>560.5</Width>
    <Height>720</Height>
    <Thickness>18</Thickness>
  </PanelDimensions>
  <Parameter>
    <Name>X_C_Y</Name>
    <Value>10</Value>
    <ValueFormatted>10</ValueFormatted>
  </Parameter>
  <Parameter>
    <Name>Y_C_X</Name>
    <Value>20</Value>
    <ValueFormatted>20</ValueFormatted>
  </Parameter>
  <Parameter>
    <Name>HRUB</Name>
    <Value>18</Value>
    <ValueFormatted>18</ValueFormatted>
  </Parameter>
  <Parameter>
    <Name>LX</Name>
    <Value>560,5</Value>
    <Description>Cabinet width</Description>
    <ValueFormatted>560,5</ValueFormatted>
  </Parameter>
</PartProgram>
`

type fixture struct {
	svc      *Service
	jobRepo  repository.JobRepository
	tmplRepo repository.TemplateRepository
	tmpl     *entity.CabinetTemplate
	job      *entity.Job
	jobsRoot string
	catRoot  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Open(ctx, filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, logger) })

	tmplRepo := repository.NewTemplateRepository(db, logger)
	jobRepo := repository.NewJobRepository(db, logger)

	catRoot := t.TempDir()
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bok_l.xml"), []byte(testPart), 0o644))

	cat := catalog.NewService(tmplRepo, catRoot, logger)
	tmpl, err := cat.ImportTemplate(ctx, "Base Cabinet", srcDir)
	require.NoError(t, err)

	jobsRoot := t.TempDir()
	svc := NewService(jobRepo, tmplRepo, nil, jobsRoot, logger)
	t.Cleanup(func() { svc.Shutdown(context.Background()) })

	job, err := svc.CreateJob(ctx, "Kitchen Smith", nil)
	require.NoError(t, err)

	return &fixture{
		svc:      svc,
		jobRepo:  jobRepo,
		tmplRepo: tmplRepo,
		tmpl:     tmpl,
		job:      job,
		jobsRoot: jobsRoot,
		catRoot:  catRoot,
	}
}

// drain waits for background regenerations kicked off so far.
func (f *fixture) drain() {
	f.svc.Shutdown(context.Background())
}

func TestAddCabinetToJobClampsQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	item, err = f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-2", -3)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	item, err = f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-3", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
}

func TestAddCabinetToJobDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-1", 1)
	require.NoError(t, err)

	_, err = f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-1", 1)
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestSeedingExcludesPerPartParameters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A template persisted with per-part names in its parameter list
	// (bypassing import-time filtering) still must not seed them.
	raw := &entity.CabinetTemplate{
		ID:          uuid.New(),
		Name:        "Raw",
		Slug:        "raw",
		CatalogPath: f.catRoot,
	}
	for _, name := range []string{"X_C_Y", "Y_C_X", "HRUB", "LX"} {
		raw.Parameters = append(raw.Parameters, entity.TemplateParameter{
			ID: uuid.New(), Name: name, DefaultValue: "1", ParamType: "number",
		})
	}
	require.NoError(t, f.tmplRepo.Create(ctx, raw))

	item, err := f.svc.AddCabinetToJob(ctx, f.job.ID, raw.ID, "raw-1", 1)
	require.NoError(t, err)
	f.drain()

	values, err := f.jobRepo.ListParameterValues(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "LX", values[0].ParamName)
}

func TestRecalculateWritesRewrittenFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-1", 1)
	require.NoError(t, err)
	f.drain()

	got, err := f.jobRepo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.OutputStatusGenerated, got.OutputStatus)

	dest := filepath.Join(f.jobsRoot, "kitchen-smith", "sk-1", "bok_l.xml")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<Value>560,5</Value>", "seeded default applied")

	// Edit a parameter; the regenerated file carries the new value in
	// locale notation.
	_, err = f.svc.UpdateItem(ctx, item.ID, ItemEdit{Parameters: map[string]string{"LX": "600.0"}})
	require.NoError(t, err)
	f.drain()

	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<Value>600,0</Value>")
	assert.Contains(t, string(data), "<ValueFormatted>600,0</ValueFormatted>")
}

func TestRecalculatePerFileFailuresStillGenerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-1", 1)
	require.NoError(t, err)
	f.drain()

	// Every per-file read now fails; the run still completes.
	require.NoError(t, os.RemoveAll(f.tmpl.CatalogPath))

	require.NoError(t, f.svc.Recalculate(ctx, item.ID))
	got, err := f.jobRepo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.OutputStatusGenerated, got.OutputStatus)
}

func TestRecalculateSetupFailureSetsErrorStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.svc.CreateJob(ctx, "Blocked Job", nil)
	require.NoError(t, err)

	// A regular file where the job directory should go makes MkdirAll
	// fail, which is a whole-run failure.
	require.NoError(t, os.WriteFile(filepath.Join(f.jobsRoot, "blocked-job"), []byte("x"), 0o644))

	item, err := f.svc.AddCabinetToJob(ctx, job.ID, f.tmpl.ID, "sk-1", 1)
	require.NoError(t, err)
	f.drain()

	err = f.svc.Recalculate(ctx, item.ID)
	require.Error(t, err, "directory creation failure propagates to the caller")

	got, err := f.jobRepo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.OutputStatusError, got.OutputStatus)
}

func TestUpdateItemRenameMovesDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "old-name", 1)
	require.NoError(t, err)
	f.drain()

	newName := "new-name"
	_, err = f.svc.UpdateItem(ctx, item.ID, ItemEdit{Name: &newName})
	require.NoError(t, err)
	f.drain()

	_, err = os.Stat(filepath.Join(f.jobsRoot, "kitchen-smith", "new-name", "bok_l.xml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.jobsRoot, "kitchen-smith", "old-name"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteItemRemovesDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddCabinetToJob(ctx, f.job.ID, f.tmpl.ID, "sk-1", 1)
	require.NoError(t, err)
	f.drain()

	dir := filepath.Join(f.jobsRoot, "kitchen-smith", "sk-1")
	_, err = os.Stat(dir)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteItem(ctx, item.ID))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	_, err = f.jobRepo.GetItem(ctx, item.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}
