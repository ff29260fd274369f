package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsedlak/cabjobs/constants"
	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/entity"
)

func openTestDB(t *testing.T) (JobRepository, TemplateRepository, SettingsRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, logger) })
	return NewJobRepository(db, logger), NewTemplateRepository(db, logger), NewSettingsRepository(db, logger)
}

func seedJobAndTemplate(t *testing.T, jobs JobRepository, templates TemplateRepository) (*entity.Job, *entity.CabinetTemplate) {
	t.Helper()
	ctx := context.Background()
	tmpl := &entity.CabinetTemplate{ID: uuid.New(), Name: "T", Slug: "t", CatalogPath: t.TempDir()}
	require.NoError(t, templates.Create(ctx, tmpl))
	job := &entity.Job{ID: uuid.New(), Name: "J"}
	require.NoError(t, jobs.CreateJob(ctx, job))
	return job, tmpl
}

func TestItemRoundTrip(t *testing.T) {
	jobs, templates, _ := openTestDB(t)
	ctx := context.Background()
	job, tmpl := seedJobAndTemplate(t, jobs, templates)

	w := 600.5
	item := &entity.JobItem{
		ID: uuid.New(), JobID: job.ID, CabinetID: tmpl.ID,
		Name: "sk-1", Quantity: 2, Width: &w,
	}
	values := []entity.ItemParameterValue{
		{ParamName: "LX", Value: "600,5"},
		{ParamName: "LY", Value: "720"},
	}
	require.NoError(t, jobs.CreateItem(ctx, item, values))

	got, err := jobs.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "sk-1", got.Name)
	assert.Equal(t, constants.OutputStatusPending, got.OutputStatus)
	require.NotNil(t, got.Width)
	assert.Equal(t, 600.5, *got.Width)
	assert.Nil(t, got.Height)

	stored, err := jobs.ListParameterValues(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "LX", stored[0].ParamName, "insertion order preserved")
}

func TestUpsertParameterValues(t *testing.T) {
	jobs, templates, _ := openTestDB(t)
	ctx := context.Background()
	job, tmpl := seedJobAndTemplate(t, jobs, templates)

	item := &entity.JobItem{ID: uuid.New(), JobID: job.ID, CabinetID: tmpl.ID, Name: "sk-1", Quantity: 1}
	require.NoError(t, jobs.CreateItem(ctx, item, []entity.ItemParameterValue{{ParamName: "LX", Value: "500"}}))

	require.NoError(t, jobs.UpsertParameterValues(ctx, item.ID, []entity.ItemParameterValue{
		{ParamName: "LX", Value: "600"},
		{ParamName: "LY", Value: "300"},
	}))

	stored, err := jobs.ListParameterValues(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "600", stored[0].Value, "existing row updated in place")
	assert.Equal(t, "LY", stored[1].ParamName)
}

func TestSetOutputStatus(t *testing.T) {
	jobs, templates, _ := openTestDB(t)
	ctx := context.Background()
	job, tmpl := seedJobAndTemplate(t, jobs, templates)

	item := &entity.JobItem{ID: uuid.New(), JobID: job.ID, CabinetID: tmpl.ID, Name: "sk-1", Quantity: 1}
	require.NoError(t, jobs.CreateItem(ctx, item, nil))

	require.NoError(t, jobs.SetOutputStatus(ctx, item.ID, constants.OutputStatusGenerating))
	got, err := jobs.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.OutputStatusGenerating, got.OutputStatus)

	assert.ErrorIs(t, jobs.SetOutputStatus(ctx, uuid.New(), constants.OutputStatusError), common.ErrNotFound)
}

func TestTemplateDeleteRefusedWhileReferenced(t *testing.T) {
	jobs, templates, _ := openTestDB(t)
	ctx := context.Background()
	job, tmpl := seedJobAndTemplate(t, jobs, templates)

	item := &entity.JobItem{ID: uuid.New(), JobID: job.ID, CabinetID: tmpl.ID, Name: "sk-1", Quantity: 1}
	require.NoError(t, jobs.CreateItem(ctx, item, nil))

	err := templates.Delete(ctx, tmpl.ID)
	require.ErrorIs(t, err, common.ErrValidation)

	require.NoError(t, jobs.DeleteItem(ctx, item.ID))
	require.NoError(t, templates.Delete(ctx, tmpl.ID))
}

func TestSettings(t *testing.T) {
	_, _, settings := openTestDB(t)
	ctx := context.Background()

	_, ok, err := settings.Get(ctx, SettingCNCProgramsRoot)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, settings.Set(ctx, SettingCNCProgramsRoot, `M:\CNC`))
	require.NoError(t, settings.Set(ctx, SettingCNCProgramsRoot, "/mnt/cnc"))

	v, ok, err := settings.Get(ctx, SettingCNCProgramsRoot)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/mnt/cnc", v)
}
