package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jsedlak/cabjobs/constants"
	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/entity"
)

type JobRepository interface {
	CreateJob(ctx context.Context, job *entity.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	ListJobs(ctx context.Context) ([]entity.Job, error)

	CreateItem(ctx context.Context, item *entity.JobItem, values []entity.ItemParameterValue) error
	GetItem(ctx context.Context, id uuid.UUID) (*entity.JobItem, error)
	ListItems(ctx context.Context, jobID uuid.UUID) ([]entity.JobItem, error)
	UpdateItem(ctx context.Context, item *entity.JobItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ItemNameExists(ctx context.Context, jobID uuid.UUID, name string) (bool, error)
	SetOutputStatus(ctx context.Context, id uuid.UUID, status constants.OutputStatus) error

	ListParameterValues(ctx context.Context, itemID uuid.UUID) ([]entity.ItemParameterValue, error)
	UpsertParameterValues(ctx context.Context, itemID uuid.UUID, values []entity.ItemParameterValue) error

	ListFileQuantities(ctx context.Context, itemID uuid.UUID) ([]entity.ItemFileQuantity, error)
	SetFileQuantity(ctx context.Context, itemID, fileID uuid.UUID, quantity int) error
}

type jobRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewJobRepository(db *sql.DB, logger *slog.Logger) JobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobRepo{db: db, logger: logger}
}

func (r *jobRepo) CreateJob(ctx context.Context, job *entity.Job) error {
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	if job.Status == "" {
		job.Status = constants.JobStatusOpen
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, name, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID.String(), job.Name, job.Description, string(job.Status), job.CreatedAt, job.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create job", "name", job.Name, "error", err)
	}
	return err
}

func (r *jobRepo) GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM jobs WHERE id = ?`, id.String())

	var j entity.Job
	var sid string
	var desc sql.NullString
	var status string
	err := row.Scan(&sid, &j.Name, &desc, &status, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	j.ID = uuid.MustParse(sid)
	j.Description = nullStr(desc)
	j.Status = constants.JobStatus(status)
	return &j, nil
}

func (r *jobRepo) ListJobs(ctx context.Context) ([]entity.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM jobs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []entity.Job
	for rows.Next() {
		var j entity.Job
		var sid, status string
		var desc sql.NullString
		if err := rows.Scan(&sid, &j.Name, &desc, &status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		j.ID = uuid.MustParse(sid)
		j.Description = nullStr(desc)
		j.Status = constants.JobStatus(status)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CreateItem persists the item and its seeded parameter values in one
// transaction, so a half-seeded item can never be observed.
func (r *jobRepo) CreateItem(ctx context.Context, item *entity.JobItem, values []entity.ItemParameterValue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.OutputStatus == "" {
		item.OutputStatus = constants.OutputStatusPending
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO job_items
			(id, job_id, cabinet_id, name, width, height, depth, quantity,
			 output_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.JobID.String(), item.CabinetID.String(), item.Name,
		item.Width, item.Height, item.Depth, item.Quantity,
		string(item.OutputStatus), item.CreatedAt, item.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create job item", "job_id", item.JobID, "name", item.Name, "error", err)
		return err
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO item_parameter_values (id, item_id, param_name, value)
			VALUES (?, ?, ?, ?)`,
			uuid.New().String(), item.ID.String(), v.ParamName, v.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *jobRepo) GetItem(ctx context.Context, id uuid.UUID) (*entity.JobItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, job_id, cabinet_id, name, width, height, depth, quantity,
		       output_status, created_at, updated_at
		FROM job_items WHERE id = ?`, id.String())
	return scanItem(row)
}

func (r *jobRepo) ListItems(ctx context.Context, jobID uuid.UUID) ([]entity.JobItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, cabinet_id, name, width, height, depth, quantity,
		       output_status, created_at, updated_at
		FROM job_items WHERE job_id = ? ORDER BY created_at`, jobID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.JobItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*entity.JobItem, error) {
	var it entity.JobItem
	var id, jobID, cabID, status string
	var w, h, d sql.NullFloat64
	err := row.Scan(&id, &jobID, &cabID, &it.Name, &w, &h, &d, &it.Quantity,
		&status, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	it.ID = uuid.MustParse(id)
	it.JobID = uuid.MustParse(jobID)
	it.CabinetID = uuid.MustParse(cabID)
	it.Width, it.Height, it.Depth = nullFloat(w), nullFloat(h), nullFloat(d)
	it.OutputStatus = constants.OutputStatus(status)
	return &it, nil
}

func (r *jobRepo) UpdateItem(ctx context.Context, item *entity.JobItem) error {
	item.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE job_items
		SET name = ?, width = ?, height = ?, depth = ?, quantity = ?, updated_at = ?
		WHERE id = ?`,
		item.Name, item.Width, item.Height, item.Depth, item.Quantity,
		item.UpdatedAt, item.ID.String())
	if err != nil {
		r.logger.Error("failed to update job item", "item_id", item.ID, "error", err)
		return err
	}
	return requireRow(res)
}

func (r *jobRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM job_items WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *jobRepo) ItemNameExists(ctx context.Context, jobID uuid.UUID, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM job_items WHERE job_id = ? AND name = ?`,
		jobID.String(), name).Scan(&n)
	return n > 0, err
}

func (r *jobRepo) SetOutputStatus(ctx context.Context, id uuid.UUID, status constants.OutputStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE job_items SET output_status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to set output status", "item_id", id, "status", status, "error", err)
		return err
	}
	return requireRow(res)
}

func (r *jobRepo) ListParameterValues(ctx context.Context, itemID uuid.UUID) ([]entity.ItemParameterValue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, param_name, value FROM item_parameter_values
		WHERE item_id = ? ORDER BY rowid`, itemID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []entity.ItemParameterValue
	for rows.Next() {
		var v entity.ItemParameterValue
		var id string
		if err := rows.Scan(&id, &v.ParamName, &v.Value); err != nil {
			return nil, err
		}
		v.ID = uuid.MustParse(id)
		v.ItemID = itemID
		values = append(values, v)
	}
	return values, rows.Err()
}

// UpsertParameterValues bulk-upserts in one transaction; this is the only
// multi-statement write on the edit path.
func (r *jobRepo) UpsertParameterValues(ctx context.Context, itemID uuid.UUID, values []entity.ItemParameterValue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO item_parameter_values (id, item_id, param_name, value)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (item_id, param_name) DO UPDATE SET value = excluded.value`,
			uuid.New().String(), itemID.String(), v.ParamName, v.Value); err != nil {
			r.logger.Error("failed to upsert parameter value", "item_id", itemID, "param", v.ParamName, "error", err)
			return err
		}
	}
	return tx.Commit()
}

func (r *jobRepo) ListFileQuantities(ctx context.Context, itemID uuid.UUID) ([]entity.ItemFileQuantity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT file_id, quantity FROM item_file_quantities WHERE item_id = ?`,
		itemID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quantities []entity.ItemFileQuantity
	for rows.Next() {
		var q entity.ItemFileQuantity
		var fileID string
		if err := rows.Scan(&fileID, &q.Quantity); err != nil {
			return nil, err
		}
		q.ItemID = itemID
		q.FileID = uuid.MustParse(fileID)
		quantities = append(quantities, q)
	}
	return quantities, rows.Err()
}

func (r *jobRepo) SetFileQuantity(ctx context.Context, itemID, fileID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO item_file_quantities (item_id, file_id, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT (item_id, file_id) DO UPDATE SET quantity = excluded.quantity`,
		itemID.String(), fileID.String(), quantity)
	return err
}
