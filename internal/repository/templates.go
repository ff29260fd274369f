package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/entity"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *entity.CabinetTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CabinetTemplate, error)
	GetBySlug(ctx context.Context, slug string) (*entity.CabinetTemplate, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context) ([]entity.CabinetTemplate, error)
	UpdateBaseDimensions(ctx context.Context, id uuid.UUID, width, height, depth *float64) error
	UpdateFileQuantity(ctx context.Context, fileID uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTemplateRepository(db *sql.DB, logger *slog.Logger) TemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateRepo{db: db, logger: logger}
}

// Create persists the template together with its files, groups and
// parameters in one transaction. Partial imports never hit the store.
func (r *templateRepo) Create(ctx context.Context, t *entity.CabinetTemplate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cabinet_templates
			(id, name, slug, description, category_id, catalog_path,
			 base_width, base_height, base_depth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Name, t.Slug, t.Description, uuidPtr(t.CategoryID),
		t.CatalogPath, t.BaseWidth, t.BaseHeight, t.BaseDepth, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to insert template", "slug", t.Slug, "error", err)
		return err
	}

	for i := range t.Groups {
		g := &t.Groups[i]
		g.TemplateID = t.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parameter_groups (id, template_id, name, sort_order)
			VALUES (?, ?, ?, ?)`,
			g.ID.String(), t.ID.String(), g.Name, g.SortOrder); err != nil {
			return err
		}
	}
	for i := range t.Files {
		f := &t.Files[i]
		f.TemplateID = t.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO template_files
				(id, template_id, filename, relative_path, content_hash, quantity, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID.String(), t.ID.String(), f.Filename, f.RelativePath,
			f.ContentHash, f.Quantity, f.SortOrder); err != nil {
			return err
		}
	}
	for i := range t.Parameters {
		p := &t.Parameters[i]
		p.TemplateID = t.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO template_parameters
				(id, template_id, group_id, name, default_value, description, param_type, sort_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID.String(), t.ID.String(), uuidPtr(p.GroupID), p.Name,
			p.DefaultValue, p.Description, p.ParamType, p.SortID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *templateRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.CabinetTemplate, error) {
	return r.get(ctx, "id = ?", id.String())
}

func (r *templateRepo) GetBySlug(ctx context.Context, slug string) (*entity.CabinetTemplate, error) {
	return r.get(ctx, "slug = ?", slug)
}

func (r *templateRepo) get(ctx context.Context, where string, arg any) (*entity.CabinetTemplate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, description, category_id, catalog_path,
		       base_width, base_height, base_depth, created_at, updated_at
		FROM cabinet_templates WHERE `+where, arg)

	var t entity.CabinetTemplate
	var id string
	var catID sql.NullString
	var desc sql.NullString
	var w, h, d sql.NullFloat64
	err := row.Scan(&id, &t.Name, &t.Slug, &desc, &catID, &t.CatalogPath,
		&w, &h, &d, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.ID = uuid.MustParse(id)
	t.Description = nullStr(desc)
	t.BaseWidth, t.BaseHeight, t.BaseDepth = nullFloat(w), nullFloat(h), nullFloat(d)
	if catID.Valid {
		cid, err := uuid.Parse(catID.String)
		if err == nil {
			t.CategoryID = &cid
		}
	}

	if t.Files, err = r.listFiles(ctx, t.ID); err != nil {
		return nil, err
	}
	if t.Parameters, err = r.listParameters(ctx, t.ID); err != nil {
		return nil, err
	}
	if t.Groups, err = r.listGroups(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepo) listFiles(ctx context.Context, templateID uuid.UUID) ([]entity.TemplateFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, relative_path, content_hash, quantity, sort_order
		FROM template_files WHERE template_id = ? ORDER BY sort_order, filename`,
		templateID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []entity.TemplateFile
	for rows.Next() {
		var f entity.TemplateFile
		var id string
		if err := rows.Scan(&id, &f.Filename, &f.RelativePath, &f.ContentHash, &f.Quantity, &f.SortOrder); err != nil {
			return nil, err
		}
		f.ID = uuid.MustParse(id)
		f.TemplateID = templateID
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *templateRepo) listParameters(ctx context.Context, templateID uuid.UUID) ([]entity.TemplateParameter, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, name, default_value, description, param_type, sort_id
		FROM template_parameters WHERE template_id = ? ORDER BY rowid`,
		templateID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var params []entity.TemplateParameter
	for rows.Next() {
		var p entity.TemplateParameter
		var id string
		var groupID sql.NullString
		if err := rows.Scan(&id, &groupID, &p.Name, &p.DefaultValue, &p.Description, &p.ParamType, &p.SortID); err != nil {
			return nil, err
		}
		p.ID = uuid.MustParse(id)
		p.TemplateID = templateID
		if groupID.Valid {
			if gid, err := uuid.Parse(groupID.String); err == nil {
				p.GroupID = &gid
			}
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

func (r *templateRepo) listGroups(ctx context.Context, templateID uuid.UUID) ([]entity.ParameterGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, sort_order FROM parameter_groups
		WHERE template_id = ? ORDER BY sort_order, name`, templateID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []entity.ParameterGroup
	for rows.Next() {
		var g entity.ParameterGroup
		var id string
		if err := rows.Scan(&id, &g.Name, &g.SortOrder); err != nil {
			return nil, err
		}
		g.ID = uuid.MustParse(id)
		g.TemplateID = templateID
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *templateRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cabinet_templates WHERE slug = ?`, slug).Scan(&n)
	return n > 0, err
}

func (r *templateRepo) List(ctx context.Context) ([]entity.CabinetTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, catalog_path, created_at, updated_at
		FROM cabinet_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []entity.CabinetTemplate
	for rows.Next() {
		var t entity.CabinetTemplate
		var id string
		if err := rows.Scan(&id, &t.Name, &t.Slug, &t.CatalogPath, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.ID = uuid.MustParse(id)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// UpdateBaseDimensions updates only the dimensions given; nil means keep
// the stored value, matching the file rewrite side.
func (r *templateRepo) UpdateBaseDimensions(ctx context.Context, id uuid.UUID, width, height, depth *float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cabinet_templates
		SET base_width  = COALESCE(?, base_width),
		    base_height = COALESCE(?, base_height),
		    base_depth  = COALESCE(?, base_depth),
		    updated_at  = ?
		WHERE id = ?`,
		width, height, depth, time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to update base dimensions", "template_id", id, "error", err)
		return err
	}
	return requireRow(res)
}

func (r *templateRepo) UpdateFileQuantity(ctx context.Context, fileID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE template_files SET quantity = ? WHERE id = ?`, quantity, fileID.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a template unless a job item still references it.
func (r *templateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM job_items WHERE cabinet_id = ?`, id.String()).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return common.NewAppError("TEMPLATE_IN_USE",
			"template is referenced by job items", common.ErrValidation)
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cabinet_templates WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func uuidPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
