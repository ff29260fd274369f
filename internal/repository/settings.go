package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

// SettingCNCProgramsRoot is the single supported settings key: the path
// prefix written into worklist manifests.
const SettingCNCProgramsRoot = "cnc_programs_root"

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type settingsRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSettingsRepository(db *sql.DB, logger *slog.Logger) SettingsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsRepo{db: db, logger: logger}
}

func (r *settingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *settingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		r.logger.Error("failed to set setting", "key", key, "error", err)
	}
	return err
}
