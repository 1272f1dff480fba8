package repository

import (
	"context"
	"fmt"

	"ticket-broker/internal/data/entity"
	"ticket-broker/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (*entity.Setting, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) ([]*entity.Setting, error)
}

type settingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSettingRepository(db database.PgxIface, log *zap.Logger) SettingRepository {
	return &settingRepository{
		db:  db,
		log: log.With(zap.String("repository", "setting")),
	}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*entity.Setting, error) {
	query := `SELECT key, value, updated_at FROM settings WHERE key = $1`

	var setting entity.Setting
	err := r.db.QueryRow(ctx, query, key).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to get setting",
			zap.Error(err),
			zap.String("key", key),
		)
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}

	return &setting, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		r.log.Error("Failed to set setting",
			zap.Error(err),
			zap.String("key", key),
		)
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	return nil
}

func (r *settingRepository) All(ctx context.Context) ([]*entity.Setting, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		r.log.Error("Failed to list settings", zap.Error(err))
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []*entity.Setting
	for rows.Next() {
		var setting entity.Setting
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting row: %w", err)
		}
		settings = append(settings, &setting)
	}

	return settings, rows.Err()
}
