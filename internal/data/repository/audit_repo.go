package repository

import (
	"context"
	"fmt"

	"ticket-broker/internal/data/entity"
	"ticket-broker/pkg/database"

	"go.uber.org/zap"
)

// AuditFilter narrows audit listings. Empty fields are ignored.
type AuditFilter struct {
	ActionType     string
	EntityType     string
	UserIdentifier string
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	FindAll(ctx context.Context, filter AuditFilter, limit, offset int) ([]*entity.AuditLog, error)
	Count(ctx context.Context, filter AuditFilter) (int64, error)
	DistinctActionTypes(ctx context.Context) ([]string, error)
	DistinctEntityTypes(ctx context.Context) ([]string, error)
	DistinctUserIdentifiers(ctx context.Context) ([]string, error)
}

type auditLogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAuditLogRepository(db database.PgxIface, log *zap.Logger) AuditLogRepository {
	return &auditLogRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit_log")),
	}
}

func (r *auditLogRepository) Create(ctx context.Context, auditLog *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, action_type, entity_type, entity_id, user_type, user_identifier,
			details, old_value, new_value, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.ActionType,
		auditLog.EntityType,
		auditLog.EntityID,
		auditLog.UserType,
		auditLog.UserIdentifier,
		auditLog.Details,
		auditLog.OldValue,
		auditLog.NewValue,
		auditLog.Timestamp,
	)

	if err != nil {
		r.log.Error("Failed to write audit log",
			zap.Error(err),
			zap.String("action_type", auditLog.ActionType),
		)
		return fmt.Errorf("write audit log %s: %w", auditLog.ActionType, err)
	}

	return nil
}

func buildAuditWhere(filter AuditFilter) (string, []any) {
	where := " WHERE 1=1"
	args := []any{}
	n := 0

	if filter.ActionType != "" {
		n++
		where += fmt.Sprintf(" AND action_type = $%d", n)
		args = append(args, filter.ActionType)
	}
	if filter.EntityType != "" {
		n++
		where += fmt.Sprintf(" AND entity_type = $%d", n)
		args = append(args, filter.EntityType)
	}
	if filter.UserIdentifier != "" {
		n++
		where += fmt.Sprintf(" AND user_identifier = $%d", n)
		args = append(args, filter.UserIdentifier)
	}

	return where, args
}

func (r *auditLogRepository) FindAll(ctx context.Context, filter AuditFilter, limit, offset int) ([]*entity.AuditLog, error) {
	where, args := buildAuditWhere(filter)
	query := `
		SELECT id, action_type, entity_type, entity_id, user_type, user_identifier,
			details, old_value, new_value, timestamp
		FROM audit_logs` + where +
		fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list audit logs", zap.Error(err))
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		err := rows.Scan(
			&l.ID,
			&l.ActionType,
			&l.EntityType,
			&l.EntityID,
			&l.UserType,
			&l.UserIdentifier,
			&l.Details,
			&l.OldValue,
			&l.NewValue,
			&l.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit log row: %w", err)
		}
		logs = append(logs, &l)
	}

	return logs, rows.Err()
}

func (r *auditLogRepository) Count(ctx context.Context, filter AuditFilter) (int64, error) {
	where, args := buildAuditWhere(filter)

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count audit logs", zap.Error(err))
		return 0, fmt.Errorf("count audit logs: %w", err)
	}
	return count, nil
}

func (r *auditLogRepository) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT `+column+` FROM audit_logs ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

func (r *auditLogRepository) DistinctActionTypes(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "action_type")
}

func (r *auditLogRepository) DistinctEntityTypes(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "entity_type")
}

func (r *auditLogRepository) DistinctUserIdentifiers(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "user_identifier")
}
