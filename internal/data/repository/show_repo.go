package repository

import (
	"context"
	"fmt"

	"ticket-broker/internal/data/entity"
	"ticket-broker/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ShowRepository interface {
	Create(ctx context.Context, show *entity.Show) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error)
	FindAll(ctx context.Context) ([]*entity.Show, error)
	Update(ctx context.Context, show *entity.Show) error
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateCapacity applies an admin capacity edit under a row lock. It
	// rejects negative values, available above total, and edits that do not
	// leave room for the committed reserved+confirmed tickets.
	UpdateCapacity(ctx context.Context, id uuid.UUID, totalTickets, availableTickets int) (*entity.Show, error)

	// Recompute re-derives available_tickets from the capacity-holding
	// bookings. Idempotent; the only writer of the counter after creation.
	Recompute(ctx context.Context, id uuid.UUID) error

	// TotalBooked returns the committed reserved+confirmed ticket sum.
	TotalBooked(ctx context.Context, id uuid.UUID) (int, error)
}

type showRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowRepository(db database.PgxIface, log *zap.Logger) ShowRepository {
	return &showRepository{
		db:  db,
		log: log.With(zap.String("repository", "show")),
	}
}

const showColumns = `id, date, start_time, end_time, total_tickets, available_tickets, created_at, updated_at`

func scanShow(row rowScanner) (*entity.Show, error) {
	var show entity.Show
	err := row.Scan(
		&show.ID,
		&show.Date,
		&show.StartTime,
		&show.EndTime,
		&show.TotalTickets,
		&show.AvailableTickets,
		&show.CreatedAt,
		&show.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// recomputeAvailability is the single authoritative availability rule:
// available = max(0, total - sum of tickets on reserved+confirmed bookings).
// It runs against a Queryer so composite transactions can reuse it.
func recomputeAvailability(ctx context.Context, q database.Queryer, showID uuid.UUID) error {
	query := `
		UPDATE shows
		SET available_tickets = GREATEST(0, total_tickets - (
			SELECT COALESCE(SUM(adult_tickets + student_tickets), 0)
			FROM bookings
			WHERE show_id = $1 AND status IN ('reserved', 'confirmed')
		)),
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query, showID); err != nil {
		return fmt.Errorf("recompute availability for show %s: %w", showID.String(), err)
	}
	return nil
}

// totalBooked sums tickets across capacity-holding bookings.
func totalBooked(ctx context.Context, q database.Queryer, showID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(adult_tickets + student_tickets), 0)
		FROM bookings
		WHERE show_id = $1 AND status IN ('reserved', 'confirmed')
	`
	var booked int
	if err := q.QueryRow(ctx, query, showID).Scan(&booked); err != nil {
		return 0, fmt.Errorf("sum booked tickets for show %s: %w", showID.String(), err)
	}
	return booked, nil
}

// lockShow loads the show row FOR UPDATE, serializing concurrent
// reserve/release/capacity operations per show.
func lockShow(ctx context.Context, q database.Queryer, showID uuid.UUID) (*entity.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1 FOR UPDATE`
	show, err := scanShow(q.QueryRow(ctx, query, showID))
	if err == pgx.ErrNoRows {
		return nil, entity.ErrShowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock show %s: %w", showID.String(), err)
	}
	return show, nil
}

func (r *showRepository) Create(ctx context.Context, show *entity.Show) error {
	query := `
		INSERT INTO shows (id, date, start_time, end_time, total_tickets, available_tickets, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		show.ID,
		show.Date,
		show.StartTime,
		show.EndTime,
		show.TotalTickets,
		show.AvailableTickets,
		show.CreatedAt,
		show.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create show",
			zap.Error(err),
			zap.String("show_id", show.ID.String()),
		)
		return fmt.Errorf("create show: %w", err)
	}

	return nil
}

func (r *showRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1`

	show, err := scanShow(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find show by ID",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return nil, fmt.Errorf("find show by ID %s: %w", id.String(), err)
	}

	return show, nil
}

func (r *showRepository) FindAll(ctx context.Context) ([]*entity.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows ORDER BY date ASC, start_time ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find shows", zap.Error(err))
		return nil, fmt.Errorf("find shows: %w", err)
	}
	defer rows.Close()

	var shows []*entity.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan show row: %w", err)
		}
		shows = append(shows, show)
	}

	return shows, rows.Err()
}

func (r *showRepository) Update(ctx context.Context, show *entity.Show) error {
	query := `
		UPDATE shows
		SET date = $2, start_time = $3, end_time = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		show.ID,
		show.Date,
		show.StartTime,
		show.EndTime,
		show.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update show",
			zap.Error(err),
			zap.String("show_id", show.ID.String()),
		)
		return fmt.Errorf("update show %s: %w", show.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrShowNotFound
	}

	return nil
}

func (r *showRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM shows WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete show",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return fmt.Errorf("delete show %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrShowNotFound
	}

	return nil
}

func (r *showRepository) UpdateCapacity(ctx context.Context, id uuid.UUID, newTotal, newAvailable int) (*entity.Show, error) {
	if newTotal < 0 || newAvailable < 0 || newAvailable > newTotal {
		return nil, entity.ErrInvalidCapacity
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin capacity update: %w", err)
	}
	defer tx.Rollback(ctx)

	show, err := lockShow(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	booked, err := totalBooked(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	// The committed bookings must always fit: the total cannot shrink below
	// them, and the offered availability cannot exceed the unsold remainder.
	if newTotal < booked || newAvailable > newTotal-booked {
		r.log.Warn("Rejected capacity edit conflicting with committed bookings",
			zap.String("show_id", id.String()),
			zap.Int("new_total", newTotal),
			zap.Int("new_available", newAvailable),
			zap.Int("total_booked", booked),
		)
		return nil, fmt.Errorf("%w: %d tickets already booked", entity.ErrInvalidCapacity, booked)
	}

	query := `
		UPDATE shows
		SET total_tickets = $2, available_tickets = $3, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, id, newTotal, newAvailable); err != nil {
		return nil, fmt.Errorf("update show capacity %s: %w", id.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit capacity update: %w", err)
	}

	show.TotalTickets = newTotal
	show.AvailableTickets = newAvailable
	return show, nil
}

func (r *showRepository) Recompute(ctx context.Context, id uuid.UUID) error {
	return recomputeAvailability(ctx, r.db, id)
}

func (r *showRepository) TotalBooked(ctx context.Context, id uuid.UUID) (int, error) {
	return totalBooked(ctx, r.db, id)
}
