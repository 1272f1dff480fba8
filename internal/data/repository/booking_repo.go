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

type BookingRepository interface {
	// CreateReserved inserts a booking in reserved status after a locked
	// capacity check against the show, then recomputes availability. All in
	// one transaction, so the counter never drifts from the booking set.
	CreateReserved(ctx context.Context, booking *entity.Booking) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
	FindByReferenceAndEmail(ctx context.Context, reference, email string) (*entity.Booking, error)
	FindAll(ctx context.Context) ([]*entity.Booking, error)
	FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.Booking, error)
	FindByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error)
	FindByEmailAndLastName(ctx context.Context, email, lastName string) ([]*entity.Booking, error)
	CountByShowID(ctx context.Context, showID uuid.UUID) (int64, error)

	// Update persists customer fields and payment-intent flags. It never
	// touches ticket counts, status or inventory.
	Update(ctx context.Context, booking *entity.Booking) error

	// UpdateStatus changes the status and recomputes the show's availability
	// in one locked transaction. Used for transitions that do not create or
	// destroy tickets (reserved -> cancelled).
	UpdateStatus(ctx context.Context, booking *entity.Booking, status entity.BookingStatus) error

	// DeleteCascade removes the booking and its tickets and releases the
	// held capacity via recompute, in one transaction.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, booking_reference, show_id, first_name, last_name, email, phone,
	adult_tickets, student_tickets, total_amount, status,
	buyer_confirmed_payment, swish_payment_initiated, swish_payment_initiated_at,
	gdpr_consent, confirmed_at, created_at, updated_at`

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.BookingReference,
		&booking.ShowID,
		&booking.FirstName,
		&booking.LastName,
		&booking.Email,
		&booking.Phone,
		&booking.AdultTickets,
		&booking.StudentTickets,
		&booking.TotalAmount,
		&booking.Status,
		&booking.BuyerConfirmedPayment,
		&booking.SwishPaymentInitiated,
		&booking.SwishPaymentInitiatedAt,
		&booking.GdprConsent,
		&booking.ConfirmedAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) CreateReserved(ctx context.Context, booking *entity.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reservation: %w", err)
	}
	defer tx.Rollback(ctx)

	show, err := lockShow(ctx, tx, booking.ShowID)
	if err != nil {
		return err
	}

	if show.AvailableTickets < booking.TotalTickets() {
		r.log.Warn("Reservation rejected, not enough capacity",
			zap.String("show_id", booking.ShowID.String()),
			zap.Int("requested", booking.TotalTickets()),
			zap.Int("available", show.AvailableTickets),
		)
		return entity.ErrInsufficientCapacity
	}

	query := `
		INSERT INTO bookings (id, booking_reference, show_id, first_name, last_name, email, phone,
			adult_tickets, student_tickets, total_amount, status,
			buyer_confirmed_payment, swish_payment_initiated, swish_payment_initiated_at,
			gdpr_consent, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.Exec(ctx, query,
		booking.ID,
		booking.BookingReference,
		booking.ShowID,
		booking.FirstName,
		booking.LastName,
		booking.Email,
		booking.Phone,
		booking.AdultTickets,
		booking.StudentTickets,
		booking.TotalAmount,
		booking.Status,
		booking.BuyerConfirmedPayment,
		booking.SwishPaymentInitiated,
		booking.SwishPaymentInitiatedAt,
		booking.GdprConsent,
		booking.ConfirmedAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("booking_reference", booking.BookingReference),
		)
		return fmt.Errorf("insert booking %s: %w", booking.BookingReference, err)
	}

	if err := recomputeAvailability(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_reference = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by reference",
			zap.Error(err),
			zap.String("booking_reference", reference),
		)
		return nil, fmt.Errorf("find booking by reference %s: %w", reference, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByReferenceAndEmail(ctx context.Context, reference, email string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_reference = $1 AND LOWER(email) = LOWER($2)`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, reference, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by reference and email",
			zap.Error(err),
			zap.String("booking_reference", reference),
		)
		return nil, fmt.Errorf("find booking by reference %s and email: %w", reference, err)
	}

	return booking, nil
}

func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) FindAll(ctx context.Context) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`

	bookings, err := r.queryBookings(ctx, query)
	if err != nil {
		r.log.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE show_id = $1 ORDER BY created_at DESC`

	bookings, err := r.queryBookings(ctx, query, showID)
	if err != nil {
		r.log.Error("Failed to find bookings by show",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return nil, fmt.Errorf("find bookings by show %s: %w", showID.String(), err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at DESC`

	bookings, err := r.queryBookings(ctx, query, status)
	if err != nil {
		r.log.Error("Failed to find bookings by status",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("find bookings by status %s: %w", status, err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindByEmailAndLastName(ctx context.Context, email, lastName string) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE LOWER(email) = LOWER($1) AND LOWER(last_name) = LOWER($2)
		ORDER BY created_at DESC
	`

	bookings, err := r.queryBookings(ctx, query, email, lastName)
	if err != nil {
		r.log.Error("Failed to search bookings", zap.Error(err))
		return nil, fmt.Errorf("search bookings by email and last name: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) CountByShowID(ctx context.Context, showID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE show_id = $1`, showID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by show",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return 0, fmt.Errorf("count bookings by show %s: %w", showID.String(), err)
	}
	return count, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET first_name = $2, last_name = $3, email = $4, phone = $5,
		    buyer_confirmed_payment = $6, swish_payment_initiated = $7,
		    swish_payment_initiated_at = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.FirstName,
		booking.LastName,
		booking.Email,
		booking.Phone,
		booking.BuyerConfirmedPayment,
		booking.SwishPaymentInitiated,
		booking.SwishPaymentInitiatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, booking *entity.Booking, status entity.BookingStatus) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockShow(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := tx.Exec(ctx, query, booking.ID, status)
	if err != nil {
		return fmt.Errorf("update booking status %s: %w", booking.ID.String(), err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrBookingNotFound
	}

	if err := recomputeAvailability(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}

	booking.Status = status
	return nil
}

func (r *bookingRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking delete: %w", err)
	}
	defer tx.Rollback(ctx)

	var showID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT show_id FROM bookings WHERE id = $1`, id).Scan(&showID)
	if err == pgx.ErrNoRows {
		return entity.ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("load booking %s for delete: %w", id.String(), err)
	}

	if _, err := lockShow(ctx, tx, showID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE booking_id = $1`, id); err != nil {
		return fmt.Errorf("delete tickets of booking %s: %w", id.String(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete booking %s: %w", id.String(), err)
	}

	// The booking row is gone, so the recompute releases its held capacity.
	if err := recomputeAvailability(ctx, tx, showID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking delete: %w", err)
	}

	r.log.Info("Booking deleted",
		zap.String("booking_id", id.String()),
		zap.String("show_id", showID.String()),
	)

	return nil
}
