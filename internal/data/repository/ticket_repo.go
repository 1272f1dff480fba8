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

// TicketFilter narrows admin ticket listings. Nil/empty fields are ignored.
type TicketFilter struct {
	ShowID           *uuid.UUID
	Used             *bool
	BookingReference string
}

type TicketRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	FindByReference(ctx context.Context, reference string) (*entity.Ticket, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Ticket, error)
	FindAll(ctx context.Context, filter TicketFilter) ([]*entity.Ticket, error)
	CountUsedByBookingID(ctx context.Context, bookingID uuid.UUID) (int, error)

	// Update persists the check-in fields (is_used, used_at, checked_by).
	Update(ctx context.Context, ticket *entity.Ticket) error

	// MintForBooking flips the booking to confirmed, upserts the buyer by
	// phone, inserts the ticket batch and recomputes availability, all in
	// one locked transaction. The tickets must carry their references and
	// sequence numbers; their BuyerID is filled in from the upsert.
	MintForBooking(ctx context.Context, booking *entity.Booking, buyer *entity.Buyer, tickets []*entity.Ticket) error

	// RevertBooking moves a confirmed booking to newStatus, deletes all of
	// its tickets and recomputes availability, in one locked transaction.
	RevertBooking(ctx context.Context, booking *entity.Booking, newStatus entity.BookingStatus) error

	// DeleteWithAdjustment deletes one unused ticket, persists the owning
	// booking's decremented class count and recomputed amount, and, when the
	// booking still holds capacity, recomputes the show's availability.
	DeleteWithAdjustment(ctx context.Context, ticket *entity.Ticket, booking *entity.Booking) error
}

type ticketRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTicketRepository(db database.PgxIface, log *zap.Logger) TicketRepository {
	return &ticketRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket")),
	}
}

const ticketColumns = `id, ticket_reference, booking_id, show_id, buyer_id,
	ticket_type, ticket_number, is_used, used_at, checked_by, created_at`

func scanTicket(row rowScanner) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketReference,
		&ticket.BookingID,
		&ticket.ShowID,
		&ticket.BuyerID,
		&ticket.TicketType,
		&ticket.TicketNumber,
		&ticket.IsUsed,
		&ticket.UsedAt,
		&ticket.CheckedBy,
		&ticket.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ticket by ID",
			zap.Error(err),
			zap.String("ticket_id", id.String()),
		)
		return nil, fmt.Errorf("find ticket by ID %s: %w", id.String(), err)
	}

	return ticket, nil
}

func (r *ticketRepository) FindByReference(ctx context.Context, reference string) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_reference = $1`

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ticket by reference",
			zap.Error(err),
			zap.String("ticket_reference", reference),
		)
		return nil, fmt.Errorf("find ticket by reference %s: %w", reference, err)
	}

	return ticket, nil
}

func (r *ticketRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE booking_id = $1 ORDER BY ticket_number ASC`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find tickets by booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find tickets by booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

func (r *ticketRepository) FindAll(ctx context.Context, filter TicketFilter) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	args := []any{}
	n := 0

	if filter.ShowID != nil {
		n++
		query += fmt.Sprintf(" AND show_id = $%d", n)
		args = append(args, *filter.ShowID)
	}
	if filter.Used != nil {
		n++
		query += fmt.Sprintf(" AND is_used = $%d", n)
		args = append(args, *filter.Used)
	}
	if filter.BookingReference != "" {
		n++
		query += fmt.Sprintf(" AND booking_id = (SELECT id FROM bookings WHERE booking_reference = $%d)", n)
		args = append(args, filter.BookingReference)
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list tickets", zap.Error(err))
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

func (r *ticketRepository) CountUsedByBookingID(ctx context.Context, bookingID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE booking_id = $1 AND is_used = TRUE`, bookingID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count used tickets",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("count used tickets for booking %s: %w", bookingID.String(), err)
	}
	return count, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *entity.Ticket) error {
	query := `
		UPDATE tickets
		SET is_used = $2, used_at = $3, checked_by = $4
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.IsUsed,
		ticket.UsedAt,
		ticket.CheckedBy,
	)

	if err != nil {
		r.log.Error("Failed to update ticket",
			zap.Error(err),
			zap.String("ticket_reference", ticket.TicketReference),
		)
		return fmt.Errorf("update ticket %s: %w", ticket.TicketReference, err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrTicketNotFound
	}

	return nil
}

func (r *ticketRepository) MintForBooking(ctx context.Context, booking *entity.Booking, buyer *entity.Buyer, tickets []*entity.Ticket) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ticket mint: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockShow(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	query := `UPDATE bookings SET status = $2, confirmed_at = $3, updated_at = NOW() WHERE id = $1`
	result, err := tx.Exec(ctx, query, booking.ID, entity.BookingStatusConfirmed, booking.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("confirm booking %s: %w", booking.BookingReference, err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrBookingNotFound
	}

	buyerID, err := upsertBuyer(ctx, tx, buyer)
	if err != nil {
		return err
	}
	buyer.ID = buyerID

	insert := `
		INSERT INTO tickets (id, ticket_reference, booking_id, show_id, buyer_id,
			ticket_type, ticket_number, is_used, used_at, checked_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, ticket := range tickets {
		ticket.BuyerID = buyerID
		_, err := tx.Exec(ctx, insert,
			ticket.ID,
			ticket.TicketReference,
			ticket.BookingID,
			ticket.ShowID,
			ticket.BuyerID,
			ticket.TicketType,
			ticket.TicketNumber,
			ticket.IsUsed,
			ticket.UsedAt,
			ticket.CheckedBy,
			ticket.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to insert ticket",
				zap.Error(err),
				zap.String("ticket_reference", ticket.TicketReference),
			)
			return fmt.Errorf("insert ticket %s: %w", ticket.TicketReference, err)
		}
	}

	if err := recomputeAvailability(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ticket mint: %w", err)
	}

	booking.Status = entity.BookingStatusConfirmed
	return nil
}

func (r *ticketRepository) RevertBooking(ctx context.Context, booking *entity.Booking, newStatus entity.BookingStatus) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking revert: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockShow(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	query := `UPDATE bookings SET status = $2, confirmed_at = NULL, updated_at = NOW() WHERE id = $1`
	result, err := tx.Exec(ctx, query, booking.ID, newStatus)
	if err != nil {
		return fmt.Errorf("revert booking %s: %w", booking.BookingReference, err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrBookingNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE booking_id = $1`, booking.ID); err != nil {
		return fmt.Errorf("delete tickets of booking %s: %w", booking.BookingReference, err)
	}

	if err := recomputeAvailability(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking revert: %w", err)
	}

	booking.Status = newStatus
	booking.ConfirmedAt = nil
	return nil
}

func (r *ticketRepository) DeleteWithAdjustment(ctx context.Context, ticket *entity.Ticket, booking *entity.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ticket delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockShow(ctx, tx, booking.ShowID); err != nil {
		return err
	}

	query := `
		UPDATE bookings
		SET adult_tickets = $2, student_tickets = $3, total_amount = $4, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, booking.ID, booking.AdultTickets, booking.StudentTickets, booking.TotalAmount); err != nil {
		return fmt.Errorf("adjust booking %s: %w", booking.BookingReference, err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, ticket.ID)
	if err != nil {
		return fmt.Errorf("delete ticket %s: %w", ticket.TicketReference, err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrTicketNotFound
	}

	// The freed seat only returns to the pool while the booking still
	// counts against capacity.
	if booking.Status.HoldsCapacity() {
		if err := recomputeAvailability(ctx, tx, booking.ShowID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ticket delete: %w", err)
	}

	return nil
}
