package usecase

import (
	"context"
	"fmt"
	"time"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/dto/request"
	"ticket-broker/internal/dto/response"
	"ticket-broker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketService interface {
	// GenerateTickets mints the ticket batch for an already-confirmed
	// booking that is missing its tickets. Idempotent: existing tickets
	// are returned as-is.
	GenerateTickets(ctx context.Context, bookingID uuid.UUID, actor string) ([]*response.TicketResponse, error)

	GetTicketByReference(ctx context.Context, reference string) (*response.TicketResponse, error)
	ListTickets(ctx context.Context, filter repository.TicketFilter) ([]*response.TicketResponse, error)
	ListTicketsForBooking(ctx context.Context, bookingID uuid.UUID) ([]*response.TicketResponse, error)

	// MarkUsed checks a ticket in. A second check-in fails with
	// ErrAlreadyUsed and leaves the first check-in record untouched.
	MarkUsed(ctx context.Context, reference, checkedBy string) (*response.TicketResponse, error)

	// ToggleUsed flips the check-in state in either direction. It is the
	// admin correction path and bypasses the double-use guard.
	ToggleUsed(ctx context.Context, id uuid.UUID, checkedBy string) (*response.TicketResponse, error)
	ToggleUsedByReference(ctx context.Context, reference, checkedBy string) (*response.TicketResponse, error)

	DeleteTicket(ctx context.Context, id uuid.UUID, actor string) error

	// ValidateTicket is the door flow: one call that checks booking
	// confirmation, show match and prior use, and checks the ticket in on
	// success.
	ValidateTicket(ctx context.Context, req *request.TicketValidationRequest, checkedBy string) (*response.ValidationResponse, error)
}

type ticketService struct {
	repo     *repository.Repository
	audit    AuditService
	settings SettingsService
	log      *zap.Logger
}

func NewTicketService(repo *repository.Repository, audit AuditService, settings SettingsService, log *zap.Logger) TicketService {
	return &ticketService{
		repo:     repo,
		audit:    audit,
		settings: settings,
		log:      log.With(zap.String("service", "ticket")),
	}
}

// mintTicketsForBooking builds the buyer record and the ticket batch for a
// booking and persists them atomically. Sequence numbers run 1..N across
// both ticket classes, adult tickets first. Shared by the confirm
// transition and the admin regenerate path.
func mintTicketsForBooking(ctx context.Context, repo *repository.Repository, audit AuditService, booking *entity.Booking, actor string) ([]*entity.Ticket, error) {
	now := time.Now()
	buyer := &entity.Buyer{
		Base: entity.Base{
			ID:        utils.GenerateUUID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Phone:     booking.Phone,
		FirstName: booking.FirstName,
		LastName:  booking.LastName,
		Email:     booking.Email,
	}

	tickets := make([]*entity.Ticket, 0, booking.TotalTickets())
	sequence := 0
	addTicket := func(ticketType entity.TicketType) {
		sequence++
		tickets = append(tickets, &entity.Ticket{
			BaseSimple: entity.BaseSimple{
				ID:        utils.GenerateUUID(),
				CreatedAt: now,
			},
			TicketReference: utils.GenerateTicketReference(booking.BookingReference, string(ticketType), sequence),
			BookingID:       booking.ID,
			ShowID:          booking.ShowID,
			TicketType:      ticketType,
			TicketNumber:    sequence,
		})
	}
	for i := 0; i < booking.AdultTickets; i++ {
		addTicket(entity.TicketTypeNormal)
	}
	for i := 0; i < booking.StudentTickets; i++ {
		addTicket(entity.TicketTypeStudent)
	}

	if err := repo.Ticket.MintForBooking(ctx, booking, buyer, tickets); err != nil {
		return nil, err
	}

	for _, ticket := range tickets {
		audit.Record(ctx, AuditEvent{
			ActionType:     ActionTicketGenerated,
			EntityType:     "ticket",
			EntityID:       ticket.ID.String(),
			UserType:       UserTypeAdmin,
			UserIdentifier: actor,
			Details: map[string]any{
				"ticket_reference":  ticket.TicketReference,
				"booking_reference": booking.BookingReference,
				"ticket_type":       string(ticket.TicketType),
			},
		})
	}
	return tickets, nil
}

func (s *ticketService) GenerateTickets(ctx context.Context, bookingID uuid.UUID, actor string) ([]*response.TicketResponse, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		s.log.Error("Failed to load booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("failed to load booking")
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}

	existing, err := s.repo.Ticket.FindByBookingID(ctx, bookingID)
	if err != nil {
		s.log.Error("Failed to load tickets", zap.Error(err))
		return nil, fmt.Errorf("failed to load tickets")
	}
	if len(existing) > 0 {
		return s.enrich(ctx, existing)
	}

	if booking.Status != entity.BookingStatusConfirmed {
		return nil, entity.ErrInvalidStatusTransition
	}

	tickets, err := mintTicketsForBooking(ctx, s.repo, s.audit, booking, actor)
	if err != nil {
		s.log.Error("Failed to mint tickets", zap.Error(err),
			zap.String("reference", booking.BookingReference))
		return nil, fmt.Errorf("failed to generate tickets")
	}
	s.log.Info("Tickets regenerated",
		zap.String("reference", booking.BookingReference),
		zap.Int("count", len(tickets)),
		zap.String("actor", actor))
	return s.enrich(ctx, tickets)
}

func (s *ticketService) GetTicketByReference(ctx context.Context, reference string) (*response.TicketResponse, error) {
	ticket, err := s.findTicketByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	resp, err := s.enrich(ctx, []*entity.Ticket{ticket})
	if err != nil {
		return nil, err
	}
	return resp[0], nil
}

func (s *ticketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]*response.TicketResponse, error) {
	tickets, err := s.repo.Ticket.FindAll(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list tickets", zap.Error(err))
		return nil, fmt.Errorf("failed to list tickets")
	}
	return s.enrich(ctx, tickets)
}

func (s *ticketService) ListTicketsForBooking(ctx context.Context, bookingID uuid.UUID) ([]*response.TicketResponse, error) {
	tickets, err := s.repo.Ticket.FindByBookingID(ctx, bookingID)
	if err != nil {
		s.log.Error("Failed to list tickets", zap.Error(err))
		return nil, fmt.Errorf("failed to list tickets")
	}
	return s.enrich(ctx, tickets)
}

func (s *ticketService) MarkUsed(ctx context.Context, reference, checkedBy string) (*response.TicketResponse, error) {
	ticket, err := s.findTicketByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if ticket.IsUsed {
		return nil, entity.ErrAlreadyUsed
	}

	if err := s.checkIn(ctx, ticket, checkedBy); err != nil {
		return nil, err
	}
	resp, err := s.enrich(ctx, []*entity.Ticket{ticket})
	if err != nil {
		return nil, err
	}
	return resp[0], nil
}

func (s *ticketService) ToggleUsed(ctx context.Context, id uuid.UUID, checkedBy string) (*response.TicketResponse, error) {
	ticket, err := s.findTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, ticket, checkedBy)
}

func (s *ticketService) ToggleUsedByReference(ctx context.Context, reference, checkedBy string) (*response.TicketResponse, error) {
	ticket, err := s.findTicketByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, ticket, checkedBy)
}

func (s *ticketService) toggle(ctx context.Context, ticket *entity.Ticket, checkedBy string) (*response.TicketResponse, error) {
	if ticket.IsUsed {
		ticket.IsUsed = false
		ticket.UsedAt = nil
		ticket.CheckedBy = nil
	} else {
		now := time.Now()
		ticket.IsUsed = true
		ticket.UsedAt = &now
		ticket.CheckedBy = &checkedBy
	}
	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		s.log.Error("Failed to toggle ticket", zap.Error(err),
			zap.String("ticket_reference", ticket.TicketReference))
		return nil, fmt.Errorf("failed to update ticket")
	}
	s.log.Info("Ticket use toggled",
		zap.String("ticket_reference", ticket.TicketReference),
		zap.Bool("is_used", ticket.IsUsed),
		zap.String("actor", checkedBy))

	resp, err := s.enrich(ctx, []*entity.Ticket{ticket})
	if err != nil {
		return nil, err
	}
	return resp[0], nil
}

func (s *ticketService) DeleteTicket(ctx context.Context, id uuid.UUID, actor string) error {
	ticket, err := s.findTicket(ctx, id)
	if err != nil {
		return err
	}
	if ticket.IsUsed {
		return entity.ErrCannotDeleteUsedTicket
	}

	booking, err := s.repo.Booking.FindByID(ctx, ticket.BookingID)
	if err != nil {
		s.log.Error("Failed to load booking", zap.Error(err))
		return fmt.Errorf("failed to load booking")
	}
	if booking == nil {
		return entity.ErrBookingNotFound
	}

	// Shrink the booking by one ticket of the deleted class and reprice it
	// from the current settings.
	if ticket.TicketType == entity.TicketTypeStudent {
		booking.StudentTickets--
	} else {
		booking.AdultTickets--
	}
	if booking.AdultTickets < 0 || booking.StudentTickets < 0 {
		return fmt.Errorf("booking ticket counts out of sync")
	}
	booking.TotalAmount = booking.AdultTickets*s.settings.AdultPrice(ctx) +
		booking.StudentTickets*s.settings.StudentPrice(ctx)
	booking.UpdatedAt = time.Now()

	if err := s.repo.Ticket.DeleteWithAdjustment(ctx, ticket, booking); err != nil {
		s.log.Error("Failed to delete ticket", zap.Error(err),
			zap.String("ticket_reference", ticket.TicketReference))
		return fmt.Errorf("failed to delete ticket")
	}

	s.audit.Record(ctx, AuditEvent{
		ActionType:     ActionTicketDeleted,
		EntityType:     "ticket",
		EntityID:       ticket.ID.String(),
		UserType:       UserTypeAdmin,
		UserIdentifier: actor,
		Details: map[string]any{
			"ticket_reference":  ticket.TicketReference,
			"booking_reference": booking.BookingReference,
			"ticket_type":       string(ticket.TicketType),
			"new_total_amount":  booking.TotalAmount,
		},
	})
	s.log.Info("Ticket deleted",
		zap.String("ticket_reference", ticket.TicketReference),
		zap.String("actor", actor))
	return nil
}

func (s *ticketService) ValidateTicket(ctx context.Context, req *request.TicketValidationRequest, checkedBy string) (*response.ValidationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	ticket, err := s.findTicketByReference(ctx, req.TicketReference)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, ticket.BookingID)
	if err != nil {
		s.log.Error("Failed to load booking", zap.Error(err))
		return nil, fmt.Errorf("failed to load booking")
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}

	result := &response.ValidationResponse{
		TicketReference:  ticket.TicketReference,
		TicketType:       string(ticket.TicketType),
		BookingReference: booking.BookingReference,
		BookingStatus:    string(booking.Status),
	}

	if booking.Status != entity.BookingStatusConfirmed {
		result.Status = "unconfirmed"
		result.Message = "Booking payment is not confirmed"
		return result, nil
	}

	if req.ShowID != nil {
		showID, err := utils.ParseUUID(*req.ShowID)
		if err != nil {
			return nil, fmt.Errorf("invalid show id")
		}
		if ticket.ShowID != showID {
			result.Status = "wrong_show"
			result.Message = "Ticket belongs to a different show"
			return result, nil
		}
	}

	if ticket.IsUsed {
		result.Status = "used"
		result.Message = "Ticket has already been used"
		if ticket.UsedAt != nil {
			result.UsedAt = ticket.UsedAt.Format(time.RFC3339)
		}
		return result, nil
	}

	if err := s.checkIn(ctx, ticket, checkedBy); err != nil {
		return nil, err
	}
	result.Valid = true
	result.Status = "success"
	result.Message = "Ticket checked in"
	result.UsedAt = ticket.UsedAt.Format(time.RFC3339)
	return result, nil
}

func (s *ticketService) checkIn(ctx context.Context, ticket *entity.Ticket, checkedBy string) error {
	now := time.Now()
	ticket.IsUsed = true
	ticket.UsedAt = &now
	ticket.CheckedBy = &checkedBy
	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		s.log.Error("Failed to check in ticket", zap.Error(err),
			zap.String("ticket_reference", ticket.TicketReference))
		return fmt.Errorf("failed to check in ticket")
	}

	s.audit.Record(ctx, AuditEvent{
		ActionType:     ActionTicketUsed,
		EntityType:     "ticket",
		EntityID:       ticket.ID.String(),
		UserType:       UserTypeAdmin,
		UserIdentifier: checkedBy,
		Details:        map[string]any{"ticket_reference": ticket.TicketReference},
	})
	s.log.Info("Ticket checked in",
		zap.String("ticket_reference", ticket.TicketReference),
		zap.String("checked_by", checkedBy))
	return nil
}

func (s *ticketService) findTicket(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	ticket, err := s.repo.Ticket.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load ticket", zap.Error(err), zap.String("ticket_id", id.String()))
		return nil, fmt.Errorf("failed to load ticket")
	}
	if ticket == nil {
		return nil, entity.ErrTicketNotFound
	}
	return ticket, nil
}

func (s *ticketService) findTicketByReference(ctx context.Context, reference string) (*entity.Ticket, error) {
	ticket, err := s.repo.Ticket.FindByReference(ctx, reference)
	if err != nil {
		s.log.Error("Failed to load ticket", zap.Error(err), zap.String("reference", reference))
		return nil, fmt.Errorf("failed to load ticket")
	}
	if ticket == nil {
		return nil, entity.ErrTicketNotFound
	}
	return ticket, nil
}

// enrich joins bookings, buyers and shows onto the ticket responses. The
// lookups are memoized per call since admin listings cluster on a handful
// of bookings.
func (s *ticketService) enrich(ctx context.Context, tickets []*entity.Ticket) ([]*response.TicketResponse, error) {
	bookings := map[uuid.UUID]*entity.Booking{}
	buyers := map[uuid.UUID]*entity.Buyer{}
	shows := map[uuid.UUID]*entity.Show{}

	resp := make([]*response.TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		booking, ok := bookings[ticket.BookingID]
		if !ok {
			booking, _ = s.repo.Booking.FindByID(ctx, ticket.BookingID)
			bookings[ticket.BookingID] = booking
		}
		buyer, ok := buyers[ticket.BuyerID]
		if !ok {
			buyer, _ = s.repo.Buyer.FindByID(ctx, ticket.BuyerID)
			buyers[ticket.BuyerID] = buyer
		}
		show, ok := shows[ticket.ShowID]
		if !ok {
			show, _ = s.repo.Show.FindByID(ctx, ticket.ShowID)
			shows[ticket.ShowID] = show
		}
		resp = append(resp, response.TicketToResponse(ticket, booking, buyer, show))
	}
	return resp, nil
}
