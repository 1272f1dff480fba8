package usecase

import (
	"context"
	"errors"
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

// maxReferenceAttempts bounds the collision-retry loop of the booking
// reference generator. With 36^5 combinations, hitting it means the table
// is pathologically full.
const maxReferenceAttempts = 10

type BookingService interface {
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)

	GetBookingByID(ctx context.Context, id uuid.UUID) (*response.BookingResponse, error)
	GetBookingByReference(ctx context.Context, reference string) (*response.BookingResponse, error)

	// LookupBooking is the public lookup: the reference alone is not
	// enough, the caller must also know the booking email.
	LookupBooking(ctx context.Context, reference, email string) (*response.BookingResponse, error)
	SearchBookings(ctx context.Context, email, lastName string) ([]*response.BookingResponse, error)

	ListBookings(ctx context.Context, status string, showID *uuid.UUID) ([]*response.BookingResponse, error)

	InitiatePayment(ctx context.Context, reference string) (*response.PaymentInstructionsResponse, error)
	ConfirmPaymentByBuyer(ctx context.Context, reference string) (*response.BookingResponse, error)

	UpdateBooking(ctx context.Context, id uuid.UUID, req *request.UpdateBookingRequest, actor string) (*response.BookingResponse, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus, actor string) (*response.BookingResponse, error)
	DeleteBooking(ctx context.Context, id uuid.UUID, actor string) error

	// ResendConfirmation re-sends the reservation email with the payment
	// instructions; ResendTickets re-sends the ticket batch of a confirmed
	// booking.
	ResendConfirmation(ctx context.Context, id uuid.UUID) error
	ResendTickets(ctx context.Context, id uuid.UUID) error
}

type bookingService struct {
	repo     *repository.Repository
	audit    AuditService
	settings SettingsService
	mailer   Mailer
	log      *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	audit AuditService,
	settings SettingsService,
	mailer Mailer,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:     repo,
		audit:    audit,
		settings: settings,
		mailer:   mailer,
		log:      log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	total := req.AdultTickets + req.StudentTickets
	if total < 1 {
		return nil, fmt.Errorf("a booking needs at least one ticket")
	}
	if max := s.settings.MaxTicketsPerBooking(ctx); total > max {
		return nil, fmt.Errorf("a booking is limited to %d tickets", max)
	}

	showID, err := utils.ParseUUID(req.ShowID)
	if err != nil {
		return nil, fmt.Errorf("invalid show id")
	}
	show, err := s.repo.Show.FindByID(ctx, showID)
	if err != nil {
		s.log.Error("Failed to load show", zap.Error(err), zap.String("show_id", req.ShowID))
		return nil, fmt.Errorf("failed to load show")
	}
	if show == nil {
		return nil, entity.ErrShowNotFound
	}

	reference, err := s.uniqueReference(ctx)
	if err != nil {
		return nil, err
	}

	amount := req.AdultTickets*s.settings.AdultPrice(ctx) +
		req.StudentTickets*s.settings.StudentPrice(ctx)

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        utils.GenerateUUID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingReference: reference,
		ShowID:           showID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		AdultTickets:     req.AdultTickets,
		StudentTickets:   req.StudentTickets,
		TotalAmount:      amount,
		Status:           entity.BookingStatusReserved,
		GdprConsent:      req.GdprConsent,
	}

	if err := s.repo.Booking.CreateReserved(ctx, booking); err != nil {
		if errors.Is(err, entity.ErrInsufficientCapacity) || errors.Is(err, entity.ErrShowNotFound) {
			return nil, err
		}
		s.log.Error("Failed to create booking", zap.Error(err), zap.String("reference", reference))
		return nil, fmt.Errorf("failed to create booking")
	}

	s.audit.Record(ctx, AuditEvent{
		ActionType:     ActionBookingCreated,
		EntityType:     "booking",
		EntityID:       booking.ID.String(),
		UserType:       UserTypePublic,
		UserIdentifier: booking.Email,
		Details: map[string]any{
			"booking_reference": reference,
			"show_id":           showID.String(),
			"adult_tickets":     req.AdultTickets,
			"student_tickets":   req.StudentTickets,
			"total_amount":      amount,
		},
	})
	s.log.Info("Booking created",
		zap.String("reference", reference),
		zap.String("show_id", showID.String()),
		zap.Int("tickets", total),
		zap.Int("amount", amount))

	s.sendReservationEmail(ctx, booking)

	return response.BookingToResponse(booking, show), nil
}

// uniqueReference draws candidates until one is free of collisions.
func (s *bookingService) uniqueReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		candidate := utils.GenerateBookingReference()
		existing, err := s.repo.Booking.FindByReference(ctx, candidate)
		if err != nil {
			s.log.Error("Failed to check reference", zap.Error(err))
			return "", fmt.Errorf("failed to generate booking reference")
		}
		if existing == nil {
			return candidate, nil
		}
	}
	s.log.Error("Booking reference space exhausted",
		zap.Int("attempts", maxReferenceAttempts))
	return "", entity.ErrReferenceExhausted
}

func (s *bookingService) GetBookingByID(ctx context.Context, id uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withShow(ctx, booking)
}

func (s *bookingService) GetBookingByReference(ctx context.Context, reference string) (*response.BookingResponse, error) {
	booking, err := s.findBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.withShow(ctx, booking)
}

func (s *bookingService) LookupBooking(ctx context.Context, reference, email string) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindByReferenceAndEmail(ctx, reference, email)
	if err != nil {
		s.log.Error("Failed to look up booking", zap.Error(err), zap.String("reference", reference))
		return nil, fmt.Errorf("failed to look up booking")
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}
	return s.withShow(ctx, booking)
}

func (s *bookingService) SearchBookings(ctx context.Context, email, lastName string) ([]*response.BookingResponse, error) {
	bookings, err := s.repo.Booking.FindByEmailAndLastName(ctx, email, lastName)
	if err != nil {
		s.log.Error("Failed to search bookings", zap.Error(err))
		return nil, fmt.Errorf("failed to search bookings")
	}
	return s.toResponses(ctx, bookings)
}

func (s *bookingService) ListBookings(ctx context.Context, status string, showID *uuid.UUID) ([]*response.BookingResponse, error) {
	var (
		bookings []*entity.Booking
		err      error
	)
	switch {
	case status != "":
		bookingStatus := entity.BookingStatus(status)
		if !bookingStatus.IsValid() {
			return nil, fmt.Errorf("unknown booking status %q", status)
		}
		bookings, err = s.repo.Booking.FindByStatus(ctx, bookingStatus)
	case showID != nil:
		bookings, err = s.repo.Booking.FindByShowID(ctx, *showID)
	default:
		bookings, err = s.repo.Booking.FindAll(ctx)
	}
	if err != nil {
		s.log.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("failed to list bookings")
	}
	return s.toResponses(ctx, bookings)
}

func (s *bookingService) InitiatePayment(ctx context.Context, reference string) (*response.PaymentInstructionsResponse, error) {
	booking, err := s.findBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("booking is cancelled")
	}

	if !booking.SwishPaymentInitiated {
		now := time.Now()
		booking.SwishPaymentInitiated = true
		booking.SwishPaymentInitiatedAt = &now
		booking.UpdatedAt = now
		if err := s.repo.Booking.Update(ctx, booking); err != nil {
			s.log.Error("Failed to record payment initiation",
				zap.Error(err), zap.String("reference", reference))
			return nil, fmt.Errorf("failed to initiate payment")
		}
		s.audit.Record(ctx, AuditEvent{
			ActionType:     ActionPaymentInitiated,
			EntityType:     "booking",
			EntityID:       booking.ID.String(),
			UserType:       UserTypePublic,
			UserIdentifier: booking.Email,
			Details: map[string]any{
				"booking_reference": reference,
				"amount":            booking.TotalAmount,
			},
		})
	}

	swishNumber, err := s.settings.GetValue(ctx, SettingSwishNumber)
	if err != nil {
		return nil, err
	}
	return &response.PaymentInstructionsResponse{
		SwishURL:    utils.GenerateSwishURL(swishNumber, booking.TotalAmount, reference),
		SwishNumber: swishNumber,
	}, nil
}

func (s *bookingService) ConfirmPaymentByBuyer(ctx context.Context, reference string) (*response.BookingResponse, error) {
	booking, err := s.findBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("booking is cancelled")
	}

	if !booking.BuyerConfirmedPayment {
		booking.BuyerConfirmedPayment = true
		booking.UpdatedAt = time.Now()
		if err := s.repo.Booking.Update(ctx, booking); err != nil {
			s.log.Error("Failed to record buyer confirmation",
				zap.Error(err), zap.String("reference", reference))
			return nil, fmt.Errorf("failed to confirm payment")
		}
		s.audit.Record(ctx, AuditEvent{
			ActionType:     ActionBuyerPaymentConfirmed,
			EntityType:     "booking",
			EntityID:       booking.ID.String(),
			UserType:       UserTypePublic,
			UserIdentifier: booking.Email,
			Details:        map[string]any{"booking_reference": reference},
		})
		s.notifyAdmin(ctx, booking)
	}

	return s.withShow(ctx, booking)
}

func (s *bookingService) UpdateBooking(ctx context.Context, id uuid.UUID, req *request.UpdateBookingRequest, actor string) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	oldValues := map[string]any{}
	newValues := map[string]any{}
	apply := func(field string, target *string, value *string) {
		if value == nil || *value == *target {
			return
		}
		oldValues[field] = *target
		newValues[field] = *value
		*target = *value
	}
	apply("first_name", &booking.FirstName, req.FirstName)
	apply("last_name", &booking.LastName, req.LastName)
	apply("email", &booking.Email, req.Email)
	apply("phone", &booking.Phone, req.Phone)
	if req.SwishPaymentInitiated != nil && *req.SwishPaymentInitiated != booking.SwishPaymentInitiated {
		oldValues["swish_payment_initiated"] = booking.SwishPaymentInitiated
		newValues["swish_payment_initiated"] = *req.SwishPaymentInitiated
		booking.SwishPaymentInitiated = *req.SwishPaymentInitiated
		if *req.SwishPaymentInitiated && booking.SwishPaymentInitiatedAt == nil {
			now := time.Now()
			booking.SwishPaymentInitiatedAt = &now
		}
	}
	if req.BuyerConfirmedPayment != nil && *req.BuyerConfirmedPayment != booking.BuyerConfirmedPayment {
		oldValues["buyer_confirmed_payment"] = booking.BuyerConfirmedPayment
		newValues["buyer_confirmed_payment"] = *req.BuyerConfirmedPayment
		booking.BuyerConfirmedPayment = *req.BuyerConfirmedPayment
	}

	if len(newValues) > 0 {
		booking.UpdatedAt = time.Now()
		if err := s.repo.Booking.Update(ctx, booking); err != nil {
			s.log.Error("Failed to update booking", zap.Error(err), zap.String("booking_id", id.String()))
			return nil, fmt.Errorf("failed to update booking")
		}
		s.audit.Record(ctx, AuditEvent{
			ActionType:     ActionBookingUpdated,
			EntityType:     "booking",
			EntityID:       booking.ID.String(),
			UserType:       UserTypeAdmin,
			UserIdentifier: actor,
			OldValue:       oldValues,
			NewValue:       newValues,
		})
	}

	if req.Status != nil {
		if err := s.changeStatus(ctx, booking, entity.BookingStatus(*req.Status), actor); err != nil {
			return nil, err
		}
	}

	return s.withShow(ctx, booking)
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus, actor string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.changeStatus(ctx, booking, status, actor); err != nil {
		return nil, err
	}
	return s.withShow(ctx, booking)
}

// changeStatus drives the booking state machine. Entering confirmed mints
// the ticket batch; leaving it destroys the batch, which is forbidden once
// any ticket has been checked in.
func (s *bookingService) changeStatus(ctx context.Context, booking *entity.Booking, status entity.BookingStatus, actor string) error {
	if !status.IsValid() {
		return fmt.Errorf("unknown booking status %q", status)
	}
	if booking.Status == status {
		return nil
	}
	if !entity.CanTransition(booking.Status, status) {
		return entity.ErrInvalidStatusTransition
	}

	if booking.Status == entity.BookingStatusConfirmed {
		used, err := s.repo.Ticket.CountUsedByBookingID(ctx, booking.ID)
		if err != nil {
			s.log.Error("Failed to count used tickets", zap.Error(err))
			return fmt.Errorf("failed to count used tickets")
		}
		if used > 0 {
			return entity.ErrUsedTicketsPresent
		}
	}

	oldStatus := booking.Status
	switch {
	case status == entity.BookingStatusConfirmed:
		now := time.Now()
		booking.ConfirmedAt = &now
		tickets, err := mintTicketsForBooking(ctx, s.repo, s.audit, booking, actor)
		if err != nil {
			booking.ConfirmedAt = nil
			return err
		}
		s.audit.Record(ctx, AuditEvent{
			ActionType:     ActionPaymentConfirmed,
			EntityType:     "booking",
			EntityID:       booking.ID.String(),
			UserType:       UserTypeAdmin,
			UserIdentifier: actor,
			Details: map[string]any{
				"booking_reference": booking.BookingReference,
				"tickets":           len(tickets),
			},
		})
		s.sendTicketEmail(ctx, booking, tickets)

	case oldStatus == entity.BookingStatusConfirmed:
		tickets, err := s.repo.Ticket.FindByBookingID(ctx, booking.ID)
		if err != nil {
			s.log.Error("Failed to load tickets", zap.Error(err),
				zap.String("reference", booking.BookingReference))
			return fmt.Errorf("failed to load tickets")
		}
		if err := s.repo.Ticket.RevertBooking(ctx, booking, status); err != nil {
			s.log.Error("Failed to revert booking", zap.Error(err),
				zap.String("reference", booking.BookingReference))
			return fmt.Errorf("failed to revert booking")
		}
		for _, ticket := range tickets {
			s.audit.Record(ctx, AuditEvent{
				ActionType:     ActionTicketDeleted,
				EntityType:     "ticket",
				EntityID:       ticket.ID.String(),
				UserType:       UserTypeAdmin,
				UserIdentifier: actor,
				Details: map[string]any{
					"ticket_reference":  ticket.TicketReference,
					"booking_reference": booking.BookingReference,
					"reason":            "status changed",
				},
			})
		}

	default: // reserved -> cancelled
		if err := s.repo.Booking.UpdateStatus(ctx, booking, status); err != nil {
			s.log.Error("Failed to change booking status", zap.Error(err),
				zap.String("reference", booking.BookingReference))
			return fmt.Errorf("failed to change booking status")
		}
	}

	if status != entity.BookingStatusConfirmed {
		s.audit.Record(ctx, AuditEvent{
			ActionType:     ActionBookingUpdated,
			EntityType:     "booking",
			EntityID:       booking.ID.String(),
			UserType:       UserTypeAdmin,
			UserIdentifier: actor,
			OldValue:       map[string]any{"status": string(oldStatus)},
			NewValue:       map[string]any{"status": string(status)},
		})
	}
	s.log.Info("Booking status changed",
		zap.String("reference", booking.BookingReference),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(status)),
		zap.String("actor", actor))
	return nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, id uuid.UUID, actor string) error {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Booking.DeleteCascade(ctx, id); err != nil {
		s.log.Error("Failed to delete booking", zap.Error(err), zap.String("booking_id", id.String()))
		return fmt.Errorf("failed to delete booking")
	}

	s.audit.Record(ctx, AuditEvent{
		ActionType:     ActionBookingDeleted,
		EntityType:     "booking",
		EntityID:       id.String(),
		UserType:       UserTypeAdmin,
		UserIdentifier: actor,
		Details: map[string]any{
			"booking_reference": booking.BookingReference,
			"status":            string(booking.Status),
			"adult_tickets":     booking.AdultTickets,
			"student_tickets":   booking.StudentTickets,
		},
	})
	s.log.Info("Booking deleted",
		zap.String("reference", booking.BookingReference),
		zap.String("actor", actor))
	return nil
}

func (s *bookingService) ResendConfirmation(ctx context.Context, id uuid.UUID) error {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status == entity.BookingStatusCancelled {
		return fmt.Errorf("booking is cancelled")
	}
	s.sendReservationEmail(ctx, booking)
	return nil
}

func (s *bookingService) ResendTickets(ctx context.Context, id uuid.UUID) error {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return entity.ErrInvalidStatusTransition
	}
	tickets, err := s.repo.Ticket.FindByBookingID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load tickets", zap.Error(err), zap.String("booking_id", id.String()))
		return fmt.Errorf("failed to load tickets")
	}
	if len(tickets) == 0 {
		return entity.ErrTicketNotFound
	}
	s.sendTicketEmail(ctx, booking, tickets)
	return nil
}

func (s *bookingService) findBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load booking", zap.Error(err), zap.String("booking_id", id.String()))
		return nil, fmt.Errorf("failed to load booking")
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) findBookingByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByReference(ctx, reference)
	if err != nil {
		s.log.Error("Failed to load booking", zap.Error(err), zap.String("reference", reference))
		return nil, fmt.Errorf("failed to load booking")
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) withShow(ctx context.Context, booking *entity.Booking) (*response.BookingResponse, error) {
	show, err := s.repo.Show.FindByID(ctx, booking.ShowID)
	if err != nil {
		s.log.Error("Failed to load show for booking", zap.Error(err))
		return response.BookingToResponse(booking, nil), nil
	}
	return response.BookingToResponse(booking, show), nil
}

func (s *bookingService) toResponses(ctx context.Context, bookings []*entity.Booking) ([]*response.BookingResponse, error) {
	shows := map[uuid.UUID]*entity.Show{}
	resp := make([]*response.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		show, ok := shows[booking.ShowID]
		if !ok {
			var err error
			show, err = s.repo.Show.FindByID(ctx, booking.ShowID)
			if err != nil {
				s.log.Error("Failed to load show for booking", zap.Error(err))
				show = nil
			}
			shows[booking.ShowID] = show
		}
		resp = append(resp, response.BookingToResponse(booking, show))
	}
	return resp, nil
}

func (s *bookingService) sendReservationEmail(ctx context.Context, booking *entity.Booking) {
	swishNumber, err := s.settings.GetValue(ctx, SettingSwishNumber)
	if err != nil {
		swishNumber = ""
	}
	body := fmt.Sprintf(
		"Hej %s!\n\nDin bokning %s är reserverad.\nAntal biljetter: %d\nAtt betala: %d SEK via Swish till %s.\nAnge %s som meddelande.\n",
		booking.FirstName, booking.BookingReference, booking.TotalTickets(),
		booking.TotalAmount, swishNumber, booking.BookingReference)
	if err := s.mailer.Send(ctx, booking.Email, "Bokningsbekräftelse "+booking.BookingReference, body); err != nil {
		s.log.Warn("Failed to send reservation email",
			zap.Error(err), zap.String("reference", booking.BookingReference))
	}
}

func (s *bookingService) sendTicketEmail(ctx context.Context, booking *entity.Booking, tickets []*entity.Ticket) {
	body := fmt.Sprintf("Hej %s!\n\nBetalningen för bokning %s är bekräftad. Dina biljetter:\n",
		booking.FirstName, booking.BookingReference)
	for _, ticket := range tickets {
		body += fmt.Sprintf("  %s\n", ticket.TicketReference)
	}
	if err := s.mailer.Send(ctx, booking.Email, "Dina biljetter "+booking.BookingReference, body); err != nil {
		s.log.Warn("Failed to send ticket email",
			zap.Error(err), zap.String("reference", booking.BookingReference))
	}
}

func (s *bookingService) notifyAdmin(ctx context.Context, booking *entity.Booking) {
	adminEmail, err := s.settings.GetValue(ctx, SettingAdminEmail)
	if err != nil || adminEmail == "" {
		return
	}
	body := fmt.Sprintf("%s (%s) marked booking %s as paid (%d SEK).",
		booking.FullName(), booking.Email, booking.BookingReference, booking.TotalAmount)
	if err := s.mailer.Send(ctx, adminEmail, "Payment reported for "+booking.BookingReference, body); err != nil {
		s.log.Warn("Failed to notify admin", zap.Error(err))
	}
}
