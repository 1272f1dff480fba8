package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/dto/request"
	"ticket-broker/internal/dto/response"
	"ticket-broker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type testEnv struct {
	store  *memStore
	mailer *memMailer
	svc    *Service
}

func newTestEnv() *testEnv {
	store := newMemStore()
	mailer := &memMailer{}
	return &testEnv{
		store:  store,
		mailer: mailer,
		svc:    NewService(store.repository(), mailer, zap.NewNop()),
	}
}

func (env *testEnv) createShow(t *testing.T, total int) uuid.UUID {
	t.Helper()
	show, err := env.svc.Show.CreateShow(context.Background(), &request.CreateShowRequest{
		Date:         "2024-06-05",
		StartTime:    "18:00",
		EndTime:      "19:30",
		TotalTickets: &total,
	})
	if err != nil {
		t.Fatalf("create show: %v", err)
	}
	id, err := utils.ParseUUID(show.ID)
	if err != nil {
		t.Fatalf("parse show id: %v", err)
	}
	return id
}

func (env *testEnv) createBooking(t *testing.T, showID uuid.UUID, adult, student int) *response.BookingResponse {
	t.Helper()
	booking, err := env.svc.Booking.CreateBooking(context.Background(), &request.CreateBookingRequest{
		ShowID:         showID.String(),
		FirstName:      "Anna",
		LastName:       "Svensson",
		Email:          "anna@example.com",
		Phone:          "0701234567",
		AdultTickets:   adult,
		StudentTickets: student,
		GdprConsent:    true,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return booking
}

func (env *testEnv) availability(t *testing.T, showID uuid.UUID) int {
	t.Helper()
	avail, err := env.svc.Show.Availability(context.Background(), showID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	return avail.Available
}

func (env *testEnv) bookingID(t *testing.T, booking *response.BookingResponse) uuid.UUID {
	t.Helper()
	id, err := utils.ParseUUID(booking.ID)
	if err != nil {
		t.Fatalf("parse booking id: %v", err)
	}
	return id
}

func (env *testEnv) auditActions() []string {
	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	actions := make([]string, 0, len(env.store.audits))
	for _, log := range env.store.audits {
		actions = append(actions, log.ActionType)
	}
	return actions
}

func hasAction(actions []string, want string) bool {
	return countAction(actions, want) > 0
}

func countAction(actions []string, want string) int {
	count := 0
	for _, a := range actions {
		if a == want {
			count++
		}
	}
	return count
}

func TestCreateBookingReservesCapacity(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	showID := env.createShow(t, 10)

	booking := env.createBooking(t, showID, 2, 1)

	if booking.Status != entity.BookingStatusReserved {
		t.Errorf("status = %s, want reserved", booking.Status)
	}
	if len(booking.BookingReference) != utils.ReferenceLength {
		t.Errorf("reference %q, want %d characters", booking.BookingReference, utils.ReferenceLength)
	}
	if booking.TotalAmount != 2*200+1*100 {
		t.Errorf("amount = %d, want 500", booking.TotalAmount)
	}
	if got := env.availability(t, showID); got != 7 {
		t.Errorf("availability = %d, want 7", got)
	}
	if !hasAction(env.auditActions(), ActionBookingCreated) {
		t.Error("missing booking_created audit event")
	}
}

func TestCreateBookingRejectsOverCapacity(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	showID := env.createShow(t, 2)

	_, err := env.svc.Booking.CreateBooking(context.Background(), &request.CreateBookingRequest{
		ShowID:       showID.String(),
		FirstName:    "Anna",
		LastName:     "Svensson",
		Email:        "anna@example.com",
		Phone:        "0701234567",
		AdultTickets: 3,
		GdprConsent:  true,
	})
	if !errors.Is(err, entity.ErrInsufficientCapacity) {
		t.Errorf("err = %v, want ErrInsufficientCapacity", err)
	}
	if got := env.availability(t, showID); got != 2 {
		t.Errorf("availability = %d, want 2 after failed booking", got)
	}
}

func TestCreateBookingEnforcesPerBookingLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	showID := env.createShow(t, 20)

	_, err := env.svc.Booking.CreateBooking(context.Background(), &request.CreateBookingRequest{
		ShowID:       showID.String(),
		FirstName:    "Anna",
		LastName:     "Svensson",
		Email:        "anna@example.com",
		Phone:        "0701234567",
		AdultTickets: 5,
		GdprConsent:  true,
	})
	if err == nil || !strings.Contains(err.Error(), "limited to 4") {
		t.Errorf("err = %v, want per-booking limit error", err)
	}
}

func TestConfirmMintsTicketsAndRevertDestroysThem(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	booking := env.createBooking(t, showID, 1, 1)
	id := env.bookingID(t, booking)

	confirmed, err := env.svc.Booking.UpdateBookingStatus(ctx, id, entity.BookingStatusConfirmed, "admin")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != entity.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed", confirmed.Status)
	}
	if confirmed.ConfirmedAt == nil {
		t.Error("ConfirmedAt not set on confirm")
	}
	// The timestamp must be persisted, not just set on the in-memory copy.
	stored, err := env.svc.Booking.GetBookingByID(ctx, id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if stored.ConfirmedAt == nil {
		t.Error("ConfirmedAt not stored with the confirmed booking")
	}

	tickets, err := env.svc.Ticket.ListTicketsForBooking(ctx, id)
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("minted %d tickets, want 2", len(tickets))
	}
	wantRefs := map[string]bool{
		booking.BookingReference + "-N01": true,
		booking.BookingReference + "-D02": true,
	}
	for _, ticket := range tickets {
		if !wantRefs[ticket.TicketReference] {
			t.Errorf("unexpected ticket reference %q", ticket.TicketReference)
		}
	}

	// Confirming does not change held capacity.
	if got := env.availability(t, showID); got != 8 {
		t.Errorf("availability = %d, want 8 after confirm", got)
	}

	reverted, err := env.svc.Booking.UpdateBookingStatus(ctx, id, entity.BookingStatusReserved, "admin")
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != entity.BookingStatusReserved {
		t.Errorf("status = %s, want reserved after revert", reverted.Status)
	}
	if reverted.ConfirmedAt != nil {
		t.Error("ConfirmedAt still set after revert")
	}

	tickets, err = env.svc.Ticket.ListTicketsForBooking(ctx, id)
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tickets) != 0 {
		t.Errorf("%d tickets left after revert, want 0", len(tickets))
	}
	if got := env.availability(t, showID); got != 8 {
		t.Errorf("availability = %d, want 8 after revert", got)
	}
	// The destroyed batch is audited ticket by ticket.
	if got := countAction(env.auditActions(), ActionTicketDeleted); got != 2 {
		t.Errorf("%d ticket_deleted audit events after revert, want 2", got)
	}
}

func TestCancellationReleasesCapacity(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	booking := env.createBooking(t, showID, 3, 0)
	id := env.bookingID(t, booking)

	if got := env.availability(t, showID); got != 7 {
		t.Fatalf("availability = %d, want 7", got)
	}

	cancelled, err := env.svc.Booking.UpdateBookingStatus(ctx, id, entity.BookingStatusCancelled, "admin")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != entity.BookingStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if got := env.availability(t, showID); got != 10 {
		t.Errorf("availability = %d, want 10 after cancel", got)
	}

	// Cancelled is terminal.
	_, err = env.svc.Booking.UpdateBookingStatus(ctx, id, entity.BookingStatusReserved, "admin")
	if !errors.Is(err, entity.ErrInvalidStatusTransition) {
		t.Errorf("err = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestUsedTicketBlocksLeavingConfirmed(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	booking := env.createBooking(t, showID, 2, 0)
	id := env.bookingID(t, booking)

	if _, err := env.svc.Booking.UpdateBookingStatus(ctx, id, entity.BookingStatusConfirmed, "admin"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := env.svc.Ticket.MarkUsed(ctx, booking.BookingReference+"-N01", "door"); err != nil {
		t.Fatalf("mark used: %v", err)
	}

	for _, target := range []entity.BookingStatus{entity.BookingStatusReserved, entity.BookingStatusCancelled} {
		_, err := env.svc.Booking.UpdateBookingStatus(ctx, id, target, "admin")
		if !errors.Is(err, entity.ErrUsedTicketsPresent) {
			t.Errorf("transition to %s: err = %v, want ErrUsedTicketsPresent", target, err)
		}
	}
}

func TestDeleteBookingRestoresCapacity(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 5)
	booking := env.createBooking(t, showID, 2, 1)
	id := env.bookingID(t, booking)

	if _, err := env.svc.Booking.UpdateBookingStatus(ctx, id, entity.BookingStatusConfirmed, "admin"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := env.svc.Booking.DeleteBooking(ctx, id, "admin"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := env.availability(t, showID); got != 5 {
		t.Errorf("availability = %d, want 5 after delete", got)
	}
	if _, err := env.svc.Booking.GetBookingByID(ctx, id); !errors.Is(err, entity.ErrBookingNotFound) {
		t.Errorf("err = %v, want ErrBookingNotFound", err)
	}
	tickets, err := env.svc.Ticket.ListTickets(ctx, ticketFilterForShow(showID))
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tickets) != 0 {
		t.Errorf("%d orphan tickets after delete, want 0", len(tickets))
	}
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	showID := env.createShow(t, 10)

	const attempts = 25
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Booking.CreateBooking(context.Background(), &request.CreateBookingRequest{
				ShowID:       showID.String(),
				FirstName:    "Anna",
				LastName:     "Svensson",
				Email:        "anna@example.com",
				Phone:        "0701234567",
				AdultTickets: 1,
				GdprConsent:  true,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, capacityErrors := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, entity.ErrInsufficientCapacity):
			capacityErrors++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 10 {
		t.Errorf("successes = %d, want exactly 10", successes)
	}
	if capacityErrors != attempts-10 {
		t.Errorf("capacity errors = %d, want %d", capacityErrors, attempts-10)
	}
	if got := env.availability(t, showID); got != 0 {
		t.Errorf("availability = %d, want 0", got)
	}
}

func TestInitiatePaymentBuildsSwishLink(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	booking := env.createBooking(t, showID, 2, 0)

	instructions, err := env.svc.Booking.InitiatePayment(ctx, booking.BookingReference)
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}
	if !strings.Contains(instructions.SwishURL, "amt=400") {
		t.Errorf("URL %q missing amount", instructions.SwishURL)
	}
	if !strings.Contains(instructions.SwishURL, "msg="+booking.BookingReference) {
		t.Errorf("URL %q missing booking reference", instructions.SwishURL)
	}
	if strings.Contains(instructions.SwishURL, " ") {
		t.Errorf("URL %q contains spaces", instructions.SwishURL)
	}

	updated, err := env.svc.Booking.GetBookingByReference(ctx, booking.BookingReference)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if !updated.SwishPaymentInitiated || updated.SwishPaymentInitiatedAt == nil {
		t.Error("payment initiation not recorded on booking")
	}
	if !hasAction(env.auditActions(), ActionPaymentInitiated) {
		t.Error("missing payment_initiated audit event")
	}

	// A second call is idempotent and keeps the first timestamp.
	firstAt := *updated.SwishPaymentInitiatedAt
	time.Sleep(5 * time.Millisecond)
	if _, err := env.svc.Booking.InitiatePayment(ctx, booking.BookingReference); err != nil {
		t.Fatalf("second initiate: %v", err)
	}
	again, _ := env.svc.Booking.GetBookingByReference(ctx, booking.BookingReference)
	if !again.SwishPaymentInitiatedAt.Equal(firstAt) {
		t.Error("second initiation overwrote the first timestamp")
	}
}

func TestBuyerPaymentConfirmation(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	booking := env.createBooking(t, showID, 1, 0)

	updated, err := env.svc.Booking.ConfirmPaymentByBuyer(ctx, booking.BookingReference)
	if err != nil {
		t.Fatalf("buyer confirm: %v", err)
	}
	if !updated.BuyerConfirmedPayment {
		t.Error("BuyerConfirmedPayment not set")
	}
	if updated.Status != entity.BookingStatusReserved {
		t.Errorf("status = %s, buyer confirmation must not confirm the booking", updated.Status)
	}
	if !hasAction(env.auditActions(), ActionBuyerPaymentConfirmed) {
		t.Error("missing buyer_payment_confirmed audit event")
	}
}

func TestLookupBookingRequiresMatchingEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	booking := env.createBooking(t, showID, 1, 0)

	if _, err := env.svc.Booking.LookupBooking(ctx, booking.BookingReference, "ANNA@example.com"); err != nil {
		t.Errorf("case-insensitive email lookup failed: %v", err)
	}
	_, err := env.svc.Booking.LookupBooking(ctx, booking.BookingReference, "other@example.com")
	if !errors.Is(err, entity.ErrBookingNotFound) {
		t.Errorf("err = %v, want ErrBookingNotFound for wrong email", err)
	}
}

func TestResendConfirmationAndTickets(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	booking := env.createBooking(t, showID, 1, 1)
	id := env.bookingID(t, booking)

	// Tickets only exist on confirmed bookings.
	if err := env.svc.Booking.ResendTickets(ctx, id); !errors.Is(err, entity.ErrInvalidStatusTransition) {
		t.Errorf("resend tickets while reserved: err = %v, want ErrInvalidStatusTransition", err)
	}

	before := env.mailer.count()
	if err := env.svc.Booking.ResendConfirmation(ctx, id); err != nil {
		t.Fatalf("resend confirmation: %v", err)
	}
	if env.mailer.count() != before+1 {
		t.Error("resend confirmation did not send a mail")
	}
	if mail := env.mailer.last(); !strings.Contains(mail.body, booking.BookingReference) {
		t.Errorf("confirmation body %q missing booking reference", mail.body)
	}

	if _, err := env.svc.Booking.UpdateBookingStatus(ctx, id, entity.BookingStatusConfirmed, "admin"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	before = env.mailer.count()
	if err := env.svc.Booking.ResendTickets(ctx, id); err != nil {
		t.Fatalf("resend tickets: %v", err)
	}
	if env.mailer.count() != before+1 {
		t.Error("resend tickets did not send a mail")
	}
	mail := env.mailer.last()
	for _, ref := range []string{booking.BookingReference + "-N01", booking.BookingReference + "-D02"} {
		if !strings.Contains(mail.body, ref) {
			t.Errorf("ticket mail body missing reference %s", ref)
		}
	}
}

func ticketFilterForShow(showID uuid.UUID) repository.TicketFilter {
	return repository.TicketFilter{ShowID: &showID}
}
