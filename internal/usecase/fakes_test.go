package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/data/repository"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the database. One mutex plays the
// role of the per-show row locks: every composite operation holds it for
// its whole critical section, so the capacity invariants behave exactly
// like the transactional SQL paths.
type memStore struct {
	mu       sync.Mutex
	shows    map[uuid.UUID]*entity.Show
	bookings map[uuid.UUID]*entity.Booking
	tickets  map[uuid.UUID]*entity.Ticket
	buyers   map[uuid.UUID]*entity.Buyer
	settings map[string]string
	audits   []*entity.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		shows:    map[uuid.UUID]*entity.Show{},
		bookings: map[uuid.UUID]*entity.Booking{},
		tickets:  map[uuid.UUID]*entity.Ticket{},
		buyers:   map[uuid.UUID]*entity.Buyer{},
		settings: map[string]string{},
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		Show:     &memShowRepo{m},
		Booking:  &memBookingRepo{m},
		Ticket:   &memTicketRepo{m},
		Buyer:    &memBuyerRepo{m},
		AuditLog: &memAuditRepo{m},
		Setting:  &memSettingRepo{m},
	}
}

// bookedLocked sums tickets over capacity-holding bookings. Callers hold mu.
func (m *memStore) bookedLocked(showID uuid.UUID) int {
	booked := 0
	for _, b := range m.bookings {
		if b.ShowID == showID && b.Status.HoldsCapacity() {
			booked += b.TotalTickets()
		}
	}
	return booked
}

func (m *memStore) recomputeLocked(showID uuid.UUID) {
	show, ok := m.shows[showID]
	if !ok {
		return
	}
	available := show.TotalTickets - m.bookedLocked(showID)
	if available < 0 {
		available = 0
	}
	show.AvailableTickets = available
}

func copyShow(s *entity.Show) *entity.Show {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func copyBooking(b *entity.Booking) *entity.Booking {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func copyTicket(t *entity.Ticket) *entity.Ticket {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyBuyer(b *entity.Buyer) *entity.Buyer {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// ==================== SHOW ====================

type memShowRepo struct{ store *memStore }

func (r *memShowRepo) Create(ctx context.Context, show *entity.Show) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.shows[show.ID] = copyShow(show)
	return nil
}

func (r *memShowRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return copyShow(r.store.shows[id]), nil
}

func (r *memShowRepo) FindAll(ctx context.Context) ([]*entity.Show, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	shows := make([]*entity.Show, 0, len(r.store.shows))
	for _, s := range r.store.shows {
		shows = append(shows, copyShow(s))
	}
	sort.Slice(shows, func(i, j int) bool { return shows[i].Date < shows[j].Date })
	return shows, nil
}

func (r *memShowRepo) Update(ctx context.Context, show *entity.Show) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.shows[show.ID]
	if !ok {
		return entity.ErrShowNotFound
	}
	stored.Date = show.Date
	stored.StartTime = show.StartTime
	stored.EndTime = show.EndTime
	stored.UpdatedAt = show.UpdatedAt
	return nil
}

func (r *memShowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.shows, id)
	return nil
}

func (r *memShowRepo) UpdateCapacity(ctx context.Context, id uuid.UUID, newTotal, newAvailable int) (*entity.Show, error) {
	if newTotal < 0 || newAvailable < 0 || newAvailable > newTotal {
		return nil, entity.ErrInvalidCapacity
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	show, ok := r.store.shows[id]
	if !ok {
		return nil, entity.ErrShowNotFound
	}
	booked := r.store.bookedLocked(id)
	if newTotal < booked || newAvailable > newTotal-booked {
		return nil, entity.ErrInvalidCapacity
	}
	show.TotalTickets = newTotal
	show.AvailableTickets = newAvailable
	return copyShow(show), nil
}

func (r *memShowRepo) Recompute(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.recomputeLocked(id)
	return nil
}

func (r *memShowRepo) TotalBooked(ctx context.Context, id uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.bookedLocked(id), nil
}

// ==================== BOOKING ====================

type memBookingRepo struct{ store *memStore }

func (r *memBookingRepo) CreateReserved(ctx context.Context, booking *entity.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	show, ok := r.store.shows[booking.ShowID]
	if !ok {
		return entity.ErrShowNotFound
	}
	if booking.TotalTickets() > show.AvailableTickets {
		return entity.ErrInsufficientCapacity
	}
	r.store.bookings[booking.ID] = copyBooking(booking)
	r.store.recomputeLocked(booking.ShowID)
	return nil
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return copyBooking(r.store.bookings[id]), nil
}

func (r *memBookingRepo) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.bookings {
		if b.BookingReference == reference {
			return copyBooking(b), nil
		}
	}
	return nil, nil
}

func (r *memBookingRepo) FindByReferenceAndEmail(ctx context.Context, reference, email string) (*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.bookings {
		if b.BookingReference == reference && strings.EqualFold(b.Email, email) {
			return copyBooking(b), nil
		}
	}
	return nil, nil
}

func (r *memBookingRepo) FindAll(ctx context.Context) ([]*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bookings := make([]*entity.Booking, 0, len(r.store.bookings))
	for _, b := range r.store.bookings {
		bookings = append(bookings, copyBooking(b))
	}
	return bookings, nil
}

func (r *memBookingRepo) FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var bookings []*entity.Booking
	for _, b := range r.store.bookings {
		if b.ShowID == showID {
			bookings = append(bookings, copyBooking(b))
		}
	}
	return bookings, nil
}

func (r *memBookingRepo) FindByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var bookings []*entity.Booking
	for _, b := range r.store.bookings {
		if b.Status == status {
			bookings = append(bookings, copyBooking(b))
		}
	}
	return bookings, nil
}

func (r *memBookingRepo) FindByEmailAndLastName(ctx context.Context, email, lastName string) ([]*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var bookings []*entity.Booking
	for _, b := range r.store.bookings {
		if strings.EqualFold(b.Email, email) && strings.EqualFold(b.LastName, lastName) {
			bookings = append(bookings, copyBooking(b))
		}
	}
	return bookings, nil
}

func (r *memBookingRepo) CountByShowID(ctx context.Context, showID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, b := range r.store.bookings {
		if b.ShowID == showID {
			count++
		}
	}
	return count, nil
}

func (r *memBookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.bookings[booking.ID]
	if !ok {
		return entity.ErrBookingNotFound
	}
	stored.FirstName = booking.FirstName
	stored.LastName = booking.LastName
	stored.Email = booking.Email
	stored.Phone = booking.Phone
	stored.BuyerConfirmedPayment = booking.BuyerConfirmedPayment
	stored.SwishPaymentInitiated = booking.SwishPaymentInitiated
	stored.SwishPaymentInitiatedAt = booking.SwishPaymentInitiatedAt
	stored.UpdatedAt = booking.UpdatedAt
	return nil
}

func (r *memBookingRepo) UpdateStatus(ctx context.Context, booking *entity.Booking, status entity.BookingStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.bookings[booking.ID]
	if !ok {
		return entity.ErrBookingNotFound
	}
	stored.Status = status
	booking.Status = status
	r.store.recomputeLocked(stored.ShowID)
	return nil
}

func (r *memBookingRepo) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	booking, ok := r.store.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	for ticketID, t := range r.store.tickets {
		if t.BookingID == id {
			delete(r.store.tickets, ticketID)
		}
	}
	showID := booking.ShowID
	delete(r.store.bookings, id)
	r.store.recomputeLocked(showID)
	return nil
}

// ==================== TICKET ====================

type memTicketRepo struct{ store *memStore }

func (r *memTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return copyTicket(r.store.tickets[id]), nil
}

func (r *memTicketRepo) FindByReference(ctx context.Context, reference string) (*entity.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tickets {
		if t.TicketReference == reference {
			return copyTicket(t), nil
		}
	}
	return nil, nil
}

func (r *memTicketRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var tickets []*entity.Ticket
	for _, t := range r.store.tickets {
		if t.BookingID == bookingID {
			tickets = append(tickets, copyTicket(t))
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].TicketNumber < tickets[j].TicketNumber })
	return tickets, nil
}

func (r *memTicketRepo) FindAll(ctx context.Context, filter repository.TicketFilter) ([]*entity.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var tickets []*entity.Ticket
	for _, t := range r.store.tickets {
		if filter.ShowID != nil && t.ShowID != *filter.ShowID {
			continue
		}
		if filter.Used != nil && t.IsUsed != *filter.Used {
			continue
		}
		if filter.BookingReference != "" {
			booking := r.store.bookings[t.BookingID]
			if booking == nil || booking.BookingReference != filter.BookingReference {
				continue
			}
		}
		tickets = append(tickets, copyTicket(t))
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].TicketReference < tickets[j].TicketReference })
	return tickets, nil
}

func (r *memTicketRepo) CountUsedByBookingID(ctx context.Context, bookingID uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, t := range r.store.tickets {
		if t.BookingID == bookingID && t.IsUsed {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) Update(ctx context.Context, ticket *entity.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tickets[ticket.ID]
	if !ok {
		return entity.ErrTicketNotFound
	}
	stored.IsUsed = ticket.IsUsed
	stored.UsedAt = ticket.UsedAt
	stored.CheckedBy = ticket.CheckedBy
	return nil
}

func (r *memTicketRepo) MintForBooking(ctx context.Context, booking *entity.Booking, buyer *entity.Buyer, tickets []*entity.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.bookings[booking.ID]
	if !ok {
		return entity.ErrBookingNotFound
	}

	// Persist the confirmed_at the caller set, as the SQL path does.
	stored.Status = entity.BookingStatusConfirmed
	stored.ConfirmedAt = booking.ConfirmedAt
	booking.Status = entity.BookingStatusConfirmed

	buyerID := buyer.ID
	for _, existing := range r.store.buyers {
		if existing.Phone == buyer.Phone {
			buyerID = existing.ID
			existing.FirstName = buyer.FirstName
			existing.LastName = buyer.LastName
			existing.Email = buyer.Email
			existing.UpdatedAt = buyer.UpdatedAt
			break
		}
	}
	if buyerID == buyer.ID {
		r.store.buyers[buyer.ID] = copyBuyer(buyer)
	}

	for _, ticket := range tickets {
		ticket.BuyerID = buyerID
		r.store.tickets[ticket.ID] = copyTicket(ticket)
	}
	r.store.recomputeLocked(stored.ShowID)
	return nil
}

func (r *memTicketRepo) RevertBooking(ctx context.Context, booking *entity.Booking, newStatus entity.BookingStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.bookings[booking.ID]
	if !ok {
		return entity.ErrBookingNotFound
	}
	stored.Status = newStatus
	stored.ConfirmedAt = nil
	booking.Status = newStatus
	booking.ConfirmedAt = nil
	for ticketID, t := range r.store.tickets {
		if t.BookingID == booking.ID {
			delete(r.store.tickets, ticketID)
		}
	}
	r.store.recomputeLocked(stored.ShowID)
	return nil
}

func (r *memTicketRepo) DeleteWithAdjustment(ctx context.Context, ticket *entity.Ticket, booking *entity.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.bookings[booking.ID]
	if !ok {
		return entity.ErrBookingNotFound
	}
	stored.AdultTickets = booking.AdultTickets
	stored.StudentTickets = booking.StudentTickets
	stored.TotalAmount = booking.TotalAmount
	stored.UpdatedAt = booking.UpdatedAt
	delete(r.store.tickets, ticket.ID)
	if stored.Status.HoldsCapacity() {
		r.store.recomputeLocked(stored.ShowID)
	}
	return nil
}

// ==================== BUYER ====================

type memBuyerRepo struct{ store *memStore }

func (r *memBuyerRepo) FindByPhone(ctx context.Context, phone string) (*entity.Buyer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.buyers {
		if b.Phone == phone {
			return copyBuyer(b), nil
		}
	}
	return nil, nil
}

func (r *memBuyerRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Buyer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return copyBuyer(r.store.buyers[id]), nil
}

func (r *memBuyerRepo) Upsert(ctx context.Context, buyer *entity.Buyer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.buyers {
		if existing.Phone == buyer.Phone {
			existing.FirstName = buyer.FirstName
			existing.LastName = buyer.LastName
			existing.Email = buyer.Email
			buyer.ID = existing.ID
			return nil
		}
	}
	r.store.buyers[buyer.ID] = copyBuyer(buyer)
	return nil
}

// ==================== AUDIT ====================

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *log
	r.store.audits = append(r.store.audits, &c)
	return nil
}

func (r *memAuditRepo) matches(log *entity.AuditLog, filter repository.AuditFilter) bool {
	if filter.ActionType != "" && log.ActionType != filter.ActionType {
		return false
	}
	if filter.EntityType != "" && log.EntityType != filter.EntityType {
		return false
	}
	if filter.UserIdentifier != "" && log.UserIdentifier != filter.UserIdentifier {
		return false
	}
	return true
}

func (r *memAuditRepo) FindAll(ctx context.Context, filter repository.AuditFilter, limit, offset int) ([]*entity.AuditLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []*entity.AuditLog
	for i := len(r.store.audits) - 1; i >= 0; i-- {
		if r.matches(r.store.audits[i], filter) {
			matched = append(matched, r.store.audits[i])
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *memAuditRepo) Count(ctx context.Context, filter repository.AuditFilter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, log := range r.store.audits {
		if r.matches(log, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memAuditRepo) distinct(pick func(*entity.AuditLog) string) []string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := map[string]bool{}
	var values []string
	for _, log := range r.store.audits {
		v := pick(log)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

func (r *memAuditRepo) DistinctActionTypes(ctx context.Context) ([]string, error) {
	return r.distinct(func(l *entity.AuditLog) string { return l.ActionType }), nil
}

func (r *memAuditRepo) DistinctEntityTypes(ctx context.Context) ([]string, error) {
	return r.distinct(func(l *entity.AuditLog) string { return l.EntityType }), nil
}

func (r *memAuditRepo) DistinctUserIdentifiers(ctx context.Context) ([]string, error) {
	return r.distinct(func(l *entity.AuditLog) string { return l.UserIdentifier }), nil
}

// ==================== SETTINGS ====================

type memSettingRepo struct{ store *memStore }

func (r *memSettingRepo) Get(ctx context.Context, key string) (*entity.Setting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	value, ok := r.store.settings[key]
	if !ok {
		return nil, nil
	}
	return &entity.Setting{Key: key, Value: value}, nil
}

func (r *memSettingRepo) Set(ctx context.Context, key, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.settings[key] = value
	return nil
}

func (r *memSettingRepo) All(ctx context.Context) ([]*entity.Setting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	settings := make([]*entity.Setting, 0, len(r.store.settings))
	for key, value := range r.store.settings {
		settings = append(settings, &entity.Setting{Key: key, Value: value})
	}
	return settings, nil
}

// ==================== MAILER ====================

type sentMail struct {
	to      string
	subject string
	body    string
}

type memMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *memMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *memMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *memMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}
