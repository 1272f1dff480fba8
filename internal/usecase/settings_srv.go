package usecase

import (
	"context"
	"fmt"
	"strconv"

	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/dto/request"
	"ticket-broker/pkg/utils"

	"go.uber.org/zap"
)

// Setting keys. Prices are whole SEK stored as strings.
const (
	SettingConcertName          = "concert_name"
	SettingWelcomeMessage       = "welcome_message"
	SettingConcertDate          = "concert_date"
	SettingConcertVenue         = "concert_venue"
	SettingAdultTicketPrice     = "adult_ticket_price"
	SettingStudentTicketPrice   = "student_ticket_price"
	SettingAdultTicketLabel     = "adult_ticket_label"
	SettingStudentTicketLabel   = "student_ticket_label"
	SettingSwishNumber          = "swish_number"
	SettingSwishRecipientName   = "swish_recipient_name"
	SettingContactEmail         = "contact_email"
	SettingAdminEmail           = "admin_email"
	SettingMaxTicketsPerBooking = "max_tickets_per_booking"
)

// settingDefaults backs every key that has no stored row yet.
var settingDefaults = map[string]string{
	SettingConcertName:          "Klasskonsert 24C",
	SettingWelcomeMessage:       "Välkommen! Boka dina biljetter här.",
	SettingConcertDate:          "",
	SettingConcertVenue:         "",
	SettingAdultTicketPrice:     "200",
	SettingStudentTicketPrice:   "100",
	SettingAdultTicketLabel:     "Vuxen",
	SettingStudentTicketLabel:   "Student",
	SettingSwishNumber:          "012 345 67 89",
	SettingSwishRecipientName:   "",
	SettingContactEmail:         "",
	SettingAdminEmail:           "",
	SettingMaxTicketsPerBooking: "4",
}

type SettingsService interface {
	// GetValue returns the stored value for key, falling back to the
	// built-in default when no row exists.
	GetValue(ctx context.Context, key string) (string, error)
	GetAll(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, req *request.UpdateSettingsRequest, actor string) (map[string]string, error)

	AdultPrice(ctx context.Context) int
	StudentPrice(ctx context.Context) int
	MaxTicketsPerBooking(ctx context.Context) int

	// SendContactMessage forwards a contact-form submission to the
	// configured contact address. Nothing is persisted.
	SendContactMessage(ctx context.Context, req *request.ContactRequest) error
}

type settingsService struct {
	repo   *repository.Repository
	audit  AuditService
	mailer Mailer
	log    *zap.Logger
}

func NewSettingsService(repo *repository.Repository, audit AuditService, mailer Mailer, log *zap.Logger) SettingsService {
	return &settingsService{
		repo:   repo,
		audit:  audit,
		mailer: mailer,
		log:    log.With(zap.String("service", "settings")),
	}
}

func (s *settingsService) GetValue(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Setting.Get(ctx, key)
	if err != nil {
		s.log.Error("Failed to read setting", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to read setting %s", key)
	}
	if setting != nil {
		return setting.Value, nil
	}
	return settingDefaults[key], nil
}

func (s *settingsService) GetAll(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.Setting.All(ctx)
	if err != nil {
		s.log.Error("Failed to list settings", zap.Error(err))
		return nil, fmt.Errorf("failed to list settings")
	}

	values := make(map[string]string, len(settingDefaults))
	for key, def := range settingDefaults {
		values[key] = def
	}
	for _, setting := range stored {
		values[setting.Key] = setting.Value
	}
	return values, nil
}

func (s *settingsService) Update(ctx context.Context, req *request.UpdateSettingsRequest, actor string) (map[string]string, error) {
	changes := map[string]*string{
		SettingConcertName:          req.ConcertName,
		SettingWelcomeMessage:       req.WelcomeMessage,
		SettingConcertDate:          req.ConcertDate,
		SettingConcertVenue:         req.ConcertVenue,
		SettingAdultTicketPrice:     req.AdultTicketPrice,
		SettingStudentTicketPrice:   req.StudentTicketPrice,
		SettingAdultTicketLabel:     req.AdultTicketLabel,
		SettingStudentTicketLabel:   req.StudentTicketLabel,
		SettingSwishNumber:          req.SwishNumber,
		SettingSwishRecipientName:   req.SwishRecipientName,
		SettingContactEmail:         req.ContactEmail,
		SettingAdminEmail:           req.AdminEmail,
		SettingMaxTicketsPerBooking: req.MaxTicketsPerBooking,
	}

	for key, value := range changes {
		if value == nil {
			continue
		}
		if err := validateSettingValue(key, *value); err != nil {
			return nil, err
		}
	}

	for key, value := range changes {
		if value == nil {
			continue
		}
		old, err := s.GetValue(ctx, key)
		if err != nil {
			return nil, err
		}
		if old == *value {
			continue
		}
		if err := s.repo.Setting.Set(ctx, key, *value); err != nil {
			s.log.Error("Failed to store setting", zap.Error(err), zap.String("key", key))
			return nil, fmt.Errorf("failed to store setting %s", key)
		}
		s.audit.Record(ctx, AuditEvent{
			ActionType:     ActionSettingsChanged,
			EntityType:     "setting",
			EntityID:       key,
			UserType:       UserTypeAdmin,
			UserIdentifier: actor,
			OldValue:       map[string]any{key: old},
			NewValue:       map[string]any{key: *value},
		})
		s.log.Info("Setting changed",
			zap.String("key", key), zap.String("actor", actor))
	}

	return s.GetAll(ctx)
}

// validateSettingValue guards the numeric keys. Prices may be zero (free
// class), the per-booking limit must be at least one.
func validateSettingValue(key, value string) error {
	switch key {
	case SettingAdultTicketPrice, SettingStudentTicketPrice:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative whole number", key)
		}
	case SettingMaxTicketsPerBooking:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive whole number", key)
		}
	}
	return nil
}

func (s *settingsService) intValue(ctx context.Context, key string) int {
	value, err := s.GetValue(ctx, key)
	if err != nil {
		value = settingDefaults[key]
	}
	return utils.ParseInt(value, utils.ParseInt(settingDefaults[key], 0))
}

func (s *settingsService) AdultPrice(ctx context.Context) int {
	return s.intValue(ctx, SettingAdultTicketPrice)
}

func (s *settingsService) StudentPrice(ctx context.Context) int {
	return s.intValue(ctx, SettingStudentTicketPrice)
}

func (s *settingsService) MaxTicketsPerBooking(ctx context.Context) int {
	return s.intValue(ctx, SettingMaxTicketsPerBooking)
}

func (s *settingsService) SendContactMessage(ctx context.Context, req *request.ContactRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Contact validation failed", zap.Any("errors", errs))
		return fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	to, err := s.GetValue(ctx, SettingContactEmail)
	if err != nil {
		return err
	}
	if to == "" {
		s.log.Warn("Contact message dropped, no contact email configured",
			zap.String("from", req.Email))
		return nil
	}

	body := fmt.Sprintf("From: %s <%s>\nPhone: %s\n\n%s",
		req.Name, req.Email, req.Phone, req.Message)
	if err := s.mailer.Send(ctx, to, "Kontaktformulär: "+req.Subject, body); err != nil {
		s.log.Error("Failed to send contact message", zap.Error(err))
		return fmt.Errorf("failed to send message")
	}
	return nil
}
