package usecase

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/dto/response"
	"ticket-broker/pkg/utils"

	"go.uber.org/zap"
)

// Audit action types. The set is closed; the admin UI filters on these
// exact strings.
const (
	ActionBookingCreated        = "booking_created"
	ActionBookingUpdated        = "booking_updated"
	ActionBookingDeleted        = "booking_deleted"
	ActionPaymentInitiated      = "payment_initiated"
	ActionPaymentConfirmed      = "payment_confirmed"
	ActionBuyerPaymentConfirmed = "buyer_payment_confirmed"
	ActionTicketGenerated       = "ticket_generated"
	ActionTicketUsed            = "ticket_used"
	ActionTicketDeleted         = "ticket_deleted"
	ActionSettingsChanged       = "settings_changed"
)

const (
	UserTypePublic = "public"
	UserTypeAdmin  = "admin"
	UserTypeSystem = "system"
)

// AuditEvent is one append-only trail entry before serialization. Details,
// OldValue and NewValue are marshalled to JSON; nil maps are stored as NULL.
type AuditEvent struct {
	ActionType     string
	EntityType     string
	EntityID       string
	UserType       string
	UserIdentifier string
	Details        map[string]any
	OldValue       map[string]any
	NewValue       map[string]any
}

type AuditService interface {
	// Record appends an event. Failures are logged and swallowed: the audit
	// trail never vetoes the operation it describes.
	Record(ctx context.Context, event AuditEvent)

	GetLogs(ctx context.Context, filter repository.AuditFilter, page, size int) (*response.AuditPageResponse, error)
}

type auditService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAuditService(repo *repository.Repository, log *zap.Logger) AuditService {
	return &auditService{
		repo: repo,
		log:  log.With(zap.String("service", "audit")),
	}
}

func (s *auditService) Record(ctx context.Context, event AuditEvent) {
	entry := &entity.AuditLog{
		ID:             utils.GenerateUUID(),
		ActionType:     event.ActionType,
		EntityType:     event.EntityType,
		EntityID:       event.EntityID,
		UserType:       event.UserType,
		UserIdentifier: event.UserIdentifier,
		Timestamp:      time.Now(),
	}

	var err error
	if entry.Details, err = marshalPayload(event.Details); err == nil {
		if entry.OldValue, err = marshalPayload(event.OldValue); err == nil {
			entry.NewValue, err = marshalPayload(event.NewValue)
		}
	}
	if err != nil {
		s.log.Error("Failed to serialize audit payload",
			zap.Error(err), zap.String("action", event.ActionType))
		return
	}

	if err := s.repo.AuditLog.Create(ctx, entry); err != nil {
		s.log.Error("Failed to write audit log",
			zap.Error(err),
			zap.String("action", event.ActionType),
			zap.String("entity_id", event.EntityID))
	}
}

func (s *auditService) GetLogs(ctx context.Context, filter repository.AuditFilter, page, size int) (*response.AuditPageResponse, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 200 {
		size = 50
	}

	logs, err := s.repo.AuditLog.FindAll(ctx, filter, size, page*size)
	if err != nil {
		s.log.Error("Failed to list audit logs", zap.Error(err))
		return nil, err
	}
	total, err := s.repo.AuditLog.Count(ctx, filter)
	if err != nil {
		s.log.Error("Failed to count audit logs", zap.Error(err))
		return nil, err
	}

	actions, err := s.repo.AuditLog.DistinctActionTypes(ctx)
	if err != nil {
		return nil, err
	}
	entities, err := s.repo.AuditLog.DistinctEntityTypes(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.AuditLog.DistinctUserIdentifiers(ctx)
	if err != nil {
		return nil, err
	}

	content := make([]*response.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		content = append(content, response.AuditLogToResponse(l))
	}

	return &response.AuditPageResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    int(math.Ceil(float64(total) / float64(size))),
		Page:          page,
		Size:          size,
		Actions:       actions,
		Entities:      entities,
		Users:         users,
	}, nil
}

func marshalPayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	return json.Marshal(payload)
}
