package response

import (
	"encoding/json"
	"time"

	"ticket-broker/internal/data/entity"
)

type AuditLogResponse struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	ActionType     string          `json:"action_type"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	UserType       string          `json:"user_type"`
	UserIdentifier string          `json:"user_identifier"`
	Details        json.RawMessage `json:"details,omitempty"`
	OldValue       json.RawMessage `json:"old_value,omitempty"`
	NewValue       json.RawMessage `json:"new_value,omitempty"`
}

// AuditPageResponse mirrors the paging envelope the admin UI consumes,
// including the distinct values used to populate filter dropdowns.
type AuditPageResponse struct {
	Content       []*AuditLogResponse `json:"content"`
	TotalElements int64               `json:"total_elements"`
	TotalPages    int                 `json:"total_pages"`
	Page          int                 `json:"page"`
	Size          int                 `json:"size"`
	Actions       []string            `json:"actions"`
	Entities      []string            `json:"entities"`
	Users         []string            `json:"users"`
}

func AuditLogToResponse(l *entity.AuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:             l.ID.String(),
		Timestamp:      l.Timestamp,
		ActionType:     l.ActionType,
		EntityType:     l.EntityType,
		EntityID:       l.EntityID,
		UserType:       l.UserType,
		UserIdentifier: l.UserIdentifier,
		Details:        l.Details,
		OldValue:       l.OldValue,
		NewValue:       l.NewValue,
	}
}
