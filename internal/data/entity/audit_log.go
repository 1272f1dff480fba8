package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog rows are append-only. Details, OldValue and NewValue hold JSON
// serialized by the audit service; nil means the event carried no payload.
type AuditLog struct {
	ID             uuid.UUID `db:"id"`
	ActionType     string    `db:"action_type"`
	EntityType     string    `db:"entity_type"`
	EntityID       string    `db:"entity_id"`
	UserType       string    `db:"user_type"`
	UserIdentifier string    `db:"user_identifier"`
	Details        []byte    `db:"details"`
	OldValue       []byte    `db:"old_value"`
	NewValue       []byte    `db:"new_value"`
	Timestamp      time.Time `db:"timestamp"`
}
