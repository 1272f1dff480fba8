package usecase

import (
	"context"
	"testing"

	"ticket-broker/internal/data/repository"
)

func TestAuditTrailPaging(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.svc.Audit.Record(ctx, AuditEvent{
			ActionType:     ActionBookingCreated,
			EntityType:     "booking",
			EntityID:       "b",
			UserType:       UserTypePublic,
			UserIdentifier: "anna@example.com",
		})
	}
	env.svc.Audit.Record(ctx, AuditEvent{
		ActionType:     ActionSettingsChanged,
		EntityType:     "setting",
		EntityID:       SettingConcertName,
		UserType:       UserTypeAdmin,
		UserIdentifier: "admin",
	})

	page, err := env.svc.Audit.GetLogs(ctx, repository.AuditFilter{}, 0, 4)
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if page.TotalElements != 6 {
		t.Errorf("total = %d, want 6", page.TotalElements)
	}
	if page.TotalPages != 2 {
		t.Errorf("pages = %d, want 2", page.TotalPages)
	}
	if len(page.Content) != 4 {
		t.Errorf("page size = %d, want 4", len(page.Content))
	}
	if len(page.Actions) != 2 || len(page.Users) != 2 {
		t.Errorf("filter values = %v / %v, want 2 actions and 2 users", page.Actions, page.Users)
	}

	filtered, err := env.svc.Audit.GetLogs(ctx, repository.AuditFilter{ActionType: ActionSettingsChanged}, 0, 10)
	if err != nil {
		t.Fatalf("filtered logs: %v", err)
	}
	if filtered.TotalElements != 1 {
		t.Errorf("filtered total = %d, want 1", filtered.TotalElements)
	}
	if len(filtered.Content) != 1 || filtered.Content[0].EntityID != SettingConcertName {
		t.Errorf("filtered content = %+v, want the settings event", filtered.Content)
	}
}
