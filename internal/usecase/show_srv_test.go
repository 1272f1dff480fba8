package usecase

import (
	"context"
	"errors"
	"testing"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/dto/request"
)

func TestCreateShowDefaultsCapacity(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	show, err := env.svc.Show.CreateShow(context.Background(), &request.CreateShowRequest{
		Date:      "2024-06-05",
		StartTime: "18:00",
		EndTime:   "19:30",
	})
	if err != nil {
		t.Fatalf("create show: %v", err)
	}
	if show.TotalTickets != 100 || show.AvailableTickets != 100 {
		t.Errorf("capacity = %d/%d, want 100/100", show.AvailableTickets, show.TotalTickets)
	}
	if show.SoldOut {
		t.Error("new show reported sold out")
	}
}

func TestUpdateCapacityGuards(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	env.createBooking(t, showID, 3, 0)

	for name, req := range map[string]request.UpdateShowRequest{
		"total below committed bookings": {TotalTickets: intPtr(2)},
		"negative total":                 {TotalTickets: intPtr(-1)},
		"available above unsold seats":   {AvailableTickets: intPtr(9)},
	} {
		_, err := env.svc.Show.UpdateShow(ctx, showID, &req, "admin")
		if !errors.Is(err, entity.ErrInvalidCapacity) {
			t.Errorf("%s: err = %v, want ErrInvalidCapacity", name, err)
		}
	}

	// Growing the total re-derives availability around the booked seats.
	show, err := env.svc.Show.UpdateShow(ctx, showID, &request.UpdateShowRequest{TotalTickets: intPtr(20)}, "admin")
	if err != nil {
		t.Fatalf("grow capacity: %v", err)
	}
	if show.TotalTickets != 20 || show.AvailableTickets != 17 {
		t.Errorf("capacity = %d/%d, want 17/20", show.AvailableTickets, show.TotalTickets)
	}
}

func TestRejectedCapacityEditLeavesShowUntouched(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	env.createBooking(t, showID, 3, 0)

	_, err := env.svc.Show.UpdateShow(ctx, showID, &request.UpdateShowRequest{
		Date:         strPtr("2024-06-06"),
		TotalTickets: intPtr(2),
	}, "admin")
	if !errors.Is(err, entity.ErrInvalidCapacity) {
		t.Fatalf("err = %v, want ErrInvalidCapacity", err)
	}

	show, err := env.svc.Show.GetShow(ctx, showID)
	if err != nil {
		t.Fatalf("get show: %v", err)
	}
	if show.Date != "2024-06-05" {
		t.Errorf("date = %s, the rejected edit must not change any field", show.Date)
	}
	if show.TotalTickets != 10 || show.AvailableTickets != 7 {
		t.Errorf("capacity = %d/%d, want 7/10 unchanged", show.AvailableTickets, show.TotalTickets)
	}
}

func TestDeleteShowWithBookingsRefused(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	env.createBooking(t, showID, 1, 0)

	err := env.svc.Show.DeleteShow(ctx, showID)
	if !errors.Is(err, entity.ErrShowHasBookings) {
		t.Errorf("err = %v, want ErrShowHasBookings", err)
	}

	emptyID := env.createShow(t, 10)
	if err := env.svc.Show.DeleteShow(ctx, emptyID); err != nil {
		t.Errorf("delete empty show: %v", err)
	}
	if _, err := env.svc.Show.GetShow(ctx, emptyID); !errors.Is(err, entity.ErrShowNotFound) {
		t.Errorf("err = %v, want ErrShowNotFound after delete", err)
	}
}

func TestReconcileRepairsDriftedCounter(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	showID := env.createShow(t, 10)
	env.createBooking(t, showID, 2, 0)

	// Corrupt the stored counter behind the repository's back.
	env.store.mu.Lock()
	env.store.shows[showID].AvailableTickets = 5
	env.store.mu.Unlock()

	drifts, err := env.svc.Show.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("reported %d drifts, want 1", len(drifts))
	}
	if drifts[0].StoredAvailable != 5 || drifts[0].ExpectedAvailable != 8 {
		t.Errorf("drift = %+v, want stored 5 / expected 8", drifts[0])
	}
	if got := env.availability(t, showID); got != 8 {
		t.Errorf("availability = %d, want 8 after repair", got)
	}

	// A second run finds nothing to fix.
	drifts, err = env.svc.Show.Reconcile(ctx)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("reported %d drifts on clean state, want 0", len(drifts))
	}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
