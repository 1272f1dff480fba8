package adaptor

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticket-broker/internal/data/entity"

	"go.uber.org/zap"
)

func TestHandleServiceErrorStatusCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrShowNotFound, http.StatusNotFound},
		{entity.ErrBookingNotFound, http.StatusNotFound},
		{entity.ErrTicketNotFound, http.StatusNotFound},
		{entity.ErrInsufficientCapacity, http.StatusConflict},
		{entity.ErrInvalidStatusTransition, http.StatusConflict},
		{entity.ErrUsedTicketsPresent, http.StatusConflict},
		{entity.ErrAlreadyUsed, http.StatusConflict},
		{entity.ErrCannotDeleteUsedTicket, http.StatusConflict},
		{entity.ErrInvalidCapacity, http.StatusConflict},
		{entity.ErrShowHasBookings, http.StatusConflict},
		{fmt.Errorf("%w: 3 tickets already booked", entity.ErrInvalidCapacity), http.StatusConflict},
		{errors.New("validation failed: email is invalid"), http.StatusBadRequest},
		{errors.New("a booking is limited to 4 tickets"), http.StatusBadRequest},
		{errors.New("failed to load booking"), http.StatusInternalServerError},
	}

	log := zap.NewNop()
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleServiceError(rec, log, tt.err, "test")
		if rec.Code != tt.want {
			t.Errorf("handleServiceError(%v) wrote %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestAdminActorFallsBack(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := adminActor(r); got != "admin" {
		t.Errorf("adminActor without credentials = %q, want admin", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.SetBasicAuth("door-crew", "secret")
	if got := adminActor(r); got != "door-crew" {
		t.Errorf("adminActor = %q, want door-crew", got)
	}
}
