package response

import (
	"time"

	"ticket-broker/internal/data/entity"
)

type ShowResponse struct {
	ID               string    `json:"id"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	TotalTickets     int       `json:"total_tickets"`
	AvailableTickets int       `json:"available_tickets"`
	SoldOut          bool      `json:"sold_out"`
	CreatedAt        time.Time `json:"created_at"`
}

type AvailabilityResponse struct {
	Available int  `json:"available"`
	Total     int  `json:"total"`
	SoldOut   bool `json:"sold_out"`
}

func ShowToResponse(show *entity.Show) *ShowResponse {
	return &ShowResponse{
		ID:               show.ID.String(),
		Date:             show.Date,
		StartTime:        show.StartTime,
		EndTime:          show.EndTime,
		TotalTickets:     show.TotalTickets,
		AvailableTickets: show.AvailableTickets,
		SoldOut:          show.IsSoldOut(),
		CreatedAt:        show.CreatedAt,
	}
}

// DriftReport describes one show whose stored availability disagreed with
// the value recomputed from its bookings.
type DriftReport struct {
	ShowID            string `json:"show_id"`
	StoredAvailable   int    `json:"stored_available"`
	ExpectedAvailable int    `json:"expected_available"`
}
