package request

type CreateShowRequest struct {
	Date      string `json:"date" validate:"required,max=20"`
	StartTime string `json:"start_time" validate:"required,max=10"`
	EndTime   string `json:"end_time" validate:"required,max=10"`
	// TotalTickets defaults to 100 when omitted.
	TotalTickets *int `json:"total_tickets,omitempty" validate:"omitempty,gte=0"`
}

type UpdateShowRequest struct {
	Date             *string `json:"date,omitempty" validate:"omitempty,max=20"`
	StartTime        *string `json:"start_time,omitempty" validate:"omitempty,max=10"`
	EndTime          *string `json:"end_time,omitempty" validate:"omitempty,max=10"`
	TotalTickets     *int    `json:"total_tickets,omitempty"`
	AvailableTickets *int    `json:"available_tickets,omitempty"`
}
