package request

type TicketValidationRequest struct {
	TicketReference string  `json:"ticket_reference" validate:"required"`
	ShowID          *string `json:"show_id,omitempty" validate:"omitempty,uuid4"`
}
