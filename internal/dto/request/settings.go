package request

// UpdateSettingsRequest maps the editable setting keys. Nil fields are
// left untouched.
type UpdateSettingsRequest struct {
	ConcertName          *string `json:"concert_name,omitempty"`
	WelcomeMessage       *string `json:"welcome_message,omitempty"`
	ConcertDate          *string `json:"concert_date,omitempty"`
	ConcertVenue         *string `json:"concert_venue,omitempty"`
	AdultTicketPrice     *string `json:"adult_ticket_price,omitempty"`
	StudentTicketPrice   *string `json:"student_ticket_price,omitempty"`
	AdultTicketLabel     *string `json:"adult_ticket_label,omitempty"`
	StudentTicketLabel   *string `json:"student_ticket_label,omitempty"`
	SwishNumber          *string `json:"swish_number,omitempty"`
	SwishRecipientName   *string `json:"swish_recipient_name,omitempty"`
	ContactEmail         *string `json:"contact_email,omitempty"`
	AdminEmail           *string `json:"admin_email,omitempty"`
	MaxTicketsPerBooking *string `json:"max_tickets_per_booking,omitempty"`
}

type ContactRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=20"`
	Subject     string `json:"subject" validate:"required,max=200"`
	Message     string `json:"message" validate:"required"`
	GdprConsent bool   `json:"gdpr_consent" validate:"required"`
}
