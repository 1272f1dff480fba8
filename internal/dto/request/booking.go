package request

type CreateBookingRequest struct {
	ShowID         string `json:"show_id" validate:"required,uuid4"`
	FirstName      string `json:"first_name" validate:"required,max=50"`
	LastName       string `json:"last_name" validate:"required,max=50"`
	Email          string `json:"email" validate:"required,email,max=120"`
	Phone          string `json:"phone" validate:"required,max=20"`
	AdultTickets   int    `json:"adult_tickets" validate:"gte=0"`
	StudentTickets int    `json:"student_tickets" validate:"gte=0"`
	// GdprConsent must be true; "required" rejects the zero value.
	GdprConsent bool `json:"gdpr_consent" validate:"required"`
}

// UpdateBookingRequest carries admin edits. Nil fields are left untouched.
// Ticket counts are deliberately absent: they only change through ticket
// deletion.
type UpdateBookingRequest struct {
	FirstName             *string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName              *string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Email                 *string `json:"email,omitempty" validate:"omitempty,email,max=120"`
	Phone                 *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	SwishPaymentInitiated *bool   `json:"swish_payment_initiated,omitempty"`
	BuyerConfirmedPayment *bool   `json:"buyer_confirmed_payment,omitempty"`
	Status                *string `json:"status,omitempty" validate:"omitempty,oneof=reserved confirmed cancelled"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=reserved confirmed cancelled"`
}
