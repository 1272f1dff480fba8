package response

import (
	"time"

	"ticket-broker/internal/data/entity"
)

type BookingResponse struct {
	ID                      string               `json:"id"`
	BookingReference        string               `json:"booking_reference"`
	ShowID                  string               `json:"show_id"`
	Show                    *ShowResponse        `json:"show,omitempty"`
	FirstName               string               `json:"first_name"`
	LastName                string               `json:"last_name"`
	Email                   string               `json:"email"`
	Phone                   string               `json:"phone"`
	AdultTickets            int                  `json:"adult_tickets"`
	StudentTickets          int                  `json:"student_tickets"`
	TotalTickets            int                  `json:"total_tickets"`
	TotalAmount             int                  `json:"total_amount"`
	Status                  entity.BookingStatus `json:"status"`
	BuyerConfirmedPayment   bool                 `json:"buyer_confirmed_payment"`
	SwishPaymentInitiated   bool                 `json:"swish_payment_initiated"`
	SwishPaymentInitiatedAt *time.Time           `json:"swish_payment_initiated_at,omitempty"`
	GdprConsent             bool                 `json:"gdpr_consent"`
	ConfirmedAt             *time.Time           `json:"confirmed_at,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking, show *entity.Show) *BookingResponse {
	resp := &BookingResponse{
		ID:                      booking.ID.String(),
		BookingReference:        booking.BookingReference,
		ShowID:                  booking.ShowID.String(),
		FirstName:               booking.FirstName,
		LastName:                booking.LastName,
		Email:                   booking.Email,
		Phone:                   booking.Phone,
		AdultTickets:            booking.AdultTickets,
		StudentTickets:          booking.StudentTickets,
		TotalTickets:            booking.TotalTickets(),
		TotalAmount:             booking.TotalAmount,
		Status:                  booking.Status,
		BuyerConfirmedPayment:   booking.BuyerConfirmedPayment,
		SwishPaymentInitiated:   booking.SwishPaymentInitiated,
		SwishPaymentInitiatedAt: booking.SwishPaymentInitiatedAt,
		GdprConsent:             booking.GdprConsent,
		ConfirmedAt:             booking.ConfirmedAt,
		CreatedAt:               booking.CreatedAt,
	}
	if show != nil {
		resp.Show = ShowToResponse(show)
	}
	return resp
}

type PaymentInstructionsResponse struct {
	SwishURL    string `json:"swish_url"`
	SwishNumber string `json:"swish_number"`
}
