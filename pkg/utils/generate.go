package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// ==================== UUID ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ==================== BOOKING REFERENCE ====================

const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ReferenceLength   = 5
)

// GenerateBookingReference returns a random candidate reference of 5
// uppercase alphanumeric characters (36^5 ≈ 60M combinations). Uniqueness
// against persisted bookings is the caller's responsibility.
func GenerateBookingReference() string {
	var sb strings.Builder
	sb.Grow(ReferenceLength)
	for i := 0; i < ReferenceLength; i++ {
		sb.WriteByte(referenceAlphabet[rand.Intn(len(referenceAlphabet))])
	}
	return sb.String()
}

// ==================== TICKET REFERENCE ====================

// GenerateTicketReference builds {bookingReference}-{N|D}{NN}. N is a
// normal/adult ticket, D a student ticket. The sequence number runs 1..N
// across both classes of a booking and is zero-padded to two digits.
func GenerateTicketReference(bookingReference, ticketType string, ticketNumber int) string {
	classCode := "N"
	if ticketType == "student" {
		classCode = "D"
	}
	return fmt.Sprintf("%s-%s%02d", bookingReference, classCode, ticketNumber)
}

// ==================== SWISH ====================

// GenerateSwishURL builds the app.swish.nu payment link. The payee number
// is stripped of spaces and dashes; the booking reference rides along as
// the payment message.
func GenerateSwishURL(swishNumber string, amount int, bookingReference string) string {
	payee := strings.ReplaceAll(swishNumber, " ", "")
	payee = strings.ReplaceAll(payee, "-", "")
	return fmt.Sprintf("https://app.swish.nu/1/p/sw/?sw=%s&amt=%d&cur=SEK&msg=%s&src=qr",
		payee, amount, bookingReference)
}
