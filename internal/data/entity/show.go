package entity

// Show is a single time-boxed event with a fixed seating capacity.
// Date and the time fields are display strings; only sorting relies on them.
type Show struct {
	Base
	Date             string `db:"date"`
	StartTime        string `db:"start_time"`
	EndTime          string `db:"end_time"`
	TotalTickets     int    `db:"total_tickets"`
	AvailableTickets int    `db:"available_tickets"`
}

func (s *Show) IsSoldOut() bool {
	return s.AvailableTickets <= 0
}
