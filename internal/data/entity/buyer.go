package entity

// Buyer is a customer record deduplicated by phone number. It is upserted
// whenever tickets are generated, so name and email always reflect the most
// recent booking.
type Buyer struct {
	Base
	Phone     string `db:"phone"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
}

func (b *Buyer) FullName() string {
	return b.FirstName + " " + b.LastName
}
