package models

import "github.com/google/uuid"

// Address types.
const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
	AddressTypeBoth     = "both"
)

// Address is a user's shipping or billing address. Orders never reference
// addresses directly; they copy the fields into a snapshot at checkout.
type Address struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	AddressType  string    `gorm:"default:shipping" json:"address_type"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Company      string    `json:"company"`
	AddressLine1 string    `json:"address_line_1"`
	AddressLine2 string    `json:"address_line_2"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	PhoneNumber  string    `json:"phone_number"`
	IsDefault    bool      `json:"is_default"`
}

// Snapshot copies the address fields into an order-embeddable JSON blob.
// Later edits to the Address row must never alter a placed order.
func (a *Address) Snapshot() JSONMap {
	return JSONMap{
		"first_name":     a.FirstName,
		"last_name":      a.LastName,
		"company":        a.Company,
		"address_line_1": a.AddressLine1,
		"address_line_2": a.AddressLine2,
		"city":           a.City,
		"state":          a.State,
		"postal_code":    a.PostalCode,
		"country":        a.Country,
		"phone_number":   a.PhoneNumber,
	}
}
