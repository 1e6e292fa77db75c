package models

// User roles.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// User represents an authenticated account: customer, seller or admin.
type User struct {
	BaseModel
	Email        string    `gorm:"uniqueIndex" json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `gorm:"default:customer" json:"role"`
	IsVerified   bool      `json:"is_verified"`
	Addresses    []Address `json:"addresses,omitempty"`
	Orders       []Order   `json:"orders,omitempty"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsSeller reports whether the user may manage products.
func (u *User) IsSeller() bool {
	return u.Role == RoleSeller || u.Role == RoleAdmin
}

// IsAdmin reports whether the user has admin capabilities.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
