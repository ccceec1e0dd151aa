package model

// UserStatus indicates whether a user can be attached to new transactions.
type UserStatus string

const (
	// UserStatusActive marks a user available for new transactions.
	UserStatusActive UserStatus = "active"
	// UserStatusInactive marks a user retired from use; their transaction
	// history is preserved.
	UserStatusInactive UserStatus = "inactive"
)

// User represents a member of the household or team the ledger tracks.
// Expenses and income reference users by id; a user record does not hold its
// transactions.
type User struct {
	Meta
	Name       string     `json:"name" validate:"required"`
	Email      string     `json:"email" validate:"required,email"`
	Department string     `json:"department"`
	Role       string     `json:"role"`
	Phone      string     `json:"phone,omitempty"`
	Avatar     string     `json:"avatar,omitempty"`
	Status     UserStatus `json:"status" validate:"required,oneof=active inactive"`
}

// IsActive reports whether the user can be attached to new transactions.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
