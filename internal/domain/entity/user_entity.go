package entity

import (
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field
//
// Each user lives at exactly one Address; an Address may be shared.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Password  string
	AddressID string
	Address   *Address
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cep returns the postal code of the linked address, or "" when unlinked.
func (u *User) Cep() string {
	if u.Address == nil {
		return ""
	}
	return u.Address.Cep
}

// CityName returns the name of the linked city, or "" when unlinked.
func (u *User) CityName() string {
	if u.Address == nil || u.Address.City == nil {
		return ""
	}
	return u.Address.City.Name
}

// StateName returns the name of the linked state, or "" when unlinked.
func (u *User) StateName() string {
	if u.Address == nil || u.Address.City == nil || u.Address.City.State == nil {
		return ""
	}
	return u.Address.City.State.Name
}
