package domain

import "time"

// Profile is a customer or manager account, keyed by email.
type Profile struct {
	Email        string
	Name         string
	Surname      string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
