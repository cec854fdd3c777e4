package domain

import "time"

// Expert models a support agent eligible for ticket assignment.
type Expert struct {
	ID           int64
	Email        string
	Name         string
	Surname      string
	PasswordHash string
	Expertises   []string
	CreatedAt    time.Time
}

// HasExpertise reports whether the expert covers field.
func (e *Expert) HasExpertise(field string) bool {
	for _, f := range e.Expertises {
		if f == field {
			return true
		}
	}
	return false
}

// Expertise is a support category such as COMPUTER or APPLIANCES.
type Expertise struct {
	ID    int64
	Field string
}

// Product is a catalogue entry tickets refer to, keyed by EAN.
type Product struct {
	ID    string
	Name  string
	Brand string
}
