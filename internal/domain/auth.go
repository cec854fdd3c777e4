package domain

import "time"

// SubjectType differentiates profile vs expert tokens.
type SubjectType string

const (
	SubjectTypeProfile SubjectType = "PROFILE"
	SubjectTypeExpert  SubjectType = "EXPERT"
)

// Role is the authorization role carried by a token. It is also recorded on
// every ticket status entry as the author marker.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleManager  Role = "MANAGER"
	RoleExpert   Role = "EXPERT"

	// RoleUnknown marks status entries written without an authenticated caller.
	RoleUnknown Role = "unknown"
)

// Token represents issued access token metadata.
type Token struct {
	Subject   SubjectType
	SubjectID string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}
