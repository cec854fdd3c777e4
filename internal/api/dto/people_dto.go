package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ProfileRequest is used for signup, insert and edit.
type ProfileRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Surname  string      `json:"surname"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// ProfileResponse never exposes the password hash.
type ProfileResponse struct {
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Surname   string      `json:"surname"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

func NewProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{Email: p.Email, Name: p.Name, Surname: p.Surname, Role: p.Role, CreatedAt: p.CreatedAt}
}

// ExpertRequest creates an expert.
type ExpertRequest struct {
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Surname    string   `json:"surname"`
	Password   string   `json:"password"`
	Expertises []string `json:"expertises"`
}

// ExpertResponse is the public view of an expert.
type ExpertResponse struct {
	ID         int64    `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Surname    string   `json:"surname"`
	Expertises []string `json:"expertises"`
}

func NewExpertResponse(e *domain.Expert) ExpertResponse {
	fields := e.Expertises
	if fields == nil {
		fields = []string{}
	}
	return ExpertResponse{ID: e.ID, Email: e.Email, Name: e.Name, Surname: e.Surname, Expertises: fields}
}

// ExpertiseRequest names an expertise field.
type ExpertiseRequest struct {
	Field string `json:"field"`
}

// ExpertiseResponse is one catalogue entry.
type ExpertiseResponse struct {
	ID    int64  `json:"id"`
	Field string `json:"field"`
}

// ProductRequest creates or replaces a product.
type ProductRequest struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
}

// ProductResponse is one catalogue entry keyed by EAN.
type ProductResponse struct {
	ID    string `json:"ean"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// MeResponse describes the caller; exactly one of Profile and Expert is set.
type MeResponse struct {
	Role    domain.Role      `json:"role"`
	Profile *ProfileResponse `json:"profile,omitempty"`
	Expert  *ExpertResponse  `json:"expert,omitempty"`
}
