package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AuthHandler manages signup, login and expert registration.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates handler instance.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Signup POST /signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	profile, session, err := h.service.Signup(c.UserContext(), service.ProfileInput{
		Email:    req.Email,
		Name:     req.Name,
		Surname:  req.Surname,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, fiber.Map{
		"profile": dto.NewProfileResponse(profile),
		"auth":    authResponse(session),
	})
}

// Login POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	session, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(c, authResponse(session))
}

// CreateExpert POST /expert.
func (h *AuthHandler) CreateExpert(c *fiber.Ctx) error {
	var req dto.ExpertRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	expert, err := h.service.CreateExpert(c.UserContext(), service.ExpertInput{
		Email:      req.Email,
		Name:       req.Name,
		Surname:    req.Surname,
		Password:   req.Password,
		Expertises: req.Expertises,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewExpertResponse(expert))
}

// Me GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("authentication required")
	}
	identity, err := h.service.Me(c.UserContext(), *p)
	if err != nil {
		return err
	}
	resp := dto.MeResponse{Role: p.Role}
	if identity.Profile != nil {
		profile := dto.NewProfileResponse(identity.Profile)
		resp.Profile = &profile
	}
	if identity.Expert != nil {
		expert := dto.NewExpertResponse(identity.Expert)
		resp.Expert = &expert
	}
	return ok(c, resp)
}

func authResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{Token: s.Token, Role: s.Principal.Role, ExpiresAt: s.ExpiresAt}
}

func equalEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
