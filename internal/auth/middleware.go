package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Kind     domain.SubjectType
	Email    string
	Role     domain.Role
	ExpertID *int64
}

// ProfileLookup resolves profiles by email.
type ProfileLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
}

// ExpertLookup resolves experts by email.
type ExpertLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.Expert, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	profiles ProfileLookup
	experts  ExpertLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, profiles ProfileLookup, experts ExpertLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, profiles: profiles, experts: experts}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{Kind: claims.Kind, Email: claims.Email, Role: claims.Role}

	switch claims.Kind {
	case domain.SubjectTypeProfile:
		profile, err := m.profiles.GetByEmail(c.UserContext(), claims.Email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("profile not found")
			}
			return apperrors.ToDomainError(err)
		}
		// the stored role wins over a stale token
		principal.Role = profile.Role
	case domain.SubjectTypeExpert:
		expert, err := m.experts.GetByEmail(c.UserContext(), claims.Email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("expert not found")
			}
			return apperrors.ToDomainError(err)
		}
		principal.Role = domain.RoleExpert
		principal.ExpertID = &expert.ID
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// WithPrincipal stores p on the request; used by tests and internal callers.
func WithPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RoleFromContext returns the caller's role, or RoleUnknown for anonymous
// requests.
func RoleFromContext(c *fiber.Ctx) domain.Role {
	if p, ok := PrincipalFromContext(c); ok && p.Role != "" {
		return p.Role
	}
	return domain.RoleUnknown
}
