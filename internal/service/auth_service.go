package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AuthService coordinates signup and login flows.
type AuthService struct {
	profiles   repository.ProfileRepository
	experts    repository.ExpertRepository
	profileSvc *ProfileService
	expertSvc  *ExpertService
	tokenMgr   *auth.TokenManager
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	ProfileRepo    repository.ProfileRepository
	ExpertRepo     repository.ExpertRepository
	ProfileService *ProfileService
	ExpertService  *ExpertService
	TokenManager   *auth.TokenManager
}

// Session is the outcome of a successful signup or login.
type Session struct {
	Principal auth.Principal
	Token     string
	ExpiresAt time.Time
}

// Identity is the profile or expert behind a principal.
type Identity struct {
	Profile *domain.Profile
	Expert  *domain.Expert
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	return &AuthService{
		profiles:   deps.ProfileRepo,
		experts:    deps.ExpertRepo,
		profileSvc: deps.ProfileService,
		expertSvc:  deps.ExpertService,
		tokenMgr:   tokens,
	}
}

// Signup registers a customer profile and logs it in.
func (s *AuthService) Signup(ctx context.Context, input ProfileInput) (*domain.Profile, *Session, error) {
	if input.Password == "" {
		return nil, nil, apperrors.NewValidationError("password is required", nil)
	}
	input.Role = domain.RoleCustomer
	profile, err := s.profileSvc.Insert(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.issue(auth.Principal{Kind: domain.SubjectTypeProfile, Email: profile.Email, Role: profile.Role})
	if err != nil {
		return nil, nil, err
	}
	return profile, session, nil
}

// Login checks profile credentials first and expert credentials second.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	invalid := apperrors.NewUnauthorized("invalid credentials")

	profile, err := s.profiles.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if profile.PasswordHash == "" || auth.ComparePassword(profile.PasswordHash, password) != nil {
			return nil, invalid
		}
		return s.issue(auth.Principal{Kind: domain.SubjectTypeProfile, Email: profile.Email, Role: profile.Role})
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	expert, err := s.experts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid
		}
		return nil, err
	}
	if auth.ComparePassword(expert.PasswordHash, password) != nil {
		return nil, invalid
	}
	expertID := expert.ID
	return s.issue(auth.Principal{Kind: domain.SubjectTypeExpert, Email: expert.Email, Role: domain.RoleExpert, ExpertID: &expertID})
}

// CreateExpert registers an expert account.
func (s *AuthService) CreateExpert(ctx context.Context, input ExpertInput) (*domain.Expert, error) {
	return s.expertSvc.Insert(ctx, input)
}

// Me resolves the principal to its stored record.
func (s *AuthService) Me(ctx context.Context, p auth.Principal) (*Identity, error) {
	switch p.Kind {
	case domain.SubjectTypeExpert:
		expert, err := s.expertSvc.GetByEmail(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		return &Identity{Expert: expert}, nil
	default:
		profile, err := s.profileSvc.Get(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		return &Identity{Profile: profile}, nil
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(p auth.Principal) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(p)
	if err != nil {
		return nil, err
	}
	return &Session{Principal: p, Token: token, ExpiresAt: exp}, nil
}
