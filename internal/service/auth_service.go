package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/repairflow/workorder-service/internal/auth"
	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/repository"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// AuthService issues tokens for staff accounts.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// LoginResult carries the issued token and the authenticated account.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login verifies credentials and issues a JWT. Bad username and bad password
// report the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// RegisterInput describes a new staff account.
type RegisterInput struct {
	Name          string
	Username      string
	Password      string
	Role          domain.Role
	Phone         string
	ChannelUserID string
}

// Register creates a staff account. Coordinator only.
func (s *AuthService) Register(ctx context.Context, actor domain.Actor, input RegisterInput) (*domain.User, error) {
	if actor.Role != domain.RoleCoordinator {
		return nil, apperrors.NewAuthorityViolation("only a coordinator may create accounts")
	}
	switch input.Role {
	case domain.RoleCoordinator, domain.RoleTechnician:
	default:
		return nil, apperrors.NewValidationFailure("role must be coordinator or technician", nil)
	}
	if strings.TrimSpace(input.Username) == "" || len(input.Password) < 8 {
		return nil, apperrors.NewValidationFailure("a username and a password of at least 8 characters are required", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user := &domain.User{
		Name:          strings.TrimSpace(input.Name),
		Username:      strings.TrimSpace(input.Username),
		PasswordHash:  hash,
		Role:          input.Role,
		Phone:         strings.TrimSpace(input.Phone),
		ChannelUserID: input.ChannelUserID,
		Active:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
