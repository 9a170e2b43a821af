package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"

	"github.com/google/uuid"
	"github.com/trustgate/platform/internal/auth"
	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles user registration and login.
type AuthService struct {
	db     DB
	users  repository.AuthUserRepository
	jwtMgr *auth.JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(db DB, users repository.AuthUserRepository, jwtMgr *auth.JWTManager) *AuthService {
	return &AuthService{db: db, users: users, jwtMgr: jwtMgr}
}

// RegisterInput holds the registration request fields.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResult is returned on successful registration. The MFA secret is
// disclosed exactly once, at enrollment.
type RegisterResult struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	MFASecret string    `json:"mfa_secret"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// Register creates a new user account with an enrolled MFA secret.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if len(input.Password) < 8 {
		return nil, domain.ErrValidation("password must be at least 8 characters")
	}

	existing, err := s.users.FindByEmail(ctx, s.db, input.Email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	secret, err := newMFASecret()
	if err != nil {
		return nil, domain.ErrInternal("generate mfa secret", err)
	}

	user := &domain.AuthUser{
		ID:           uuid.New(),
		Email:        input.Email,
		Role:         auth.RoleUser,
		PasswordHash: string(hash),
		MFASecret:    secret,
	}
	if err := s.users.Create(ctx, s.db, user); err != nil {
		return nil, domain.ErrInternal("create user", err)
	}

	token, err := s.jwtMgr.GenerateToken(auth.RealmUser, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &RegisterResult{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		MFASecret: secret,
	}, nil
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and returns a JWT for their realm.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, s.db, input.Email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	realm := auth.RealmUser
	if user.Role == auth.RoleAdmin || user.Role == auth.RoleSuperAdmin {
		realm = auth.RealmAdmin
	}

	token, err := s.jwtMgr.GenerateToken(realm, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &LoginResult{
		Token:  token,
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// newMFASecret generates a 160-bit base32 TOTP secret.
func newMFASecret() (string, error) {
	var buf [20]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:]), nil
}
