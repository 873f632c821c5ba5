package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the credential store the auth service depends on.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type LoginResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

const userCacheTTL = time.Minute

type AuthService struct {
	users      UserStore
	tokens     *TokenService
	bcryptCost int
	userCache  *gocache.Cache

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users UserStore, tokens *TokenService) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		userCache:  gocache.New(userCacheTTL, 5*time.Minute),
	}
}

// WithBcryptCost overrides the hashing cost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.PublicUser, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, models.NewValidationError("name, email and password are required")
	}
	if len(password) > 72 {
		return nil, models.NewValidationError("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Name: name, Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, models.NewConflictError("Email already registered")
		}
		return nil, models.NewInternalError(err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	pub := user.Public()
	return &pub, nil
}

// Login fails with the same InvalidCredentials error for an unknown email
// and a wrong password. Unknown emails still pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, models.NewInvalidCredentialsError()
	case err != nil:
		return nil, models.NewInternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewInvalidCredentialsError()
	}
	return s.issueFor(user)
}

// Verify resolves a bearer token to the bound user.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.PublicUser, error) {
	if strings.TrimSpace(token) == "" {
		return nil, models.NewUnauthorizedError("Missing token")
	}
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, &models.AppError{Code: models.CodeUnauthorized, Message: tokenErrorMessage(err), Err: err}
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("User no longer exists")
		}
		return nil, err
	}
	return user, nil
}

// GetUser looks a user up by id, memoizing hits for a short while.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.PublicUser, error) {
	key := id.String()
	if cached, ok := s.userCache.Get(key); ok {
		pub := cached.(models.PublicUser)
		return &pub, nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	pub := user.Public()
	s.userCache.SetDefault(key, pub)
	return &pub, nil
}

// LoginWithGoogle finds or creates the user for a verified Google profile.
// Created accounts get an unusable random password.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile GoogleProfile) (*LoginResult, error) {
	email := normalizeEmail(profile.Email)
	if email == "" || !profile.VerifiedEmail {
		return nil, models.NewUnauthorizedError("Google account has no verified email")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return s.issueFor(user)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, models.NewInternalError(err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = email
	}
	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{Name: name, Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, models.NewInternalError(err)
		}
		// Lost a race with a concurrent first login.
		if user, err = s.users.GetByEmail(ctx, email); err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	slog.InfoContext(ctx, "user signed in with google", "user_id", user.ID)
	return s.issueFor(user)
}

func (s *AuthService) issueFor(user *models.User) (*LoginResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, User: user.Public()}, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "Invalid token signature"
	default:
		return "Malformed token"
	}
}
