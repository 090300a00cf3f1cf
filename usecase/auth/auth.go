package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/magnetbrain/backend/domain"
	"github.com/magnetbrain/backend/repository"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// Config carries the token issuance settings.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// UseCase resolves principals: it registers users, verifies credentials
// and issues signed tokens backed by a revocable Redis session.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cfg      Config
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Credentials is the result of a successful register or login.
type Credentials struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register creates a user with role "user" and logs them in.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*Credentials, error) {
	if len(in.Username) < minUsernameLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "username must be at least 3 characters long")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, domain.NewError(domain.ErrCodeInvalid, "please provide a valid email")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		Role:         domain.RoleUser,
		PasswordHash: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return uc.issue(ctx, user)
}

// Login verifies the email/password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Credentials, error) {
	user, err := uc.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredential
	}

	return uc.issue(ctx, user)
}

// Me returns the authenticated user's own record.
func (uc *UseCase) Me(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// ListUsers returns every user summary for assignment pickers. Admin only.
func (uc *UseCase) ListUsers(ctx context.Context, p domain.Principal) ([]domain.UserSummary, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}

// Revoke drops the session backing a token.
func (uc *UseCase) Revoke(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) issue(ctx context.Context, user *domain.User) (*Credentials, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.TokenTTL),
	}
	// Every issued token must have a revocation record, so a session
	// that cannot be persisted fails the login.
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to persist session", err)
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"sid":     session.ID,
		"iss":     uc.cfg.Issuer,
		"iat":     now.Unix(),
		"exp":     session.ExpiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.Secret))
	if err != nil {
		return nil, err
	}

	return &Credentials{Token: token, User: user}, nil
}
