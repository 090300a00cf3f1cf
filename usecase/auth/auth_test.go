package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/magnetbrain/backend/domain"
)

type memUserRepo struct {
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	var users []domain.User
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *memUserRepo) Summaries(_ context.Context, ids []string) (map[string]domain.UserSummary, error) {
	out := make(map[string]domain.UserSummary)
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out[id] = user.Summary()
		}
	}
	return out, nil
}

type memSessionRepo struct {
	sessions map[string]domain.Session
	failing  bool
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *memSessionRepo) Save(_ context.Context, session *domain.Session) error {
	if r.failing {
		return errors.New("connection refused")
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

const testSecret = "test-secret"

func newTestUseCase() (*UseCase, *memUserRepo, *memSessionRepo) {
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	uc := New(users, sessions, Config{
		Secret:   testSecret,
		Issuer:   "magnetbrain",
		TokenTTL: time.Hour,
	}, nil)
	return uc, users, sessions
}

func TestRegisterValidation(t *testing.T) {
	uc, _, _ := newTestUseCase()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@b.com", Password: "secret1"}},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: "secret1"}},
		{"short password", RegisterInput{Username: "alice", Email: "a@b.com", Password: "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), tt.input)
			if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Errorf("Register() error = %v, want INVALID", err)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	uc, users, sessions := newTestUseCase()

	creds, err := uc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.COM",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if creds.User.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased", creds.User.Email)
	}
	if creds.User.Role != domain.RoleUser {
		t.Errorf("Role = %q, every registration starts as user", creds.User.Role)
	}
	if creds.User.PasswordHash == "secret1" || creds.User.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.User.PasswordHash), []byte("secret1")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
	if len(sessions.sessions) != 1 {
		t.Errorf("sessions = %d, want one per issued token", len(sessions.sessions))
	}

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := uc.Register(context.Background(), RegisterInput{
			Username: "alice2",
			Email:    "alice@example.com",
			Password: "secret2",
		})
		if !domain.IsDomainError(err, domain.ErrCodeConflict) {
			t.Errorf("got %v, want CONFLICT", err)
		}
	})

	t.Run("login with original casing", func(t *testing.T) {
		creds, err := uc.Login(context.Background(), "ALICE@example.com", "secret1")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if creds.Token == "" {
			t.Error("login must issue a token")
		}
	})

	t.Run("me", func(t *testing.T) {
		me, err := uc.Me(context.Background(), creds.User.ID)
		if err != nil {
			t.Fatalf("Me() error = %v", err)
		}
		if me.Username != "alice" {
			t.Errorf("Username = %q, want alice", me.Username)
		}
	})
	_ = users
}

func TestIssueRequiresSessionPersistence(t *testing.T) {
	// A token whose session was never stored could not be revoked, so
	// issuance fails when the session store does.
	uc, _, sessions := newTestUseCase()

	if _, err := uc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@b.com", Password: "secret1",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	sessions.failing = true
	if _, err := uc.Login(context.Background(), "a@b.com", "secret1"); !domain.IsDomainError(err, domain.ErrCodeInternal) {
		t.Errorf("login with a dead session store: got %v, want INTERNAL", err)
	}
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	uc, _, _ := newTestUseCase()

	if _, err := uc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@b.com", Password: "secret1",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, unknownErr := uc.Login(context.Background(), "nobody@b.com", "secret1")
	_, wrongErr := uc.Login(context.Background(), "a@b.com", "wrong-password")

	for name, err := range map[string]error{"unknown email": unknownErr, "wrong password": wrongErr} {
		if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			t.Errorf("%s: got %v, want UNAUTHORIZED", name, err)
		}
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("failure modes must be indistinguishable: %q vs %q", unknownErr, wrongErr)
	}
}

func TestTokenClaims(t *testing.T) {
	uc, _, sessions := newTestUseCase()

	creds, err := uc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@b.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(creds.Token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			t.Fatalf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not parse: %v", err)
	}

	if claims["user_id"] != creds.User.ID {
		t.Errorf("user_id claim = %v, want %q", claims["user_id"], creds.User.ID)
	}
	if claims["role"] != domain.RoleUser {
		t.Errorf("role claim = %v, want user", claims["role"])
	}
	if claims["iss"] != "magnetbrain" {
		t.Errorf("iss claim = %v", claims["iss"])
	}

	sid, _ := claims["sid"].(string)
	if _, err := sessions.Get(context.Background(), sid); err != nil {
		t.Errorf("sid claim must reference a stored session: %v", err)
	}

	t.Run("revoke drops the session", func(t *testing.T) {
		if err := uc.Revoke(context.Background(), sid); err != nil {
			t.Fatalf("Revoke() error = %v", err)
		}
		if _, err := sessions.Get(context.Background(), sid); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			t.Errorf("got %v, want NOT_FOUND after revocation", err)
		}
	})
}

func TestListUsers(t *testing.T) {
	uc, users, _ := newTestUseCase()

	for _, name := range []string{"alice", "bob"} {
		if _, err := uc.Register(context.Background(), RegisterInput{
			Username: name, Email: name + "@example.com", Password: "secret1",
		}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	t.Run("non-admin denied", func(t *testing.T) {
		_, err := uc.ListUsers(context.Background(), domain.Principal{ID: "u1", Role: domain.RoleUser})
		if !domain.IsDomainError(err, domain.ErrCodeForbidden) {
			t.Errorf("got %v, want FORBIDDEN", err)
		}
	})

	t.Run("admin sees summaries only", func(t *testing.T) {
		summaries, err := uc.ListUsers(context.Background(), domain.Principal{ID: "root", Role: domain.RoleAdmin})
		if err != nil {
			t.Fatalf("ListUsers() error = %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("len = %d, want 2", len(summaries))
		}
		names := make([]string, 0, len(summaries))
		for _, s := range summaries {
			if s.ID == "" || s.Username == "" || s.Email == "" {
				t.Errorf("incomplete summary %+v", s)
			}
			names = append(names, s.Username)
		}
		joined := strings.Join(names, ",")
		if !strings.Contains(joined, "alice") || !strings.Contains(joined, "bob") {
			t.Errorf("summaries = %v, want both registered users", names)
		}
	})
	_ = users
}
