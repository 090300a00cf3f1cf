package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/magnetbrain/backend/api/transport"
	"github.com/magnetbrain/backend/domain"
	authUC "github.com/magnetbrain/backend/usecase/auth"
)

type stubUserRepo struct{}

func (stubUserRepo) GetByID(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (stubUserRepo) Create(context.Context, *domain.User) error { return nil }

func (stubUserRepo) List(context.Context) ([]domain.User, error) { return nil, nil }

func (stubUserRepo) Summaries(context.Context, []string) (map[string]domain.UserSummary, error) {
	return map[string]domain.UserSummary{}, nil
}

type stubSessionRepo struct {
	sessions map[string]domain.Session
}

func (r *stubSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *stubSessionRepo) Save(_ context.Context, session *domain.Session) error {
	r.sessions[session.ID] = *session
	return nil
}

func (r *stubSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func newLogoutFixture() (*AuthHandler, *stubSessionRepo) {
	sessions := &stubSessionRepo{sessions: map[string]domain.Session{
		"s1": {ID: "s1", UserID: "u1", Role: domain.RoleUser, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	uc := authUC.New(stubUserRepo{}, sessions, authUC.Config{
		Secret:   "test-secret",
		Issuer:   "magnetbrain",
		TokenTTL: time.Hour,
	}, nil)
	return NewAuthHandler(uc, nil, nil), sessions
}

func TestLogout(t *testing.T) {
	t.Run("revokes the current session", func(t *testing.T) {
		h, sessions := newLogoutFixture()

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("X-User-ID", "u1")
		ctx.Request.Header.Set("X-Session-ID", "s1")
		h.Logout(ctx)

		if got := ctx.Response.StatusCode(); got != http.StatusOK {
			t.Fatalf("status = %d, want 200", got)
		}
		if _, ok := sessions.sessions["s1"]; ok {
			t.Error("session must be removed after logout")
		}

		var envelope transport.Envelope
		if err := json.Unmarshal(ctx.Response.Body(), &envelope); err != nil {
			t.Fatalf("response is not an envelope: %v", err)
		}
		if envelope.Status != "success" {
			t.Errorf("envelope status = %q, want success", envelope.Status)
		}
	})

	t.Run("without a session id still succeeds", func(t *testing.T) {
		h, sessions := newLogoutFixture()

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("X-User-ID", "u1")
		h.Logout(ctx)

		if got := ctx.Response.StatusCode(); got != http.StatusOK {
			t.Errorf("status = %d, want 200", got)
		}
		if len(sessions.sessions) != 1 {
			t.Error("other sessions must not be touched")
		}
	})

	t.Run("unauthenticated request is a 401", func(t *testing.T) {
		h, sessions := newLogoutFixture()

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("X-Session-ID", "s1")
		h.Logout(ctx)

		if got := ctx.Response.StatusCode(); got != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", got)
		}
		if _, ok := sessions.sessions["s1"]; !ok {
			t.Error("session must survive an unauthenticated logout attempt")
		}
	})
}
