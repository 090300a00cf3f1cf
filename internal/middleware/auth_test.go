package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"

	"github.com/magnetbrain/backend/domain"
)

const testSecret = "test-secret"

type memSessions struct {
	sessions map[string]domain.Session
	failing  bool
}

func (s *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	if s.failing {
		return nil, errors.New("connection refused")
	}
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": "u1",
		"role":    "admin",
		"sid":     "s1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func liveSessions() *memSessions {
	return &memSessions{sessions: map[string]domain.Session{
		"s1": {ID: "s1", UserID: "u1", Role: "admin", ExpiresAt: time.Now().Add(time.Hour)},
	}}
}

func TestJWTAuth(t *testing.T) {
	var forwarded *fasthttp.RequestCtx
	handler := JWTAuth(testSecret, liveSessions(), nil)(func(ctx *fasthttp.RequestCtx) {
		forwarded = ctx
	})

	t.Run("valid token sets identity headers", func(t *testing.T) {
		forwarded = nil
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))

		handler(ctx)

		if forwarded == nil {
			t.Fatal("request was not forwarded")
		}
		if got := string(forwarded.Request.Header.Peek("X-User-ID")); got != "u1" {
			t.Errorf("X-User-ID = %q, want u1", got)
		}
		if got := string(forwarded.Request.Header.Peek("X-User-Role")); got != "admin" {
			t.Errorf("X-User-Role = %q, want admin", got)
		}
		if got := string(forwarded.Request.Header.Peek("X-Session-ID")); got != "s1" {
			t.Errorf("X-Session-ID = %q, want s1", got)
		}
	})

	t.Run("spoofed identity headers are stripped", func(t *testing.T) {
		forwarded = nil
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("X-User-ID", "victim")
		ctx.Request.Header.Set("X-User-Role", "admin")
		ctx.Request.Header.Set("X-Session-ID", "victim-session")
		claims := validClaims()
		claims["role"] = "user"
		ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))

		handler(ctx)

		if forwarded == nil {
			t.Fatal("request was not forwarded")
		}
		if got := string(forwarded.Request.Header.Peek("X-User-ID")); got != "u1" {
			t.Errorf("X-User-ID = %q, spoofed value must not survive", got)
		}
		if got := string(forwarded.Request.Header.Peek("X-User-Role")); got != "user" {
			t.Errorf("X-User-Role = %q, role must come from the token", got)
		}
		if got := string(forwarded.Request.Header.Peek("X-Session-ID")); got != "s1" {
			t.Errorf("X-Session-ID = %q, session id must come from the token", got)
		}
	})

	rejections := []struct {
		name  string
		setup func(ctx *fasthttp.RequestCtx)
	}{
		{
			name:  "missing token",
			setup: func(*fasthttp.RequestCtx) {},
		},
		{
			name: "wrong secret",
			setup: func(ctx *fasthttp.RequestCtx) {
				ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", validClaims()))
			},
		},
		{
			name: "expired token",
			setup: func(ctx *fasthttp.RequestCtx) {
				claims := validClaims()
				claims["exp"] = time.Now().Add(-time.Hour).Unix()
				ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
			},
		},
		{
			name: "missing user_id claim",
			setup: func(ctx *fasthttp.RequestCtx) {
				ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{
					"role": "admin",
					"exp":  time.Now().Add(time.Hour).Unix(),
				}))
			},
		},
		{
			name: "unsigned token",
			setup: func(ctx *fasthttp.RequestCtx) {
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
				if err != nil {
					t.Fatalf("signing token: %v", err)
				}
				ctx.Request.Header.Set("Authorization", "Bearer "+token)
			},
		},
		{
			name: "revoked session",
			setup: func(ctx *fasthttp.RequestCtx) {
				claims := validClaims()
				claims["sid"] = "gone"
				ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
			},
		},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			forwarded = nil
			ctx := &fasthttp.RequestCtx{}
			tt.setup(ctx)

			handler(ctx)

			if forwarded != nil {
				t.Fatal("request must not be forwarded")
			}
			if got := ctx.Response.StatusCode(); got != fasthttp.StatusUnauthorized {
				t.Errorf("status = %d, want 401", got)
			}
		})
	}

	t.Run("bare token without bearer prefix", func(t *testing.T) {
		forwarded = nil
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("Authorization", signToken(t, testSecret, validClaims()))

		handler(ctx)

		if forwarded == nil {
			t.Fatal("request was not forwarded")
		}
	})
}

func TestJWTAuthSessionEdgeCases(t *testing.T) {
	t.Run("expired session record", func(t *testing.T) {
		store := liveSessions()
		expired := store.sessions["s1"]
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		store.sessions["s1"] = expired

		var forwarded bool
		handler := JWTAuth(testSecret, store, nil)(func(*fasthttp.RequestCtx) { forwarded = true })

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
		handler(ctx)

		if forwarded {
			t.Error("expired session must be rejected")
		}
		if got := ctx.Response.StatusCode(); got != fasthttp.StatusUnauthorized {
			t.Errorf("status = %d, want 401", got)
		}
	})

	t.Run("session store outage does not lock users out", func(t *testing.T) {
		var forwarded bool
		handler := JWTAuth(testSecret, &memSessions{failing: true}, nil)(func(*fasthttp.RequestCtx) { forwarded = true })

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
		handler(ctx)

		if !forwarded {
			t.Error("a signed token must still pass when the session store is unreachable")
		}
	})

	t.Run("nil store skips the revocation check", func(t *testing.T) {
		var forwarded bool
		handler := JWTAuth(testSecret, nil, nil)(func(*fasthttp.RequestCtx) { forwarded = true })

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
		handler(ctx)

		if !forwarded {
			t.Error("request must be forwarded without a session store")
		}
	})
}
