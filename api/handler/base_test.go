package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/magnetbrain/backend/api/transport"
	"github.com/magnetbrain/backend/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid credential", domain.ErrInvalidCredential, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", domain.ErrAccessDenied, http.StatusForbidden, "FORBIDDEN"},
		{"invalid id", domain.ErrInvalidTaskID, http.StatusBadRequest, "INVALID"},
		{"validation", domain.NewError(domain.ErrCodeInvalid, "title is required"), http.StatusBadRequest, "INVALID"},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict, "CONFLICT"},
		{"wrapped not found", domain.WrapError(domain.ErrCodeNotFound, "lookup failed", errors.New("no rows")), http.StatusNotFound, "NOT_FOUND"},
		{"plain error", errors.New("pool exhausted"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := mapError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("mapError() = (%d, %q), want (%d, %q)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestPrincipalFromHeaders(t *testing.T) {
	h := newBaseHandler(nil, nil)

	t.Run("both headers present", func(t *testing.T) {
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("X-User-ID", "u1")
		ctx.Request.Header.Set("X-User-Role", domain.RoleAdmin)

		p, ok := h.principal(ctx)
		if !ok {
			t.Fatal("principal() rejected a well-formed identity")
		}
		if p.ID != "u1" || p.Role != domain.RoleAdmin {
			t.Errorf("principal = %+v", p)
		}
	})

	t.Run("missing role defaults to user", func(t *testing.T) {
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set("X-User-ID", "u1")

		p, ok := h.principal(ctx)
		if !ok {
			t.Fatal("principal() rejected an identity without a role")
		}
		if p.Role != domain.RoleUser {
			t.Errorf("Role = %q, want the non-privileged default", p.Role)
		}
	})

	t.Run("missing id is a 401", func(t *testing.T) {
		ctx := &fasthttp.RequestCtx{}

		if _, ok := h.principal(ctx); ok {
			t.Fatal("principal() accepted a request without an identity")
		}
		if got := ctx.Response.StatusCode(); got != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", got)
		}

		var envelope transport.Envelope
		if err := json.Unmarshal(ctx.Response.Body(), &envelope); err != nil {
			t.Fatalf("response is not an envelope: %v", err)
		}
		if envelope.Status != "error" {
			t.Errorf("envelope status = %q, want error", envelope.Status)
		}
	})
}

func TestRespondError(t *testing.T) {
	h := newBaseHandler(nil, nil)
	ctx := &fasthttp.RequestCtx{}

	h.respondError(ctx, domain.ErrTaskNotFound)

	if got := ctx.Response.StatusCode(); got != http.StatusNotFound {
		t.Errorf("status = %d, want 404", got)
	}
	var envelope transport.Envelope
	if err := json.Unmarshal(ctx.Response.Body(), &envelope); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	if envelope.Code != "NOT_FOUND" {
		t.Errorf("envelope code = %q, want NOT_FOUND", envelope.Code)
	}
}
