package handler

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/magnetbrain/backend/domain"
	taskUC "github.com/magnetbrain/backend/usecase/task"
)

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339",
			value: "2025-06-15T10:30:00Z",
			want:  time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "bare date",
			value: "2025-06-15",
			want:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{name: "empty", value: "", wantErr: true},
		{name: "garbage", value: "next tuesday", wantErr: true},
		{name: "us format", value: "06/15/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDueDate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDueDate(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
					t.Errorf("parse failures must carry ErrCodeInvalid, got %v", err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDueDate(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestListQueryFromRequest(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.QueryArgs().Set("page", "3")
	ctx.QueryArgs().Set("limit", "25")
	ctx.QueryArgs().Set("status", "pending")
	ctx.QueryArgs().Set("priority", "high")
	ctx.QueryArgs().Set("assigned_to", "u1")

	got := listQuery(ctx)
	want := taskUC.ListQuery{Page: 3, Limit: 25, Status: "pending", Priority: "high", AssignedTo: "u1"}
	if got != want {
		t.Errorf("listQuery() = %+v, want %+v", got, want)
	}

	t.Run("defaults", func(t *testing.T) {
		got := listQuery(&fasthttp.RequestCtx{})
		if got.Page != 1 || got.Limit != 0 {
			t.Errorf("listQuery() defaults = %+v, want page 1 and unset limit", got)
		}
	})

	t.Run("non-numeric values fall back", func(t *testing.T) {
		ctx := &fasthttp.RequestCtx{}
		ctx.QueryArgs().Set("page", "first")
		ctx.QueryArgs().Set("limit", "lots")
		got := listQuery(ctx)
		if got.Page != 1 || got.Limit != 0 {
			t.Errorf("listQuery() = %+v, want fallbacks", got)
		}
	})
}

func TestParseInt(t *testing.T) {
	if got := parseInt("42", 0); got != 42 {
		t.Errorf("parseInt(42) = %d", got)
	}
	if got := parseInt("", 7); got != 7 {
		t.Errorf("parseInt(empty) = %d, want fallback", got)
	}
	if got := parseInt("abc", 7); got != 7 {
		t.Errorf("parseInt(abc) = %d, want fallback", got)
	}
}
