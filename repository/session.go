package repository

import (
	"context"

	"github.com/magnetbrain/backend/domain"
)

// SessionRepository stores the revocation record behind each issued
// token. Get backs the per-request liveness check; Delete revokes.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
}
