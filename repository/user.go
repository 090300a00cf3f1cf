package repository

import (
	"context"

	"github.com/magnetbrain/backend/domain"
)

// UserRepository is the persistence contract for users. Summaries is the
// read-time join used to decorate task responses with assignee and
// creator details; unknown ids are simply absent from the result.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	Summaries(ctx context.Context, ids []string) (map[string]domain.UserSummary, error)
}
