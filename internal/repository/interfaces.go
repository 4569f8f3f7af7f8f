package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/civicworks/civicconnect/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PostFilter narrows List results. Nil fields are ignored; PublicOnly
// additionally hides private posts regardless of the other fields.
type PostFilter struct {
	Status     *string
	Category   *string
	Author     *uuid.UUID
	PublicOnly bool
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, filter PostFilter, page, limit int) ([]domain.Post, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Set toggles: add the user if absent, remove if present, in a single
	// atomic storage operation. The returned bool is the final presence.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	ToggleUpvote(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	AddComment(ctx context.Context, comment *domain.Comment) error
}

type RevokedTokenRepository interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
