package profile

import (
	"context"

	"offers-marketplace/internal/domain"
)

// ListFilter narrows an operator listing. Zero values mean "no restriction".
type ListFilter struct {
	EmploymentStatus string
	Employer         string
	Subscribed       *bool
	// Email matches the account email as a case-insensitive substring.
	Email  string
	Limit  int
	Offset int
}

type Repository interface {
	// Create fails with a ConflictError on "user" when the account already has a profile.
	Create(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	SetSubscription(ctx context.Context, userID string, subscribed bool) (*domain.Profile, error)
	// List returns matching profiles with UserEmail set, newest first, and the unpaged total.
	List(ctx context.Context, f ListFilter) ([]domain.Profile, int, error)
}
