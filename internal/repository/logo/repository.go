package logo

import (
	"context"

	"offers-marketplace/internal/domain"
)

type Repository interface {
	// Get returns ErrNotFound until a logo has been uploaded.
	Get(ctx context.Context) (*domain.Logo, error)
	// Replace stores l as the only logo and returns the one it displaced, if any.
	Replace(ctx context.Context, l domain.Logo) (current *domain.Logo, previous *domain.Logo, err error)
}
