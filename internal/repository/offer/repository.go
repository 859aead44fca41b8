package offer

import (
	"context"
	"time"

	"offers-marketplace/internal/domain"
)

// Match selects which columns a text search runs against.
type Match int

const (
	// MatchOfferText matches brand name, slug or description.
	MatchOfferText Match = iota
	// MatchCategoryName matches offers whose category name matches.
	MatchCategoryName
	// MatchSubCategoryName matches offers whose subcategory name matches.
	MatchSubCategoryName
)

// ListFilter narrows a listing. Zero values mean "no restriction".
type ListFilter struct {
	OwnerID        string
	SubCategoryIDs []string
	// ValidAt keeps only offers that are active with ValidAt inside their window.
	ValidAt         *time.Time
	IsActive        *bool
	UsageType       domain.UsageType
	CategorySlug    string
	SubCategorySlug string
	// Text matches brand name or description as a literal substring.
	Text   string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, o domain.Offer) (*domain.Offer, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Offer, error)
	List(ctx context.Context, f ListFilter) ([]domain.Offer, int, error)
	Update(ctx context.Context, o domain.Offer) (*domain.Offer, error)
	Delete(ctx context.Context, id string) error
	// Search returns offers where the selected columns contain query,
	// compared case-insensitively as a literal substring.
	Search(ctx context.Context, m Match, query string) ([]domain.Offer, error)
}
