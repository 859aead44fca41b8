package category

import (
	"context"

	"offers-marketplace/internal/domain"
)

type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// ListSubCategories returns subcategories of categoryID, or of every
	// category when categoryID is empty.
	ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error)
	GetSubCategoryBySlug(ctx context.Context, slug string) (*domain.SubCategory, error)
	GetSubCategoryByID(ctx context.Context, id string) (*domain.SubCategory, error)
	CreateSubCategory(ctx context.Context, s domain.SubCategory) (*domain.SubCategory, error)
	UpdateSubCategory(ctx context.Context, s domain.SubCategory) (*domain.SubCategory, error)
	DeleteSubCategory(ctx context.Context, id string) error
}
