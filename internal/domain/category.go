package domain

import "time"

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SubCategory struct {
	ID           string    `json:"id"`
	CategoryID   string    `json:"category"`
	CategoryName string    `json:"categoryName,omitempty"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CategoryTree is a category with its subcategories and their offers.
type CategoryTree struct {
	Category
	SubCategories []SubCategoryTree `json:"subcategories"`
}

type SubCategoryTree struct {
	SubCategory
	Offers []Offer `json:"offers"`
}
