package category

import (
	"context"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"offers-marketplace/internal/domain"
	"offers-marketplace/internal/repository/pgerr"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const categoryColumns = `id::text, name, slug, COALESCE(description, ''), created_at`

func (r *postgresRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("category repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`
	return r.scanCategory(r.pool.QueryRow(ctx, q, slug))
}

func (r *postgresRepo) CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, slug, description)
VALUES ($1, $2, NULLIF($3, ''))
RETURNING ` + categoryColumns
	return r.scanCategory(r.pool.QueryRow(ctx, q, c.Name, c.Slug, c.Description))
}

func (r *postgresRepo) UpdateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
UPDATE categories
SET name = $2, slug = $3, description = NULLIF($4, '')
WHERE id = $1
RETURNING ` + categoryColumns
	return r.scanCategory(r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Slug, c.Description))
}

// DeleteCategory removes the category; subcategories and offers go with it.
func (r *postgresRepo) DeleteCategory(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("category repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("category repo: deleted id=%s", id)
	return nil
}

const subCategoryColumns = `s.id::text, s.category_id::text, c.name, s.name, s.slug, COALESCE(s.description, ''), s.created_at`

func (r *postgresRepo) ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error) {
	const q = `
SELECT ` + subCategoryColumns + `
FROM subcategories s
JOIN categories c ON c.id = s.category_id
WHERE $1 = '' OR s.category_id::text = $1
ORDER BY s.name ASC
`
	rows, err := r.pool.Query(ctx, q, categoryID)
	if err != nil {
		r.logger.Printf("category repo: list subcategories category_id=%s error=%v", categoryID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.SubCategory
	for rows.Next() {
		var s domain.SubCategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.CategoryName, &s.Name, &s.Slug, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetSubCategoryBySlug(ctx context.Context, slug string) (*domain.SubCategory, error) {
	const q = `
SELECT ` + subCategoryColumns + `
FROM subcategories s
JOIN categories c ON c.id = s.category_id
WHERE s.slug = $1
`
	return r.scanSubCategory(r.pool.QueryRow(ctx, q, slug))
}

func (r *postgresRepo) GetSubCategoryByID(ctx context.Context, id string) (*domain.SubCategory, error) {
	const q = `
SELECT ` + subCategoryColumns + `
FROM subcategories s
JOIN categories c ON c.id = s.category_id
WHERE s.id = $1
`
	return r.scanSubCategory(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) CreateSubCategory(ctx context.Context, s domain.SubCategory) (*domain.SubCategory, error) {
	const q = `
WITH inserted AS (
    INSERT INTO subcategories (category_id, name, slug, description)
    VALUES ($1, $2, $3, NULLIF($4, ''))
    RETURNING *
)
SELECT s.id::text, s.category_id::text, c.name, s.name, s.slug, COALESCE(s.description, ''), s.created_at
FROM inserted s
JOIN categories c ON c.id = s.category_id
`
	return r.scanSubCategory(r.pool.QueryRow(ctx, q, s.CategoryID, s.Name, s.Slug, s.Description))
}

// UpdateSubCategory rewrites every mutable column, including the parent category.
func (r *postgresRepo) UpdateSubCategory(ctx context.Context, s domain.SubCategory) (*domain.SubCategory, error) {
	const q = `
WITH updated AS (
    UPDATE subcategories
    SET category_id = $2, name = $3, slug = $4, description = NULLIF($5, '')
    WHERE id = $1
    RETURNING *
)
SELECT s.id::text, s.category_id::text, c.name, s.name, s.slug, COALESCE(s.description, ''), s.created_at
FROM updated s
JOIN categories c ON c.id = s.category_id
`
	return r.scanSubCategory(r.pool.QueryRow(ctx, q, s.ID, s.CategoryID, s.Name, s.Slug, s.Description))
}

func (r *postgresRepo) DeleteSubCategory(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return r.translate("subcategory", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
		return nil, r.translate("category", err)
	}
	return &c, nil
}

func (r *postgresRepo) scanSubCategory(row pgx.Row) (*domain.SubCategory, error) {
	var s domain.SubCategory
	if err := row.Scan(&s.ID, &s.CategoryID, &s.CategoryName, &s.Name, &s.Slug, &s.Description, &s.CreatedAt); err != nil {
		return nil, r.translate("subcategory", err)
	}
	return &s, nil
}

var constraintFields = map[string]string{
	"categories_name_key":                "name",
	"categories_slug_key":                "slug",
	"subcategories_slug_key":             "slug",
	"subcategories_category_id_name_key": "name",
	"subcategories_category_id_fkey":     "category",
}

func (r *postgresRepo) translate(entity string, err error) error {
	out := pgerr.Translate(err, constraintFields)
	if out == err {
		r.logger.Printf("category repo: %s error=%v", entity, err)
	}
	return out
}
