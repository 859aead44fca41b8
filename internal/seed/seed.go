package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"offers-marketplace/internal/domain"
)

type accountSeed struct {
	Email     string
	Role      domain.Role
	Staff     bool
	Superuser bool
}

type categorySeed struct {
	Name        string
	Slug        string
	Description string
	Subs        []subCategorySeed
}

type subCategorySeed struct {
	Name string
	Slug string
}

type offerSeed struct {
	SubSlug     string
	BrandName   string
	Slug        string
	Description string
	Percent     *int
	Amount      *string
	// Start and End are offsets from the time Apply runs.
	Start, End time.Duration
	Usage      domain.UsageType
	URL        string
}

var accounts = []accountSeed{
	{Email: "admin@example.com", Role: domain.RoleCustomer, Staff: true, Superuser: true},
	{Email: "brand@example.com", Role: domain.RoleBrand},
	{Email: "customer@example.com", Role: domain.RoleCustomer},
}

var categories = []categorySeed{
	{
		Name: "Food & Drink", Slug: "food-drink", Description: "Restaurants, takeaways and groceries",
		Subs: []subCategorySeed{{Name: "Restaurants", Slug: "restaurants"}, {Name: "Groceries", Slug: "groceries"}},
	},
	{
		Name: "Travel", Slug: "travel", Description: "Trains, flights and hotels",
		Subs: []subCategorySeed{{Name: "Hotels", Slug: "hotels"}, {Name: "Rail", Slug: "rail"}},
	},
}

const day = 24 * time.Hour

var offers = []offerSeed{
	{
		SubSlug: "restaurants", BrandName: "Demo Pizza", Slug: "demo-pizza",
		Description: "15% off every pizza", Percent: intPtr(15),
		Start: -7 * day, End: 90 * day, Usage: domain.UsageMulti, URL: "https://pizza.example.com",
	},
	{
		SubSlug: "groceries", BrandName: "Demo Market", Slug: "demo-market",
		Description: "Five off a weekly shop", Amount: strPtr("5.00"),
		Start: -1 * day, End: 30 * day, Usage: domain.UsageSingle, URL: "https://market.example.com",
	},
	{
		SubSlug: "hotels", BrandName: "Demo Stays", Slug: "demo-stays-expired",
		Description: "Last season's hotel deal", Percent: intPtr(20),
		Start: -60 * day, End: -30 * day, Usage: domain.UsageMulti, URL: "https://stays.example.com",
	},
}

// Apply inserts demo accounts, catalog entries and offers for manual testing.
// It is idempotent via ON CONFLICT; account passwords are only set on insert.
func Apply(ctx context.Context, pool *pgxpool.Pool, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	accountIDs := make(map[string]string, len(accounts))
	for _, a := range accounts {
		id, err := upsertAccount(ctx, pool, a, string(hash))
		if err != nil {
			return fmt.Errorf("upsert account %s: %w", a.Email, err)
		}
		accountIDs[a.Email] = id
	}

	subIDs := map[string]string{}
	for _, c := range categories {
		categoryID, err := upsertCategory(ctx, pool, c)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
		for _, s := range c.Subs {
			id, err := upsertSubCategory(ctx, pool, categoryID, s)
			if err != nil {
				return fmt.Errorf("upsert subcategory %s: %w", s.Slug, err)
			}
			subIDs[s.Slug] = id
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	brandID := accountIDs["brand@example.com"]
	for _, o := range offers {
		if err := upsertOffer(ctx, pool, subIDs[o.SubSlug], brandID, now, o); err != nil {
			return fmt.Errorf("upsert offer %s: %w", o.Slug, err)
		}
	}
	return nil
}

func upsertAccount(ctx context.Context, pool *pgxpool.Pool, a accountSeed, hash string) (string, error) {
	const q = `
INSERT INTO accounts (email, password_hash, role, is_staff, is_superuser)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT ((lower(email))) DO UPDATE
SET role = EXCLUDED.role,
    is_staff = EXCLUDED.is_staff,
    is_superuser = EXCLUDED.is_superuser
RETURNING id::text
`
	var id string
	err := pool.QueryRow(ctx, q, a.Email, hash, string(a.Role), a.Staff, a.Superuser).Scan(&id)
	return id, err
}

func upsertCategory(ctx context.Context, pool *pgxpool.Pool, c categorySeed) (string, error) {
	const q = `
INSERT INTO categories (name, slug, description)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description
RETURNING id::text
`
	var id string
	err := pool.QueryRow(ctx, q, c.Name, c.Slug, c.Description).Scan(&id)
	return id, err
}

func upsertSubCategory(ctx context.Context, pool *pgxpool.Pool, categoryID string, s subCategorySeed) (string, error) {
	const q = `
INSERT INTO subcategories (category_id, name, slug)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE
SET category_id = EXCLUDED.category_id,
    name = EXCLUDED.name
RETURNING id::text
`
	var id string
	err := pool.QueryRow(ctx, q, categoryID, s.Name, s.Slug).Scan(&id)
	return id, err
}

func upsertOffer(ctx context.Context, pool *pgxpool.Pool, subID, userID string, now time.Time, o offerSeed) error {
	const q = `
INSERT INTO offers (subcategory_id, user_id, brand_name, slug, description, discount_percent,
                    discount_amount, start_date, end_date, usage_type, retailer_url)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11)
ON CONFLICT (slug) DO UPDATE
SET subcategory_id = EXCLUDED.subcategory_id,
    user_id = EXCLUDED.user_id,
    brand_name = EXCLUDED.brand_name,
    description = EXCLUDED.description,
    discount_percent = EXCLUDED.discount_percent,
    discount_amount = EXCLUDED.discount_amount,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    usage_type = EXCLUDED.usage_type,
    retailer_url = EXCLUDED.retailer_url
`
	_, err := pool.Exec(ctx, q, subID, userID, o.BrandName, o.Slug, o.Description, o.Percent, o.Amount,
		now.Add(o.Start), now.Add(o.End), string(o.Usage), o.URL)
	return err
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
