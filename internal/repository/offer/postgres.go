package offer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

var constraintFields = map[string]string{
	"offers_slug_key":            "slug",
	"offers_subcategory_id_fkey": "subcategory",
	"offers_user_id_fkey":        "user",
}

const offerFrom = `
FROM offers o
JOIN subcategories s ON s.id = o.subcategory_id
JOIN categories c ON c.id = s.category_id
JOIN accounts a ON a.id = o.user_id
`

const offerSelect = `
SELECT o.id::text, o.subcategory_id::text, s.name, o.user_id::text, a.email,
       o.brand_name, o.slug, COALESCE(o.description, ''),
       o.discount_percent, o.discount_amount::text,
       o.start_date, o.end_date, o.usage_type, o.is_active, o.max_uses,
       o.minimum_purchase::text, o.retailer_url, o.created_at` + offerFrom

const defaultOrder = ` ORDER BY o.brand_name ASC, o.id ASC`

func (r *postgresRepo) Create(ctx context.Context, o domain.Offer) (*domain.Offer, error) {
	const q = `
INSERT INTO offers (
    subcategory_id, user_id, brand_name, slug, description, discount_percent, discount_amount,
    start_date, end_date, usage_type, is_active, max_uses, minimum_purchase, retailer_url
) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7::numeric, $8, $9, $10, $11, $12, $13::numeric, $14)
RETURNING id::text
`
	var id string
	err := r.pool.QueryRow(ctx, q,
		o.SubCategoryID, o.UserID, o.BrandName, o.Slug, o.Description,
		o.DiscountPercent, decimalArg(o.DiscountAmount),
		o.StartDate, o.EndDate, string(o.UsageType), o.IsActive, o.MaxUses,
		decimalArg(o.MinimumPurchase), o.RetailerURL,
	).Scan(&id)
	if err != nil {
		return nil, r.translate("create slug="+o.Slug, err)
	}
	r.logger.Printf("offer repo: created id=%s slug=%s user_id=%s", id, o.Slug, o.UserID)
	return r.getOne(ctx, `WHERE o.id = $1`, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Offer, error) {
	return r.getOne(ctx, `WHERE o.slug = $1`, slug)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Offer, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.OwnerID != "" {
		add("o.user_id = $%d", f.OwnerID)
	}
	if len(f.SubCategoryIDs) > 0 {
		add("o.subcategory_id::text = ANY($%d)", f.SubCategoryIDs)
	}
	if f.ValidAt != nil {
		add("o.is_active AND o.start_date <= $%[1]d AND o.end_date >= $%[1]d", *f.ValidAt)
	}
	if f.IsActive != nil {
		add("o.is_active = $%d", *f.IsActive)
	}
	if f.UsageType != "" {
		add("o.usage_type = $%d", string(f.UsageType))
	}
	if f.CategorySlug != "" {
		add("c.slug = $%d", f.CategorySlug)
	}
	if f.SubCategorySlug != "" {
		add("s.slug = $%d", f.SubCategorySlug)
	}
	if strings.TrimSpace(f.Text) != "" {
		add(`(o.brand_name ILIKE $%[1]d OR COALESCE(o.description, '') ILIKE $%[1]d)`, containsPattern(strings.TrimSpace(f.Text)))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQ := `SELECT count(*)` + offerFrom + clause
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, r.translate("count", err)
	}

	q := offerSelect + clause + defaultOrder
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	offers, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

func (r *postgresRepo) Update(ctx context.Context, o domain.Offer) (*domain.Offer, error) {
	const q = `
UPDATE offers SET
    subcategory_id = $2, user_id = $3, brand_name = $4, slug = $5, description = NULLIF($6, ''),
    discount_percent = $7, discount_amount = $8::numeric, start_date = $9, end_date = $10,
    usage_type = $11, is_active = $12, max_uses = $13, minimum_purchase = $14::numeric,
    retailer_url = $15
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q,
		o.ID, o.SubCategoryID, o.UserID, o.BrandName, o.Slug, o.Description,
		o.DiscountPercent, decimalArg(o.DiscountAmount), o.StartDate, o.EndDate,
		string(o.UsageType), o.IsActive, o.MaxUses, decimalArg(o.MinimumPurchase),
		o.RetailerURL,
	)
	if err != nil {
		return nil, r.translate("update id="+o.ID, err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, `WHERE o.id = $1`, o.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return r.translate("delete id="+id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("offer repo: deleted id=%s", id)
	return nil
}

func (r *postgresRepo) Search(ctx context.Context, m Match, query string) ([]domain.Offer, error) {
	var cond string
	switch m {
	case MatchOfferText:
		cond = `o.brand_name ILIKE $1 OR o.slug ILIKE $1 OR COALESCE(o.description, '') ILIKE $1`
	case MatchCategoryName:
		cond = `c.name ILIKE $1`
	case MatchSubCategoryName:
		cond = `s.name ILIKE $1`
	default:
		return nil, fmt.Errorf("offer repo: unknown match %d", m)
	}
	return r.query(ctx, offerSelect+`WHERE `+cond+defaultOrder, containsPattern(query))
}

func (r *postgresRepo) getOne(ctx context.Context, where string, arg any) (*domain.Offer, error) {
	o, err := scanOffer(r.pool.QueryRow(ctx, offerSelect+where, arg))
	if err != nil {
		return nil, r.translate("get", err)
	}
	return o, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.Offer, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, r.translate("query", err)
	}
	defer rows.Close()

	var result []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, r.translate("scan", err)
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, r.translate("rows", err)
	}
	return result, nil
}

func (r *postgresRepo) translate(op string, err error) error {
	out := pgerr.Translate(err, constraintFields)
	if out == err {
		r.logger.Printf("offer repo: %s error=%v", op, err)
	}
	return out
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var (
		o                   domain.Offer
		usage               string
		amount, minPurchase *string
	)
	err := row.Scan(
		&o.ID, &o.SubCategoryID, &o.SubCategoryName, &o.UserID, &o.UserEmail,
		&o.BrandName, &o.Slug, &o.Description,
		&o.DiscountPercent, &amount,
		&o.StartDate, &o.EndDate, &usage, &o.IsActive, &o.MaxUses,
		&minPurchase, &o.RetailerURL, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.UsageType = domain.UsageType(usage)
	if o.DiscountAmount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if o.MinimumPurchase, err = parseDecimal(minPurchase); err != nil {
		return nil, err
	}
	return &o, nil
}

// Numerics travel as text so no precision is lost on either side. Scale is
// checked by Offer.Validate; the column would otherwise round silently.
func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return &d, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
