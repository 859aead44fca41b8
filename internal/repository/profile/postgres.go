package profile

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

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

var constraintFields = map[string]string{
	"profiles_user_id_key":  "user",
	"profiles_user_id_fkey": "user",
}

const profileColumns = `
id::text, user_id::text, first_name, last_name, employment_status, job_details, employer,
id_card_front, id_card_back, address_line1, address_line2, city, country, postcode,
subscription_status, created_at`

func (r *postgresRepo) Create(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	const q = `
INSERT INTO profiles (
    user_id, first_name, last_name, employment_status, job_details, employer,
    id_card_front, id_card_back, address_line1, address_line2, city, country, postcode
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + profileColumns
	out, err := r.scan(r.pool.QueryRow(ctx, q,
		p.UserID, p.FirstName, p.LastName, p.EmploymentStatus, p.JobDetails, p.Employer,
		p.IDCardFrontKey, p.IDCardBackKey, p.AddressLine1, p.AddressLine2, p.City, p.Country, p.Postcode,
	))
	if err != nil {
		return nil, err
	}
	r.logger.Printf("profile repo: created id=%s user_id=%s", out.ID, out.UserID)
	return out, nil
}

func (r *postgresRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return r.scan(r.pool.QueryRow(ctx, q, userID))
}

func (r *postgresRepo) SetSubscription(ctx context.Context, userID string, subscribed bool) (*domain.Profile, error) {
	const q = `UPDATE profiles SET subscription_status = $2 WHERE user_id = $1 RETURNING ` + profileColumns
	out, err := r.scan(r.pool.QueryRow(ctx, q, userID, subscribed))
	if err != nil {
		return nil, err
	}
	r.logger.Printf("profile repo: user_id=%s subscription_status=%t", userID, subscribed)
	return out, nil
}

// The accounts subquery renames id so the unqualified profile columns stay unambiguous.
const profileFrom = `
FROM profiles
JOIN (SELECT id AS account_id, email FROM accounts) a ON a.account_id = profiles.user_id
`

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Profile, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.EmploymentStatus != "" {
		add("employment_status = $%d", f.EmploymentStatus)
	}
	if f.Employer != "" {
		add("employer = $%d", f.Employer)
	}
	if f.Subscribed != nil {
		add("subscription_status = $%d", *f.Subscribed)
	}
	if email := strings.TrimSpace(f.Email); email != "" {
		add("a.email ILIKE $%d", "%"+likeEscaper.Replace(email)+"%")
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+profileFrom+clause, args...).Scan(&total); err != nil {
		return nil, 0, r.translate("count", err)
	}

	q := `SELECT ` + profileColumns + `, a.email` + profileFrom + clause + ` ORDER BY created_at DESC, id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, r.translate("list", err)
	}
	defer rows.Close()

	out := []domain.Profile{}
	for rows.Next() {
		var email string
		p, err := r.scan(rows, &email)
		if err != nil {
			return nil, 0, err
		}
		p.UserEmail = email
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.translate("rows", err)
	}
	return out, total, nil
}

// scan reads profileColumns followed by any extra destinations.
func (r *postgresRepo) scan(row pgx.Row, extra ...any) (*domain.Profile, error) {
	var p domain.Profile
	dest := []any{
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.EmploymentStatus, &p.JobDetails, &p.Employer,
		&p.IDCardFrontKey, &p.IDCardBackKey, &p.AddressLine1, &p.AddressLine2, &p.City, &p.Country, &p.Postcode,
		&p.SubscriptionStatus, &p.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, r.translate("scan", err)
	}
	return &p, nil
}

func (r *postgresRepo) translate(op string, err error) error {
	out := pgerr.Translate(err, constraintFields)
	if out == err {
		r.logger.Printf("profile repo: %s error=%v", op, err)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
