package account

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"offers-marketplace/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const accountColumns = `id::text, email, password_hash, role, is_staff, is_superuser, created_at`

func (r *postgresRepo) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	const q = `
INSERT INTO accounts (email, password_hash, role, is_staff, is_superuser)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + accountColumns
	return r.scanAccount(r.pool.QueryRow(ctx, q, strings.ToLower(a.Email), a.PasswordHash, string(a.Role), a.IsStaff, a.IsSuperuser))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanAccount(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1`
	return r.scanAccount(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.IsStaff, &a.IsSuperuser, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, domain.ErrAlreadyExists
			case "22P02":
				// Malformed uuid in a lookup.
				return nil, domain.ErrNotFound
			}
		}
		r.logger.Printf("account repo: scan error=%v", err)
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}
