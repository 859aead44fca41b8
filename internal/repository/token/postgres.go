package token

import (
	"context"
	"io"
	"log"
	"time"

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
	"tokens_pkey":            "token",
	"tokens_account_id_fkey": "account",
}

func (r *postgresRepo) Create(ctx context.Context, token Token) error {
	const q = `
INSERT INTO tokens (token, account_id, expires_at)
VALUES ($1, $2, $3)
`
	if _, err := r.pool.Exec(ctx, q, token.Token, token.AccountID, token.ExpiresAt); err != nil {
		return r.translate("create account_id="+token.AccountID, err)
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, token string) (*Token, error) {
	const q = `
SELECT token, account_id::text, expires_at, created_at
FROM tokens
WHERE token = $1
LIMIT 1
`
	var out Token
	if err := r.pool.QueryRow(ctx, q, token).Scan(&out.Token, &out.AccountID, &out.ExpiresAt, &out.CreatedAt); err != nil {
		return nil, r.translate("get", err)
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, token string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE token = $1`, token)
	if err != nil {
		return r.translate("delete", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, r.translate("delete expired", err)
	}
	return cmd.RowsAffected(), nil
}

// translate maps driver errors onto domain errors and logs the ones it cannot map.
func (r *postgresRepo) translate(op string, err error) error {
	out := pgerr.Translate(err, constraintFields)
	if out == err {
		r.logger.Printf("token repo: %s error=%v", op, err)
	}
	return out
}
