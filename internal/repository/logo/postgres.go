package logo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"offers-marketplace/internal/domain"
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

const logoColumns = `id::text, image_key, content_type, created_at, updated_at`

// replaceLockKey names the advisory lock that serializes Replace. Row locks
// cannot, because the first upload has no row to lock.
const replaceLockKey int64 = 0x6c6f676f

func (r *postgresRepo) Get(ctx context.Context) (*domain.Logo, error) {
	l, err := scanLogo(r.pool.QueryRow(ctx, `SELECT `+logoColumns+` FROM company_logo`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Printf("logo repo: get error=%v", err)
		return nil, err
	}
	return l, nil
}

func (r *postgresRepo) Replace(ctx context.Context, l domain.Logo) (*domain.Logo, *domain.Logo, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, replaceLockKey); err != nil {
		r.logger.Printf("logo repo: advisory lock error=%v", err)
		return nil, nil, err
	}
	previous, err := scanLogo(tx.QueryRow(ctx, `SELECT `+logoColumns+` FROM company_logo`))
	if errors.Is(err, pgx.ErrNoRows) {
		previous = nil
	} else if err != nil {
		r.logger.Printf("logo repo: read previous error=%v", err)
		return nil, nil, err
	}

	const upsert = `
INSERT INTO company_logo (image_key, content_type)
VALUES ($1, $2)
ON CONFLICT (singleton) DO UPDATE
SET image_key = EXCLUDED.image_key,
    content_type = EXCLUDED.content_type,
    updated_at = now()
RETURNING ` + logoColumns
	current, err := scanLogo(tx.QueryRow(ctx, upsert, l.ImageKey, l.ContentType))
	if err != nil {
		r.logger.Printf("logo repo: upsert error=%v", err)
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	r.logger.Printf("logo repo: replaced key=%s", current.ImageKey)
	return current, previous, nil
}

func scanLogo(row pgx.Row) (*domain.Logo, error) {
	var l domain.Logo
	if err := row.Scan(&l.ID, &l.ImageKey, &l.ContentType, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
