package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/token"
	"taskapi/pkg/db"
)

var _ token.Store = (*RefreshTokenRepository)(nil)

// RefreshTokenRepository - белый список refresh-токенов в Postgres.
type RefreshTokenRepository struct {
	db     *sql.DB
	hasher token.Hasher
	now    func() time.Time
}

func NewRefreshTokenRepository(database *sql.DB, hasher token.Hasher) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: database, hasher: hasher, now: time.Now}
}

// WithClock подменяет часы для Lookup и SweepExpired.
func (r *RefreshTokenRepository) WithClock(now func() time.Time) *RefreshTokenRepository {
	r.now = now
	return r
}

func (r *RefreshTokenRepository) Create(ctx context.Context, tokenStr string, expiresAt int64) error {
	return r.queries(r.db).create(ctx, tokenStr, expiresAt)
}

func (r *RefreshTokenRepository) Lookup(ctx context.Context, tokenStr string) (*token.RefreshToken, error) {
	t := &token.RefreshToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT token_hash, expires_at FROM refresh_tokens WHERE token_hash = $1`,
		r.hasher.Hash(tokenStr)).Scan(&t.TokenHash, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, token.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}

	if t.Expired(r.now()) {
		return nil, token.ErrNotFound
	}
	return t, nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, tokenStr string) (int64, error) {
	return r.queries(r.db).delete(ctx, tokenStr)
}

// Rotate удаляет старую запись и создаёт новую в одной транзакции.
// Если старой записи уже нет (отозвана или ротирована параллельно) - ErrNotFound.
// Вставка идёт под savepoint: если она упала, удаление старой записи
// всё равно фиксируется, а вызывающий получает ErrPersistence.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldToken, newToken string, newExpiresAt int64) error {
	var createErr error

	err := db.WithTx(ctx, r.db, nil, func(ctx context.Context, tx db.DBTX) error {
		q := r.queries(tx)

		n, err := q.delete(ctx, oldToken)
		if err != nil {
			return err
		}
		if n == 0 {
			return token.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `SAVEPOINT rotate_create`); err != nil {
			return fmt.Errorf("%w: %v", token.ErrPersistence, err)
		}

		if createErr = q.create(ctx, newToken, newExpiresAt); createErr != nil {
			if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT rotate_create`); err != nil {
				return errors.Join(createErr, fmt.Errorf("%w: %v", token.ErrPersistence, err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return createErr
}

func (r *RefreshTokenRepository) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`,
		r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}
	return res.RowsAffected()
}

func (r *RefreshTokenRepository) queries(conn db.DBTX) refreshTokenQueries {
	return refreshTokenQueries{db: conn, hasher: r.hasher}
}

// refreshTokenQueries работает и поверх *sql.DB, и внутри транзакции.
type refreshTokenQueries struct {
	db     db.DBTX
	hasher token.Hasher
}

func (q refreshTokenQueries) create(ctx context.Context, tokenStr string, expiresAt int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, expires_at) VALUES ($1, $2)`,
		q.hasher.Hash(tokenStr), expiresAt)
	if err != nil {
		return fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}
	return nil
}

func (q refreshTokenQueries) delete(ctx context.Context, tokenStr string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE token_hash = $1`,
		q.hasher.Hash(tokenStr))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}
	return res.RowsAffected()
}
