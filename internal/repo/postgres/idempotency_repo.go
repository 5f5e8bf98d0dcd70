package postgres

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepo deduplicates enroll requests retried with the same
// Idempotency-Key header.
type IdempotencyRepo interface {
	// CheckOrCreateIdempotency returns the booking already recorded for the
	// key, or 0 if none. With bookingID > 0 it records the mapping.
	CheckOrCreateIdempotency(ctx context.Context, key string, bookingID int64) (existingBookingID int64, err error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type IdempotencyRepoImpl struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepo(pool *pgxpool.Pool) *IdempotencyRepoImpl {
	return &IdempotencyRepoImpl{pool: pool}
}

func (r *IdempotencyRepoImpl) CheckOrCreateIdempotency(ctx context.Context, key string, bookingID int64) (int64, error) {
	// Keys are hashed for consistent length and to keep raw client values
	// out of the table.
	hasher := sha256.New()
	hasher.Write([]byte(key))
	keyHash := fmt.Sprintf("%x", hasher.Sum(nil))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var existingBookingID int64
	const checkQuery = `SELECT booking_id FROM booking_idempotency WHERE key_hash = $1`
	err := r.pool.QueryRow(ctx, checkQuery, keyHash).Scan(&existingBookingID)

	if err == nil {
		return existingBookingID, nil
	}

	if err != pgx.ErrNoRows {
		return 0, err
	}

	if bookingID > 0 {
		const insertQuery = `
			INSERT INTO booking_idempotency (key_hash, booking_id, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key_hash) DO NOTHING`

		expiresAt := time.Now().Add(24 * time.Hour)
		if _, err := r.pool.Exec(ctx, insertQuery, keyHash, bookingID, expiresAt); err != nil {
			return 0, err
		}
	}

	return 0, nil
}

func (r *IdempotencyRepoImpl) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	const query = `DELETE FROM booking_idempotency WHERE expires_at < now()`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

var _ IdempotencyRepo = (*IdempotencyRepoImpl)(nil)
