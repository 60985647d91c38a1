package postgres

import (
	"context"
	"errors"
	"fmt"
	"lifeline/pkg/logger"
	"lifeline/storage"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// geocodeQueryTimeout keeps a slow database from delaying enrichment.
const geocodeQueryTimeout = 3 * time.Second

type geocodeRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewGeocodeRepo(db *pgxpool.Pool, log logger.ILogger) storage.IGeocodeStorage {
	return &geocodeRepo{db: db, log: log}
}

func (r *geocodeRepo) GetAddress(ctx context.Context, cell string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, geocodeQueryTimeout)
	defer cancel()

	const q = `
		SELECT display_name
		FROM geocode_cache
		WHERE cell       = $1
		  AND expires_at > NOW()`

	var addr string
	err := r.db.QueryRow(ctx, q, cell).Scan(&addr)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("geocode cache: get: %w", err)
	}
	return addr, true, nil
}

func (r *geocodeRepo) SetAddress(ctx context.Context, cell, address string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, geocodeQueryTimeout)
	defer cancel()

	const q = `
		INSERT INTO geocode_cache (cell, display_name, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cell)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			expires_at   = EXCLUDED.expires_at`

	if _, err := r.db.Exec(ctx, q, cell, address, time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("geocode cache: set: %w", err)
	}
	return nil
}
