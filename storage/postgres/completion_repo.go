package postgres

import (
	"context"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"lifeline/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

type completionRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewCompletionRepo(db *pgxpool.Pool, log logger.ILogger) storage.ICompletionStorage {
	return &completionRepo{db: db, log: log}
}

func (r *completionRepo) Create(ctx context.Context, c *models.CompletionRecord) (*models.CompletionRecord, error) {
	query := `
		INSERT INTO completion_records (driver_id, dispatch_id, with_location, lat, lon, success, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		c.DriverID,
		c.DispatchID,
		c.WithLocation,
		c.Lat,
		c.Lon,
		c.Success,
		c.Error,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.log.Error("failed to create completion record", logger.Error(err))
		return nil, err
	}
	return c, nil
}

func (r *completionRepo) GetByDriver(ctx context.Context, driverID int64, limit int) ([]*models.CompletionRecord, error) {
	query := `
		SELECT id, driver_id, dispatch_id, with_location, lat, lon, success, error, created_at
		FROM completion_records
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, driverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CompletionRecord
	for rows.Next() {
		var c models.CompletionRecord
		if err := rows.Scan(&c.ID, &c.DriverID, &c.DispatchID, &c.WithLocation, &c.Lat, &c.Lon, &c.Success, &c.Error, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
