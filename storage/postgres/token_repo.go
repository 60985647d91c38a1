package postgres

import (
	"context"
	"errors"
	"lifeline/pkg/logger"
	"lifeline/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type tokenRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewTokenRepo(db *pgxpool.Pool, log logger.ILogger) storage.ITokenStorage {
	return &tokenRepo{db: db, log: log}
}

func (r *tokenRepo) Save(ctx context.Context, chatID int64, token string) error {
	query := `
		INSERT INTO driver_tokens (chat_id, token, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id)
		DO UPDATE SET token = EXCLUDED.token, created_at = EXCLUDED.created_at
	`
	if _, err := r.db.Exec(ctx, query, chatID, token); err != nil {
		r.log.Error("failed to save driver token", logger.Int64("chat_id", chatID), logger.Error(err))
		return err
	}
	return nil
}

func (r *tokenRepo) Get(ctx context.Context, chatID int64) (string, bool, error) {
	var token string
	err := r.db.QueryRow(ctx, `SELECT token FROM driver_tokens WHERE chat_id = $1`, chatID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (r *tokenRepo) Delete(ctx context.Context, chatID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM driver_tokens WHERE chat_id = $1`, chatID)
	return err
}

func (r *tokenRepo) Purge(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM driver_tokens`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
