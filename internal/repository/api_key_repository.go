package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postlane/postlane/internal/models"
)

type ApiKeyRepository interface {
	Create(ctx context.Context, k *models.ApiKey) (int64, error)
	GetUserIDByHash(ctx context.Context, keyHash string) (string, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.ApiKey, error)
	Remove(ctx context.Context, id int64, userID string) error
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, k *models.ApiKey) (int64, error) {
	query := `
		INSERT INTO api_keys (user_id, key_hash, label)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, k.UserID, k.KeyHash, k.Label).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *apiKeyRepository) GetUserIDByHash(ctx context.Context, keyHash string) (string, error) {
	query := `SELECT user_id FROM api_keys WHERE key_hash = $1`

	var userID string
	err := r.db.QueryRowContext(ctx, query, keyHash).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		slog.Info(err.Error())
		return "", err
	}
	return userID, nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID string) ([]*models.ApiKey, error) {
	query := `SELECT id, user_id, key_hash, label, created_at FROM api_keys WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		var k models.ApiKey
		err := rows.Scan(&k.ID, &k.UserID, &k.KeyHash, &k.Label, &k.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		keys = append(keys, &k)
	}
	return keys, nil
}

func (r *apiKeyRepository) Remove(ctx context.Context, id int64, userID string) error {
	query := `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
