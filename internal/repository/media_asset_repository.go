package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postlane/postlane/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) error
	GetByID(ctx context.Context, id string) (*models.MediaAsset, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) error {
	query := `
		INSERT INTO media_assets (id, user_id, file_name, file_type, file_size, file_url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, ma.ID, ma.UserID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL)
	} else {
		_, err = r.db.ExecContext(ctx, query, ma.ID, ma.UserID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	query := `SELECT id, user_id, file_name, file_type, file_size, file_url, created_at FROM media_assets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var ma models.MediaAsset
	err := row.Scan(&ma.ID, &ma.UserID, &ma.FileName, &ma.FileType, &ma.FileSize, &ma.FileURL, &ma.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &ma, nil
}
