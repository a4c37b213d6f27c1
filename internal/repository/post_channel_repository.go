package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/transfer"
)

type PostChannelRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pc *models.PostChannel) error
	GetByID(ctx context.Context, id string) (*models.PostChannel, error)
	ListByPostID(ctx context.Context, postID string) ([]*models.PostChannel, error)
	ListInfoByPostID(ctx context.Context, postID string) ([]*transfer.PostChannelInfo, error)
	ListStatusesByPostID(ctx context.Context, postID string) ([]string, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SetPublished(ctx context.Context, id, externalPostID string, publishedAt time.Time) error
	SetFailed(ctx context.Context, id, lastError string) error
	SetCancelled(ctx context.Context, id, cancelledByID string) error
}

type postChannelRepository struct {
	db *sql.DB
}

func NewPostChannelRepository(db *sql.DB) PostChannelRepository {
	return &postChannelRepository{db: db}
}

const postChannelColumns = `id, post_id, channel_id, status, last_error, external_post_id, published_at, cancelled_by_id, created_at, updated_at`

func scanPostChannel(row interface{ Scan(...any) error }) (*models.PostChannel, error) {
	var pc models.PostChannel
	err := row.Scan(&pc.ID, &pc.PostID, &pc.ChannelID, &pc.Status, &pc.LastError, &pc.ExternalPostID, &pc.PublishedAt, &pc.CancelledByID, &pc.CreatedAt, &pc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *postChannelRepository) Create(ctx context.Context, tx *sql.Tx, pc *models.PostChannel) error {
	query := `
		INSERT INTO post_channels (id, post_id, channel_id, status)
		VALUES ($1, $2, $3, $4)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, pc.ID, pc.PostID, pc.ChannelID, pc.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, pc.ID, pc.PostID, pc.ChannelID, pc.Status)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postChannelRepository) GetByID(ctx context.Context, id string) (*models.PostChannel, error) {
	query := `SELECT ` + postChannelColumns + ` FROM post_channels WHERE id = $1`

	pc, err := scanPostChannel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return pc, nil
}

func (r *postChannelRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PostChannel, error) {
	query := `SELECT ` + postChannelColumns + ` FROM post_channels WHERE post_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var pcs []*models.PostChannel
	for rows.Next() {
		pc, err := scanPostChannel(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		pcs = append(pcs, pc)
	}
	return pcs, nil
}

func (r *postChannelRepository) ListInfoByPostID(ctx context.Context, postID string) ([]*transfer.PostChannelInfo, error) {
	query := `
		SELECT pc.id, pc.post_id, pc.channel_id, pc.status, pc.last_error, pc.external_post_id,
		       pc.published_at, pc.cancelled_by_id, pc.created_at, pc.updated_at,
		       c.name, c.type, c.provider
		FROM post_channels pc
		JOIN channels c ON c.id = pc.channel_id
		WHERE pc.post_id = $1
		ORDER BY pc.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var infos []*transfer.PostChannelInfo
	for rows.Next() {
		var info transfer.PostChannelInfo
		err := rows.Scan(&info.ID, &info.PostID, &info.ChannelID, &info.Status, &info.LastError, &info.ExternalPostID,
			&info.PublishedAt, &info.CancelledByID, &info.CreatedAt, &info.UpdatedAt,
			&info.ChannelName, &info.ChannelType, &info.Provider)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		infos = append(infos, &info)
	}
	return infos, nil
}

func (r *postChannelRepository) ListStatusesByPostID(ctx context.Context, postID string) ([]string, error) {
	query := `SELECT status FROM post_channels WHERE post_id = $1`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (r *postChannelRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE post_channels SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postChannelRepository) SetPublished(ctx context.Context, id, externalPostID string, publishedAt time.Time) error {
	query := `
		UPDATE post_channels
		SET status = $1, external_post_id = $2, published_at = $3, last_error = NULL, updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, externalPostID, publishedAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postChannelRepository) SetFailed(ctx context.Context, id, lastError string) error {
	query := `UPDATE post_channels SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, lastError, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postChannelRepository) SetCancelled(ctx context.Context, id, cancelledByID string) error {
	query := `UPDATE post_channels SET status = $1, cancelled_by_id = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusCancelled, cancelledByID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
