package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postlane/postlane/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetByWorkspace(ctx context.Context, workspaceID, status string, page, pageSize int) ([]*models.Post, int, error)
	UpdateGlobalStatus(ctx context.Context, id, status string) error
	SetScheduled(ctx context.Context, id string, scheduledAt time.Time) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		INSERT INTO posts (id, workspace_id, author_id, text, status_global, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, post.ID, post.WorkspaceID, post.AuthorID, post.Text, post.StatusGlobal, post.ScheduledAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, post.ID, post.WorkspaceID, post.AuthorID, post.Text, post.StatusGlobal, post.ScheduledAt)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT id, workspace_id, author_id, text, status_global, scheduled_at, created_at, updated_at FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	err := row.Scan(&post.ID, &post.WorkspaceID, &post.AuthorID, &post.Text, &post.StatusGlobal, &post.ScheduledAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) GetByWorkspace(ctx context.Context, workspaceID, status string, page, pageSize int) ([]*models.Post, int, error) {
	query := `
		SELECT id, workspace_id, author_id, text, status_global, scheduled_at, created_at, updated_at
		FROM posts
		WHERE workspace_id = $1 AND ($2 = '' OR status_global = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(&post.ID, &post.WorkspaceID, &post.AuthorID, &post.Text, &post.StatusGlobal, &post.ScheduledAt, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, 0, err
		}
		posts = append(posts, &post)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM posts WHERE workspace_id = $1 AND ($2 = '' OR status_global = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, workspaceID, status).Scan(&total); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepository) UpdateGlobalStatus(ctx context.Context, id, status string) error {
	query := `UPDATE posts SET status_global = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetScheduled(ctx context.Context, id string, scheduledAt time.Time) error {
	query := `UPDATE posts SET status_global = $1, scheduled_at = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, scheduledAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
