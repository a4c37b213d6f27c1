package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postlane/postlane/internal/models"
)

type EventRepository interface {
	Create(ctx context.Context, e *models.EventLog) error
	ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*models.EventLog, error)
}

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, e *models.EventLog) error {
	query := `
		INSERT INTO event_logs (workspace_id, post_id, channel_id, user_id, level, action, message, details_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query, e.WorkspaceID, e.PostID, e.ChannelID, e.UserID, e.Level, e.Action, e.Message, e.DetailsJSON)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *eventRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*models.EventLog, error) {
	query := `
		SELECT id, workspace_id, post_id, channel_id, user_id, level, action, message, details_json, created_at
		FROM event_logs
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var events []*models.EventLog
	for rows.Next() {
		var e models.EventLog
		err := rows.Scan(&e.ID, &e.WorkspaceID, &e.PostID, &e.ChannelID, &e.UserID, &e.Level, &e.Action, &e.Message, &e.DetailsJSON, &e.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		events = append(events, &e)
	}
	return events, nil
}
