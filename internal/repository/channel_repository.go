package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postlane/postlane/internal/models"
)

type ChannelRepository interface {
	Create(ctx context.Context, ch *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.Channel, error)
	ListByIDs(ctx context.Context, workspaceID string, ids []string) ([]*models.Channel, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Channel, error)
	SetToken(ctx context.Context, id string, tokenEncrypted string, refreshTokenEncrypted sql.NullString, expiresAt sql.NullTime) error
	SetNeedsReconnect(ctx context.Context, id string, needsReconnect bool) error
	SetConnected(ctx context.Context, id string, connected bool) error
}

type channelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) ChannelRepository {
	return &channelRepository{db: db}
}

const channelColumns = `id, workspace_id, provider, type, name, external_id, token_encrypted, refresh_token_encrypted, expires_at, connected, needs_reconnect, created_at, updated_at`

func scanChannel(row interface{ Scan(...any) error }) (*models.Channel, error) {
	var ch models.Channel
	err := row.Scan(&ch.ID, &ch.WorkspaceID, &ch.Provider, &ch.Type, &ch.Name, &ch.ExternalID,
		&ch.TokenEncrypted, &ch.RefreshTokenEncrypted, &ch.ExpiresAt, &ch.Connected, &ch.NeedsReconnect,
		&ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *channelRepository) Create(ctx context.Context, ch *models.Channel) error {
	query := `
		INSERT INTO channels (id, workspace_id, provider, type, name, external_id, token_encrypted, refresh_token_encrypted, expires_at, connected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
	`
	_, err := r.db.ExecContext(ctx, query, ch.ID, ch.WorkspaceID, ch.Provider, ch.Type, ch.Name,
		ch.ExternalID, ch.TokenEncrypted, ch.RefreshTokenEncrypted, ch.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *channelRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`

	ch, err := scanChannel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return ch, nil
}

func (r *channelRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE workspace_id = $1 ORDER BY created_at`
	return r.queryChannels(ctx, query, workspaceID)
}

func (r *channelRepository) ListByIDs(ctx context.Context, workspaceID string, ids []string) ([]*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE workspace_id = $1 AND id = ANY($2)`
	return r.queryChannels(ctx, query, workspaceID, pq.Array(ids))
}

func (r *channelRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE connected = TRUE AND expires_at IS NOT NULL AND expires_at BETWEEN $1 AND $2
	`
	return r.queryChannels(ctx, query, from, to)
}

func (r *channelRepository) queryChannels(ctx context.Context, query string, args ...any) ([]*models.Channel, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func (r *channelRepository) SetToken(ctx context.Context, id string, tokenEncrypted string, refreshTokenEncrypted sql.NullString, expiresAt sql.NullTime) error {
	query := `
		UPDATE channels
		SET token_encrypted = $1,
			refresh_token_encrypted = COALESCE($2, refresh_token_encrypted),
			expires_at = $3,
			needs_reconnect = FALSE,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, tokenEncrypted, refreshTokenEncrypted, expiresAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *channelRepository) SetNeedsReconnect(ctx context.Context, id string, needsReconnect bool) error {
	query := `UPDATE channels SET needs_reconnect = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, needsReconnect, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *channelRepository) SetConnected(ctx context.Context, id string, connected bool) error {
	query := `UPDATE channels SET connected = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, connected, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
