package models

import (
	"database/sql"
	"time"
)

const (
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

type EventLog struct {
	ID          int64          `db:"id" json:"id"`
	WorkspaceID string         `db:"workspace_id" json:"workspace_id"`
	PostID      sql.NullString `db:"post_id" json:"post_id"`
	ChannelID   sql.NullString `db:"channel_id" json:"channel_id"`
	UserID      sql.NullString `db:"user_id" json:"user_id"`
	Level       string         `db:"level" json:"level"`
	Action      string         `db:"action" json:"action"`
	Message     string         `db:"message" json:"message"`
	DetailsJSON sql.NullString `db:"details_json" json:"details_json"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
