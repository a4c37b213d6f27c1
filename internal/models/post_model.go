package models

import (
	"database/sql"
	"time"
)

type Post struct {
	ID           string       `db:"id" json:"id"`
	WorkspaceID  string       `db:"workspace_id" json:"workspace_id"`
	AuthorID     string       `db:"author_id" json:"author_id"`
	Text         string       `db:"text" json:"text"`
	StatusGlobal string       `db:"status_global" json:"status_global"`
	ScheduledAt  sql.NullTime `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PostMedia struct {
	PostID       string    `db:"post_id" json:"post_id"`
	AssetID      string    `db:"asset_id" json:"asset_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusDraft      = "DRAFT"
	PostStatusScheduled  = "SCHEDULED"
	PostStatusPublishing = "PUBLISHING"
	PostStatusPublished  = "PUBLISHED"
	PostStatusFailed     = "FAILED"
	PostStatusCancelled  = "CANCELLED"
)
