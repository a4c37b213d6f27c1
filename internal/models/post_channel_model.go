package models

import (
	"database/sql"
	"time"
)

// PostChannel is the schedulable unit: one post on one channel. Exactly one
// queue task exists per row, keyed by the row id.
type PostChannel struct {
	ID             string         `db:"id" json:"id"`
	PostID         string         `db:"post_id" json:"post_id"`
	ChannelID      string         `db:"channel_id" json:"channel_id"`
	Status         string         `db:"status" json:"status"`
	LastError      sql.NullString `db:"last_error" json:"last_error"`
	ExternalPostID sql.NullString `db:"external_post_id" json:"external_post_id"`
	PublishedAt    sql.NullTime   `db:"published_at" json:"published_at"`
	CancelledByID  sql.NullString `db:"cancelled_by_id" json:"cancelled_by_id"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
