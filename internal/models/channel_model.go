package models

import (
	"database/sql"
	"time"
)

const (
	ProviderMeta     = "META"
	ProviderLinkedIn = "LINKEDIN"
)

const (
	ChannelTypeFacebookPage      = "FB_PAGE"
	ChannelTypeInstagramBusiness = "IG_BUSINESS"
	ChannelTypeLinkedInOrg       = "LI_ORG"
	ChannelTypeLinkedInProfile   = "LI_PROFILE"
)

// Channel is a connected destination account at a provider. Token material
// is stored encrypted; plaintext only exists while a publish or refresh
// call is in flight.
type Channel struct {
	ID                    string         `db:"id" json:"id"`
	WorkspaceID           string         `db:"workspace_id" json:"workspace_id"`
	Provider              string         `db:"provider" json:"provider"`
	Type                  string         `db:"type" json:"type"`
	Name                  string         `db:"name" json:"name"`
	ExternalID            string         `db:"external_id" json:"external_id"`
	TokenEncrypted        sql.NullString `db:"token_encrypted" json:"-"`
	RefreshTokenEncrypted sql.NullString `db:"refresh_token_encrypted" json:"-"`
	ExpiresAt             sql.NullTime   `db:"expires_at" json:"expires_at"`
	Connected             bool           `db:"connected" json:"connected"`
	NeedsReconnect        bool           `db:"needs_reconnect" json:"needs_reconnect"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}
