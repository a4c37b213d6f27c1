package transfer

import "time"

// RefreshedToken is the plaintext result of a provider token refresh. The
// caller re-encrypts before anything is persisted.
type RefreshedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Event struct {
	WorkspaceID string
	PostID      string
	ChannelID   string
	UserID      string
	Level       string
	Action      string
	Message     string
	Details     map[string]any
}
