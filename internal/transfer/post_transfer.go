package transfer

import "github.com/postlane/postlane/internal/models"

// PostCreation carries the multipart form fields of a create-post request.
// ChannelIDs arrives as a JSON-encoded string array, mirroring how the form
// serializes the channel picker.
type PostCreation struct {
	Text        string `validate:"required,min=1"`
	ChannelIDs  string `validate:"required"`
	ScheduledAt string `validate:"omitempty"`
}

type ScheduleRequest struct {
	ScheduledAt string `json:"scheduled_at" validate:"required"`
}

type CancelRequest struct {
	PostID        string `json:"post_id" validate:"required"`
	PostChannelID string `json:"post_channel_id"`
}

type PostChannelInfo struct {
	models.PostChannel
	ChannelName string `json:"channel_name"`
	ChannelType string `json:"channel_type"`
	Provider    string `json:"provider"`
}

type PostDetail struct {
	Post     *models.Post       `json:"post"`
	Channels []*PostChannelInfo `json:"channels"`
	Media    []string           `json:"media"`
}

type PostList struct {
	Posts    []*models.Post `json:"posts"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}
