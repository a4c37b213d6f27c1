package transfer

// ChannelConnect imports an already-authorized destination account. The
// OAuth exchange that produced these tokens happens outside this service.
type ChannelConnect struct {
	Provider     string `json:"provider" validate:"required,oneof=META LINKEDIN"`
	Type         string `json:"type" validate:"required,oneof=FB_PAGE IG_BUSINESS LI_ORG LI_PROFILE"`
	Name         string `json:"name" validate:"required,max=100"`
	ExternalID   string `json:"external_id" validate:"required"`
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}
