package adapters

import (
	"strings"
	"testing"

	"github.com/postlane/postlane/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLimits(t *testing.T) {
	tests := []struct {
		name    string
		payload PublishPayload
		valid   bool
	}{
		{
			name:    "facebook within limits",
			payload: PublishPayload{Text: "hello", ChannelType: models.ChannelTypeFacebookPage},
			valid:   true,
		},
		{
			name:    "instagram text too long",
			payload: PublishPayload{Text: strings.Repeat("a", 2201), ChannelType: models.ChannelTypeInstagramBusiness},
			valid:   false,
		},
		{
			name:    "linkedin text at limit",
			payload: PublishPayload{Text: strings.Repeat("a", 3000), ChannelType: models.ChannelTypeLinkedInProfile},
			valid:   true,
		},
		{
			name:    "instagram multibyte text at limit",
			payload: PublishPayload{Text: strings.Repeat("é", 2200), ChannelType: models.ChannelTypeInstagramBusiness},
			valid:   true,
		},
		{
			name:    "instagram multibyte text over limit",
			payload: PublishPayload{Text: strings.Repeat("é", 2201), ChannelType: models.ChannelTypeInstagramBusiness},
			valid:   false,
		},
		{
			name:    "linkedin text over limit",
			payload: PublishPayload{Text: strings.Repeat("a", 3001), ChannelType: models.ChannelTypeLinkedInOrg},
			valid:   false,
		},
		{
			name: "too many images for linkedin",
			payload: PublishPayload{
				Text:        "ok",
				MediaURLs:   make([]string, 10),
				ChannelType: models.ChannelTypeLinkedInOrg,
			},
			valid: false,
		},
		{
			name: "ten images fine for facebook",
			payload: PublishPayload{
				Text:        "ok",
				MediaURLs:   make([]string, 10),
				ChannelType: models.ChannelTypeFacebookPage,
			},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateLimits(tt.payload)
			assert.Equal(t, tt.valid, result.Valid, "errors: %v", result.Errors)
		})
	}
}

func TestValidateLimitsCountsCharacters(t *testing.T) {
	result := validateLimits(PublishPayload{
		Text:        strings.Repeat("é", 2201),
		ChannelType: models.ChannelTypeInstagramBusiness,
	})

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	// The reported count is in characters, not UTF-8 bytes.
	assert.Equal(t, "text exceeds the limit of 2200 characters (has 2201)", result.Errors[0])
}

func TestMetaValidateInstagramRequiresMedia(t *testing.T) {
	a := &metaAdapter{}

	result := a.Validate(PublishPayload{Text: "caption only", ChannelType: models.ChannelTypeInstagramBusiness})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "Instagram posts require at least one image")

	result = a.Validate(PublishPayload{
		Text:        "caption",
		MediaURLs:   []string{"https://cdn.example.com/a.jpg"},
		ChannelType: models.ChannelTypeInstagramBusiness,
	})
	assert.True(t, result.Valid)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"OAuth error validating access token", CategoryAuth},
		{"The token has expired", CategoryAuth},
		{"Session token is no longer valid", CategoryAuth},
		{"Application request limit reached, rate exceeded", CategoryRateLimit},
		{"request throttled by provider", CategoryRateLimit},
		{"Invalid parameter: image_url", CategoryValidation},
		{"validation failed on field caption", CategoryValidation},
		{"network unreachable", CategoryNetwork},
		{"context deadline exceeded: timeout", CategoryNetwork},
		{"dial tcp: connection refused", CategoryNetwork},
		{"something else entirely", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeError(tt.message))
		})
	}
}

func TestCategorizeErrorPrecedence(t *testing.T) {
	// Auth keywords win over later categories when both appear.
	assert.Equal(t, CategoryAuth, CategorizeError("invalid oauth token"))
	assert.Equal(t, CategoryRateLimit, CategorizeError("invalid request: rate limited"))
}

func TestAuthorURN(t *testing.T) {
	org := authorURN(PublishPayload{ChannelType: models.ChannelTypeLinkedInOrg, ChannelExternalID: "12345"})
	assert.Equal(t, "urn:li:organization:12345", org)

	person := authorURN(PublishPayload{ChannelType: models.ChannelTypeLinkedInProfile, ChannelExternalID: "abcde"})
	assert.Equal(t, "urn:li:person:abcde", person)
}

func TestLimitsFor(t *testing.T) {
	limits, ok := LimitsFor(models.ChannelTypeInstagramBusiness)
	assert.True(t, ok)
	assert.Equal(t, 2200, limits.MaxChars)
	assert.Equal(t, 10, limits.MaxImages)

	_, ok = LimitsFor("TIKTOK")
	assert.False(t, ok)
}
