package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postlane/postlane/internal/models"
)

// SocialAdapter is the two-operation contract every provider implements.
// Validate is pure; Publish performs the provider call sequence and never
// logs the access token.
type SocialAdapter interface {
	Validate(p PublishPayload) ValidationResult
	Publish(ctx context.Context, p PublishPayload, accessToken string) PublishResult
}

type PublishPayload struct {
	Text              string
	MediaURLs         []string
	ChannelExternalID string
	ChannelType       string
}

type ValidationResult struct {
	Valid  bool
	Errors []string
}

type PublishResult struct {
	Success        bool
	ExternalPostID string
	Error          string
	ErrorCategory  string
}

const (
	CategoryAuth       = "auth"
	CategoryRateLimit  = "rate_limit"
	CategoryValidation = "validation"
	CategoryNetwork    = "network"
	CategoryUnknown    = "unknown"
)

const (
	PublishModeDryRun = "dryrun"
	PublishModeLive   = "live"
)

type ChannelLimits struct {
	MaxChars  int
	MaxImages int
}

var channelLimits = map[string]ChannelLimits{
	models.ChannelTypeFacebookPage:      {MaxChars: 63206, MaxImages: 10},
	models.ChannelTypeInstagramBusiness: {MaxChars: 2200, MaxImages: 10},
	models.ChannelTypeLinkedInOrg:       {MaxChars: 3000, MaxImages: 9},
	models.ChannelTypeLinkedInProfile:   {MaxChars: 3000, MaxImages: 9},
}

func LimitsFor(channelType string) (ChannelLimits, bool) {
	limits, ok := channelLimits[channelType]
	return limits, ok
}

func validateLimits(p PublishPayload) ValidationResult {
	var errs []string

	if limits, ok := channelLimits[p.ChannelType]; ok {
		// Provider limits are in characters, not bytes.
		if n := utf8.RuneCountInString(p.Text); n > limits.MaxChars {
			errs = append(errs, fmt.Sprintf("text exceeds the limit of %d characters (has %d)", limits.MaxChars, n))
		}
		if len(p.MediaURLs) > limits.MaxImages {
			errs = append(errs, fmt.Sprintf("a maximum of %d images is allowed (has %d)", limits.MaxImages, len(p.MediaURLs)))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// CategorizeError routes a provider error message into the retry taxonomy by
// substring matching. This is the sole retry signal, so the matching order
// is load-bearing.
func CategorizeError(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "oauth"), strings.Contains(lower, "token"), strings.Contains(lower, "expired"):
		return CategoryAuth
	case strings.Contains(lower, "rate"), strings.Contains(lower, "throttl"):
		return CategoryRateLimit
	case strings.Contains(lower, "invalid"), strings.Contains(lower, "validation"):
		return CategoryValidation
	case strings.Contains(lower, "network"), strings.Contains(lower, "timeout"), strings.Contains(lower, "connection refused"):
		return CategoryNetwork
	default:
		return CategoryUnknown
	}
}

func failure(err error) PublishResult {
	return PublishResult{
		Success:       false,
		Error:         err.Error(),
		ErrorCategory: CategorizeError(err.Error()),
	}
}

// dryRunPublish simulates a provider call with a little latency and a 10%
// failure rate so the full pipeline can run without provider apps.
func dryRunPublish(provider string, p PublishPayload) PublishResult {
	time.Sleep(time.Duration(200+rand.Intn(400)) * time.Millisecond)

	if rand.Float64() < 0.1 {
		return PublishResult{
			Success:       false,
			Error:         fmt.Sprintf("[DRYRUN] simulated %s failure for testing", provider),
			ErrorCategory: CategoryNetwork,
		}
	}

	suffix, _ := gonanoid.New(8)
	return PublishResult{
		Success:        true,
		ExternalPostID: fmt.Sprintf("dryrun_%s_%d_%s", provider, time.Now().UnixMilli(), suffix),
	}
}
