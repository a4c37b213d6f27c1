package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	config "github.com/postlane/postlane/configs"
	"github.com/postlane/postlane/internal/models"
	"golang.org/x/time/rate"
)

type metaAdapter struct {
	cfg     config.Config
	limiter *rate.Limiter
}

func NewMetaAdapter(cfg config.Config, limiter *rate.Limiter) SocialAdapter {
	return &metaAdapter{cfg: cfg, limiter: limiter}
}

func (a *metaAdapter) Validate(p PublishPayload) ValidationResult {
	result := validateLimits(p)

	// Instagram has no text-only surface.
	if p.ChannelType == models.ChannelTypeInstagramBusiness && len(p.MediaURLs) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Instagram posts require at least one image")
	}

	return result
}

func (a *metaAdapter) Publish(ctx context.Context, p PublishPayload, accessToken string) PublishResult {
	if a.cfg.PublishMode == PublishModeDryRun {
		return dryRunPublish("meta", p)
	}

	var externalID string
	var err error

	switch p.ChannelType {
	case models.ChannelTypeFacebookPage:
		externalID, err = a.publishFacebookPage(ctx, p, accessToken)
	case models.ChannelTypeInstagramBusiness:
		externalID, err = a.publishInstagram(ctx, p, accessToken)
	default:
		err = fmt.Errorf("invalid channel type for Meta: %s", p.ChannelType)
	}

	if err != nil {
		return failure(err)
	}
	return PublishResult{Success: true, ExternalPostID: externalID}
}

func (a *metaAdapter) publishFacebookPage(ctx context.Context, p PublishPayload, accessToken string) (string, error) {
	pageID := p.ChannelExternalID

	switch {
	case len(p.MediaURLs) == 0:
		return a.graphPost(ctx, fmt.Sprintf("%s/%s/feed", a.cfg.MetaBaseURL, pageID), map[string]any{
			"message":      p.Text,
			"access_token": accessToken,
		})

	case len(p.MediaURLs) == 1:
		return a.graphPost(ctx, fmt.Sprintf("%s/%s/photos", a.cfg.MetaBaseURL, pageID), map[string]any{
			"url":          p.MediaURLs[0],
			"caption":      p.Text,
			"access_token": accessToken,
		})

	default:
		// Upload each photo unpublished, then attach them all to one feed post.
		attached := make([]map[string]string, 0, len(p.MediaURLs))
		for _, mediaURL := range p.MediaURLs {
			photoID, err := a.graphPost(ctx, fmt.Sprintf("%s/%s/photos", a.cfg.MetaBaseURL, pageID), map[string]any{
				"url":          mediaURL,
				"published":    false,
				"access_token": accessToken,
			})
			if err != nil {
				return "", err
			}
			attached = append(attached, map[string]string{"media_fbid": photoID})
		}

		return a.graphPost(ctx, fmt.Sprintf("%s/%s/feed", a.cfg.MetaBaseURL, pageID), map[string]any{
			"message":        p.Text,
			"attached_media": attached,
			"access_token":   accessToken,
		})
	}
}

func (a *metaAdapter) publishInstagram(ctx context.Context, p PublishPayload, accessToken string) (string, error) {
	igID := p.ChannelExternalID
	mediaURL := fmt.Sprintf("%s/%s/media", a.cfg.MetaBaseURL, igID)

	var containerID string
	var err error

	if len(p.MediaURLs) == 1 {
		containerID, err = a.graphPost(ctx, mediaURL, map[string]any{
			"image_url":    p.MediaURLs[0],
			"caption":      p.Text,
			"access_token": accessToken,
		})
		if err != nil {
			return "", err
		}
	} else {
		children := make([]string, 0, len(p.MediaURLs))
		for _, imageURL := range p.MediaURLs {
			childID, err := a.graphPost(ctx, mediaURL, map[string]any{
				"image_url":        imageURL,
				"is_carousel_item": true,
				"access_token":     accessToken,
			})
			if err != nil {
				return "", err
			}
			children = append(children, childID)
		}

		containerID, err = a.graphPost(ctx, mediaURL, map[string]any{
			"media_type":   "CAROUSEL",
			"caption":      p.Text,
			"children":     children,
			"access_token": accessToken,
		})
		if err != nil {
			return "", err
		}
	}

	return a.graphPost(ctx, fmt.Sprintf("%s/%s/media_publish", a.cfg.MetaBaseURL, igID), map[string]any{
		"creation_id":  containerID,
		"access_token": accessToken,
	})
}

// graphPost posts a JSON payload to the Graph API and returns the created
// object id.
func (a *metaAdapter) graphPost(ctx context.Context, url string, payload map[string]any) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		ID    string `json:"id"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if result.Error != nil {
		return "", errors.New(result.Error.Message)
	}
	if result.ID == "" {
		return "", fmt.Errorf("unexpected status code from Meta: %d", resp.StatusCode)
	}

	return result.ID, nil
}
