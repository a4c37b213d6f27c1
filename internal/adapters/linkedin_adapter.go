package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	config "github.com/postlane/postlane/configs"
	"github.com/postlane/postlane/internal/models"
	"golang.org/x/time/rate"
)

type linkedInAdapter struct {
	cfg     config.Config
	limiter *rate.Limiter
}

func NewLinkedInAdapter(cfg config.Config, limiter *rate.Limiter) SocialAdapter {
	return &linkedInAdapter{cfg: cfg, limiter: limiter}
}

func (a *linkedInAdapter) Validate(p PublishPayload) ValidationResult {
	return validateLimits(p)
}

func (a *linkedInAdapter) Publish(ctx context.Context, p PublishPayload, accessToken string) PublishResult {
	if a.cfg.PublishMode == PublishModeDryRun {
		return dryRunPublish("li", p)
	}

	var externalID string
	var err error

	if len(p.MediaURLs) == 0 {
		externalID, err = a.publishText(ctx, p, accessToken)
	} else {
		externalID, err = a.publishWithImages(ctx, p, accessToken)
	}

	if err != nil {
		return failure(err)
	}
	return PublishResult{Success: true, ExternalPostID: externalID}
}

func authorURN(p PublishPayload) string {
	if p.ChannelType == models.ChannelTypeLinkedInOrg {
		return fmt.Sprintf("urn:li:organization:%s", p.ChannelExternalID)
	}
	return fmt.Sprintf("urn:li:person:%s", p.ChannelExternalID)
}

func (a *linkedInAdapter) publishText(ctx context.Context, p PublishPayload, accessToken string) (string, error) {
	return a.createUGCPost(ctx, p, accessToken, "NONE", nil)
}

func (a *linkedInAdapter) publishWithImages(ctx context.Context, p PublishPayload, accessToken string) (string, error) {
	assets := make([]string, 0, len(p.MediaURLs))

	for _, imageURL := range p.MediaURLs {
		asset, uploadURL, err := a.registerUpload(ctx, p, accessToken)
		if err != nil {
			return "", err
		}

		if err := a.uploadImage(ctx, imageURL, uploadURL, accessToken); err != nil {
			return "", err
		}

		assets = append(assets, asset)
	}

	return a.createUGCPost(ctx, p, accessToken, "IMAGE", assets)
}

func (a *linkedInAdapter) registerUpload(ctx context.Context, p PublishPayload, accessToken string) (asset, uploadURL string, err error) {
	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   authorURN(p),
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}

	var result struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
		Message string `json:"message"`
	}

	url := fmt.Sprintf("%s/assets?action=registerUpload", a.cfg.LinkedInBaseURL)
	if err := a.postJSON(ctx, url, accessToken, payload, &result); err != nil {
		return "", "", err
	}

	mechanism, ok := result.Value.UploadMechanism["com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"]
	if !ok || mechanism.UploadURL == "" {
		return "", "", errors.New("failed to register upload")
	}

	return result.Value.Asset, mechanism.UploadURL, nil
}

// uploadImage fetches the source image and PUTs the bytes to the upload URL
// LinkedIn handed back.
func (a *linkedInAdapter) uploadImage(ctx context.Context, imageURL, uploadURL, accessToken string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	imgReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	imgResp, err := http.DefaultClient.Do(imgReq)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer imgResp.Body.Close()

	if imgResp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch image: %s", imageURL)
	}

	imageBytes, err := io.ReadAll(imgResp.Body)
	if err != nil {
		return fmt.Errorf("error reading image: %w", err)
	}

	contentType := imgResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(imageBytes))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	putReq.Header.Set("Authorization", "Bearer "+accessToken)
	putReq.Header.Set("Content-Type", contentType)

	putResp, err := http.DefaultClient.Do(putReq)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode >= 300 {
		return errors.New("failed to upload image to LinkedIn")
	}
	return nil
}

func (a *linkedInAdapter) createUGCPost(ctx context.Context, p PublishPayload, accessToken, mediaCategory string, assets []string) (string, error) {
	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": p.Text},
		"shareMediaCategory": mediaCategory,
	}
	if len(assets) > 0 {
		media := make([]map[string]string, 0, len(assets))
		for _, asset := range assets {
			media = append(media, map[string]string{"status": "READY", "media": asset})
		}
		shareContent["media"] = media
	}

	payload := map[string]any{
		"author":         authorURN(p),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var result struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}

	url := fmt.Sprintf("%s/ugcPosts", a.cfg.LinkedInBaseURL)
	if err := a.postJSON(ctx, url, accessToken, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no post id returned from LinkedIn")
	}

	return result.ID, nil
}

func (a *linkedInAdapter) postJSON(ctx context.Context, url, accessToken string, payload, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return fmt.Errorf("unexpected status code from LinkedIn: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}
