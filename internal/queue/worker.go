package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/postlane/postlane/internal/adapters"
	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/transfer"
	"github.com/postlane/postlane/pkg/utils"
)

// HandlePublishTask is the asynq handler for publish tasks. Returning an
// error makes asynq redeliver the task; terminal failures are recorded on
// the post-channel and return nil.
func (q *Queue) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed publish payload: %v: %w", err, asynq.SkipRetry)
	}
	return q.publishPostChannel(ctx, payload.PostChannelID)
}

func (q *Queue) publishPostChannel(ctx context.Context, postChannelID string) error {
	pc, err := q.pcr.GetByID(ctx, postChannelID)
	if err != nil {
		return fmt.Errorf("failed to load post channel: %w", err)
	}
	if pc == nil {
		slog.Info("post channel no longer exists, skipping publish", "post_channel_id", postChannelID)
		return nil
	}
	if pc.Status == models.PostStatusPublished || pc.Status == models.PostStatusCancelled {
		slog.Info("post channel already settled, skipping publish",
			"post_channel_id", postChannelID, "status", pc.Status)
		return nil
	}

	post, err := q.pr.GetByID(ctx, pc.PostID)
	if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}
	channel, err := q.cr.GetByID(ctx, pc.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to load channel: %w", err)
	}
	if post == nil || channel == nil {
		slog.Info("post or channel no longer exists, skipping publish", "post_channel_id", postChannelID)
		return nil
	}

	mediaURLs, err := q.pm.ListURLsByPostID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to load post media: %w", err)
	}

	if err := q.pcr.UpdateStatus(ctx, postChannelID, models.PostStatusPublishing); err != nil {
		return fmt.Errorf("failed to mark post channel publishing: %w", err)
	}
	q.refreshGlobalStatus(ctx, post.ID)

	q.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: post.WorkspaceID,
		PostID:      post.ID,
		ChannelID:   channel.ID,
		Action:      "publish.start",
		Message:     fmt.Sprintf("Publishing to %s (%s)", channel.Name, channel.Type),
	})

	adapter := q.adapterFor(channel.Provider)
	if adapter == nil {
		q.failTerminal(ctx, pc, post, channel, "unsupported provider: "+channel.Provider, "publish.failed")
		return nil
	}

	payload := adapters.PublishPayload{
		Text:              post.Text,
		MediaURLs:         mediaURLs,
		ChannelExternalID: channel.ExternalID,
		ChannelType:       channel.Type,
	}

	if validation := adapter.Validate(payload); !validation.Valid {
		msg := "validation failed: " + strings.Join(validation.Errors, "; ")
		q.failTerminal(ctx, pc, post, channel, msg, "publish.validation_failed")
		return nil
	}

	channel, ok := q.ensureFreshToken(ctx, pc, post, channel)
	if !ok {
		return nil
	}

	accessToken, err := q.decryptToken(channel)
	if err != nil {
		slog.Error("failed to decrypt channel token", "channel_id", channel.ID, "error", err)
		if err := q.cr.SetNeedsReconnect(ctx, channel.ID, true); err != nil {
			slog.Error("failed to flag channel for reconnect", "channel_id", channel.ID, "error", err)
		}
		q.failTerminal(ctx, pc, post, channel,
			"failed to decrypt channel token; reconnect the channel", "publish.decrypt_failed")
		return nil
	}

	result := adapter.Publish(ctx, payload, accessToken)
	if result.Success {
		if err := q.pcr.SetPublished(ctx, postChannelID, result.ExternalPostID, time.Now()); err != nil {
			return fmt.Errorf("failed to record published post channel: %w", err)
		}
		q.events.LogEvent(ctx, transfer.Event{
			WorkspaceID: post.WorkspaceID,
			PostID:      post.ID,
			ChannelID:   channel.ID,
			Action:      "publish.success",
			Message:     fmt.Sprintf("Published to %s", channel.Name),
			Details:     map[string]any{"externalPostId": result.ExternalPostID},
		})
		q.refreshGlobalStatus(ctx, post.ID)
		return nil
	}

	if err := q.pcr.SetFailed(ctx, postChannelID, result.Error); err != nil {
		return fmt.Errorf("failed to record failed post channel: %w", err)
	}
	q.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: post.WorkspaceID,
		PostID:      post.ID,
		ChannelID:   channel.ID,
		Level:       models.LogLevelError,
		Action:      "publish.failed",
		Message:     fmt.Sprintf("Publish to %s failed: %s", channel.Name, result.Error),
		Details:     map[string]any{"errorCategory": result.ErrorCategory},
	})

	if result.ErrorCategory == adapters.CategoryAuth {
		if err := q.cr.SetNeedsReconnect(ctx, channel.ID, true); err != nil {
			slog.Error("failed to flag channel for reconnect", "channel_id", channel.ID, "error", err)
		}
	}
	q.refreshGlobalStatus(ctx, post.ID)

	// Transient categories go back to asynq for redelivery; the idempotency
	// guard above only skips settled rows, so the retry runs the pipeline
	// again from the FAILED state.
	if result.ErrorCategory == adapters.CategoryNetwork || result.ErrorCategory == adapters.CategoryRateLimit {
		return errors.New(result.Error)
	}
	return nil
}

// ensureFreshToken refreshes the channel token when it expires within the
// refresh horizon. A refresh failure is terminal only if the token is
// already expired; otherwise the current token is still usable.
func (q *Queue) ensureFreshToken(ctx context.Context, pc *models.PostChannel, post *models.Post, channel *models.Channel) (*models.Channel, bool) {
	if !channel.ExpiresAt.Valid {
		return channel, true
	}
	untilExpiry := time.Until(channel.ExpiresAt.Time)
	if untilExpiry >= refreshHorizon {
		return channel, true
	}

	_, refreshErr := q.tokens.RefreshChannelToken(ctx, channel)
	if refreshErr == nil {
		q.events.LogEvent(ctx, transfer.Event{
			WorkspaceID: post.WorkspaceID,
			PostID:      post.ID,
			ChannelID:   channel.ID,
			Action:      "token.refreshed",
			Message:     fmt.Sprintf("Refreshed token for %s before publishing", channel.Name),
		})
		reloaded, err := q.cr.GetByID(ctx, channel.ID)
		if err != nil || reloaded == nil {
			slog.Error("failed to reload channel after token refresh", "channel_id", channel.ID, "error", err)
			return channel, true
		}
		return reloaded, true
	}

	if untilExpiry <= 0 {
		slog.Error("channel token expired and refresh failed", "channel_id", channel.ID, "error", refreshErr)
		if err := q.cr.SetNeedsReconnect(ctx, channel.ID, true); err != nil {
			slog.Error("failed to flag channel for reconnect", "channel_id", channel.ID, "error", err)
		}
		q.failTerminal(ctx, pc, post, channel,
			"channel token expired and refresh failed; reconnect the channel", "token.expired")
		return channel, false
	}

	slog.Warn("token refresh failed, publishing with current token",
		"channel_id", channel.ID, "error", refreshErr)
	q.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: post.WorkspaceID,
		PostID:      post.ID,
		ChannelID:   channel.ID,
		Level:       models.LogLevelWarn,
		Action:      "token.refresh_failed",
		Message:     fmt.Sprintf("Token refresh failed for %s, using current token", channel.Name),
	})
	return channel, true
}

func (q *Queue) decryptToken(channel *models.Channel) (string, error) {
	if !channel.TokenEncrypted.Valid || channel.TokenEncrypted.String == "" {
		return "", errors.New("channel has no stored token")
	}
	token, err := utils.Decrypt(channel.TokenEncrypted.String, q.key)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// failTerminal records a non-retryable failure on the post-channel and
// recomputes the post's global status.
func (q *Queue) failTerminal(ctx context.Context, pc *models.PostChannel, post *models.Post, channel *models.Channel, message, action string) {
	if err := q.pcr.SetFailed(ctx, pc.ID, message); err != nil {
		slog.Error("failed to record failed post channel", "post_channel_id", pc.ID, "error", err)
	}
	q.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: post.WorkspaceID,
		PostID:      post.ID,
		ChannelID:   channel.ID,
		Level:       models.LogLevelError,
		Action:      action,
		Message:     fmt.Sprintf("Publish to %s failed: %s", channel.Name, message),
	})
	q.refreshGlobalStatus(ctx, post.ID)
}

func (q *Queue) refreshGlobalStatus(ctx context.Context, postID string) {
	statuses, err := q.pcr.ListStatusesByPostID(ctx, postID)
	if err != nil {
		slog.Error("failed to load post channel statuses", "post_id", postID, "error", err)
		return
	}
	if err := q.pr.UpdateGlobalStatus(ctx, postID, models.AggregatePostStatus(statuses)); err != nil {
		slog.Error("failed to update post status", "post_id", postID, "error", err)
	}
}
