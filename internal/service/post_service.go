package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/internal/transfer"
)

// PublishScheduler is the producer-side face of the job queue. Enqueue is an
// idempotent upsert keyed by the post-channel id; Cancel only removes jobs
// that have not been delivered yet.
type PublishScheduler interface {
	Enqueue(ctx context.Context, postChannelID string, delay time.Duration) error
	Cancel(ctx context.Context, postChannelID string) (bool, error)
}

type PostService interface {
	CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, error)
	SchedulePost(ctx context.Context, userID, postID, scheduledAt string) error
	Cancel(ctx context.Context, userID string, req *transfer.CancelRequest) error
	List(ctx context.Context, userID, status string, page, pageSize int) (*transfer.PostList, error)
	PostInfo(ctx context.Context, userID, postID string) (*transfer.PostDetail, error)
}

type postService struct {
	db       *sql.DB
	pr       repository.PostRepository
	pcr      repository.PostChannelRepository
	cr       repository.ChannelRepository
	ur       repository.UserRepository
	ma       repository.MediaAssetRepository
	pm       repository.PostMediaRepository
	r2       *R2Service
	sched    PublishScheduler
	events   EventService
	validate *validator.Validate
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	pcr repository.PostChannelRepository,
	cr repository.ChannelRepository,
	ur repository.UserRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	r2 *R2Service,
	sched PublishScheduler,
	events EventService) PostService {
	return &postService{
		db:       db,
		pr:       pr,
		pcr:      pcr,
		cr:       cr,
		ur:       ur,
		ma:       ma,
		pm:       pm,
		r2:       r2,
		sched:    sched,
		events:   events,
		validate: validator.New(),
	}
}

func (s *postService) CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, error) {
	if pc == nil {
		return "", errors.New("post creation data is nil")
	}
	if err := s.validate.Struct(pc); err != nil {
		return "", fmt.Errorf("invalid post data: %w", err)
	}

	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errors.New("user not found")
	}

	var channelIDs []string
	if err := json.Unmarshal([]byte(pc.ChannelIDs), &channelIDs); err != nil {
		return "", fmt.Errorf("invalid channel ids format: %w", err)
	}
	if len(channelIDs) == 0 {
		return "", errors.New("no channels selected")
	}

	channels, err := s.cr.ListByIDs(ctx, user.WorkspaceID, channelIDs)
	if err != nil {
		return "", fmt.Errorf("error checking channels: %w", err)
	}
	if len(channels) != len(channelIDs) {
		return "", errors.New("one or more channels are unknown")
	}
	for _, ch := range channels {
		if !ch.Connected {
			return "", fmt.Errorf("channel %s is disconnected", ch.Name)
		}
		if ch.NeedsReconnect {
			return "", fmt.Errorf("channel %s needs to be reconnected before scheduling", ch.Name)
		}
	}

	var scheduledAt sql.NullTime
	if pc.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, pc.ScheduledAt)
		if err != nil {
			return "", fmt.Errorf("invalid scheduled time format: %w", err)
		}
		scheduledAt = sql.NullTime{Time: t, Valid: true}
	}

	status := models.PostStatusDraft
	if scheduledAt.Valid {
		status = models.PostStatusScheduled
	}

	postID, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		ID:           postID,
		WorkspaceID:  user.WorkspaceID,
		AuthorID:     userID,
		Text:         pc.Text,
		StatusGlobal: status,
		ScheduledAt:  scheduledAt,
	}
	if err = s.pr.Create(ctx, tx, &post); err != nil {
		return "", fmt.Errorf("error creating post: %w", err)
	}

	postChannelIDs := make([]string, 0, len(channelIDs))
	for _, channelID := range channelIDs {
		var pcID string
		pcID, err = gonanoid.New()
		if err != nil {
			return "", err
		}
		postChannel := models.PostChannel{
			ID:        pcID,
			PostID:    postID,
			ChannelID: channelID,
			Status:    status,
		}
		if err = s.pcr.Create(ctx, tx, &postChannel); err != nil {
			return "", fmt.Errorf("error creating post channel: %w", err)
		}
		postChannelIDs = append(postChannelIDs, pcID)
	}

	if err = s.processFiles(ctx, tx, userID, postID, files); err != nil {
		return "", fmt.Errorf("error processing files: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: user.WorkspaceID,
		PostID:      postID,
		UserID:      userID,
		Action:      "post.created",
		Message:     fmt.Sprintf("Post created: %q", truncate(pc.Text, 50)),
	})

	if scheduledAt.Valid {
		delay := time.Until(scheduledAt.Time)
		if delay < 0 {
			delay = 0
		}
		for _, pcID := range postChannelIDs {
			if err := s.sched.Enqueue(ctx, pcID, delay); err != nil {
				return "", fmt.Errorf("error scheduling post: %w", err)
			}
		}
		s.events.LogEvent(ctx, transfer.Event{
			WorkspaceID: user.WorkspaceID,
			PostID:      postID,
			UserID:      userID,
			Action:      "post.scheduled",
			Message:     fmt.Sprintf("Post scheduled for %s", scheduledAt.Time.Format(time.RFC3339)),
		})
	}

	return postID, nil
}

// SchedulePost moves a draft post and all its channels to SCHEDULED and
// enqueues one job per channel. Past timestamps clamp to immediate delivery.
func (s *postService) SchedulePost(ctx context.Context, userID, postID, scheduledAt string) error {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.WorkspaceID != user.WorkspaceID {
		return errors.New("post not found")
	}
	if post.StatusGlobal != models.PostStatusDraft {
		return errors.New("only draft posts can be scheduled")
	}

	t, err := time.Parse(time.RFC3339, scheduledAt)
	if err != nil {
		return fmt.Errorf("invalid scheduled time format: %w", err)
	}

	if err := s.pr.SetScheduled(ctx, postID, t); err != nil {
		return fmt.Errorf("error scheduling post: %w", err)
	}

	delay := time.Until(t)
	if delay < 0 {
		delay = 0
	}

	postChannels, err := s.pcr.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}
	for _, pc := range postChannels {
		if err := s.pcr.UpdateStatus(ctx, pc.ID, models.PostStatusScheduled); err != nil {
			return err
		}
		if err := s.sched.Enqueue(ctx, pc.ID, delay); err != nil {
			return fmt.Errorf("error enqueueing publish job: %w", err)
		}
	}

	s.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: user.WorkspaceID,
		PostID:      postID,
		UserID:      userID,
		Action:      "post.scheduled",
		Message:     fmt.Sprintf("Post scheduled for %s", t.Format(time.RFC3339)),
	})

	return nil
}

// Cancel cancels one post-channel, or every cancellable one when no
// post-channel id is given. Jobs already picked up by a worker run to
// completion; cancelling them is a no-op here.
func (s *postService) Cancel(ctx context.Context, userID string, req *transfer.CancelRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid cancel request: %w", err)
	}

	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	post, err := s.pr.GetByID(ctx, req.PostID)
	if err != nil {
		return err
	}
	if post == nil || post.WorkspaceID != user.WorkspaceID {
		return errors.New("post not found")
	}

	postChannels, err := s.pcr.ListByPostID(ctx, req.PostID)
	if err != nil {
		return err
	}

	cancelled := 0
	for _, pc := range postChannels {
		if req.PostChannelID != "" && pc.ID != req.PostChannelID {
			continue
		}
		if pc.Status != models.PostStatusDraft && pc.Status != models.PostStatusScheduled {
			if req.PostChannelID != "" {
				return errors.New("post channel can no longer be cancelled")
			}
			continue
		}

		if _, err := s.sched.Cancel(ctx, pc.ID); err != nil {
			slog.Warn("failed to remove publish job", "post_channel_id", pc.ID, "error", err)
		}
		if err := s.pcr.SetCancelled(ctx, pc.ID, userID); err != nil {
			return err
		}
		cancelled++
	}

	if req.PostChannelID != "" && cancelled == 0 {
		return errors.New("post channel not found")
	}

	statuses, err := s.pcr.ListStatusesByPostID(ctx, req.PostID)
	if err != nil {
		return err
	}
	if err := s.pr.UpdateGlobalStatus(ctx, req.PostID, models.AggregatePostStatus(statuses)); err != nil {
		return err
	}

	s.events.LogEvent(ctx, transfer.Event{
		WorkspaceID: user.WorkspaceID,
		PostID:      req.PostID,
		UserID:      userID,
		Action:      "post.cancelled",
		Message:     fmt.Sprintf("Cancelled %d channel(s)", cancelled),
	})

	return nil
}

func (s *postService) List(ctx context.Context, userID, status string, page, pageSize int) (*transfer.PostList, error) {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	posts, total, err := s.pr.GetByWorkspace(ctx, user.WorkspaceID, status, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	return &transfer.PostList{Posts: posts, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *postService) PostInfo(ctx context.Context, userID, postID string) (*transfer.PostDetail, error) {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.WorkspaceID != user.WorkspaceID {
		return nil, errors.New("post not found")
	}

	channels, err := s.pcr.ListInfoByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	media, err := s.pm.ListURLsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &transfer.PostDetail{Post: post, Channels: channels, Media: media}, nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, userID, postID string, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"jpeg": {}, "jpg": {}, "png": {}, "gif": {}, "webp": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return errors.New("unsupported file type")
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := gonanoid.New()
		if err != nil {
			return err
		}
		if err := s.r2.UploadToR2(ctx, assetID, fileBytes, fileType.MIME.Value); err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		asset := models.MediaAsset{
			ID:       assetID,
			UserID:   userID,
			FileName: file.Filename,
			FileType: fileType.MIME.Value,
			FileSize: int64(len(fileBytes)),
			FileURL:  s.r2.PublicURL(assetID),
		}
		if err := s.ma.Create(ctx, tx, &asset); err != nil {
			return fmt.Errorf("error saving media asset: %w", err)
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.pm.Create(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
