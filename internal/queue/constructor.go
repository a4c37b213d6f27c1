package queue

import (
	"time"

	"github.com/postlane/postlane/internal/adapters"
	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/internal/service"
)

const (
	TaskTypePublish = "publish:post"
	QueueName       = "publish"

	// A publish attempt runs at most 3 times: the first delivery plus
	// MaxRetry redeliveries, spaced by RetryDelay.
	MaxRetry          = 2
	RetryBaseDelay    = 5 * time.Second
	WorkerConcurrency = 5

	// Tokens expiring inside this horizon are refreshed before publishing.
	refreshHorizon = 24 * time.Hour
)

type PublishPayload struct {
	PostChannelID string `json:"post_channel_id"`
}

// TaskID doubles as the cancellation key, so enqueueing twice for the same
// post-channel is a no-op.
func TaskID(postChannelID string) string {
	return "publish-" + postChannelID
}

type Queue struct {
	pr     repository.PostRepository
	pcr    repository.PostChannelRepository
	cr     repository.ChannelRepository
	pm     repository.PostMediaRepository
	meta   adapters.SocialAdapter
	li     adapters.SocialAdapter
	tokens service.TokenService
	events service.EventService
	key    []byte
}

func NewQueue(
	pr repository.PostRepository,
	pcr repository.PostChannelRepository,
	cr repository.ChannelRepository,
	pm repository.PostMediaRepository,
	meta adapters.SocialAdapter,
	li adapters.SocialAdapter,
	tokens service.TokenService,
	events service.EventService,
	key []byte) *Queue {
	return &Queue{
		pr:     pr,
		pcr:    pcr,
		cr:     cr,
		pm:     pm,
		meta:   meta,
		li:     li,
		tokens: tokens,
		events: events,
		key:    key,
	}
}

// adapterFor is a closed dispatch over the fixed provider set.
func (q *Queue) adapterFor(provider string) adapters.SocialAdapter {
	switch provider {
	case models.ProviderMeta:
		return q.meta
	case models.ProviderLinkedIn:
		return q.li
	default:
		return nil
	}
}
