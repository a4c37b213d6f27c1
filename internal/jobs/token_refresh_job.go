package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/internal/service"
)

type TokenRefreshJob struct {
	cr repository.ChannelRepository
	ts service.TokenService
}

func NewTokenRefreshJob(cr repository.ChannelRepository, ts service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{
		cr: cr,
		ts: ts,
	}
}

// RefreshTokens refreshes every channel token expiring within the next
// 30 minutes. The publish worker has its own 24h freshness check, so this
// sweep only has to catch channels with no publish scheduled.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	channels, err := c.cr.ListExpiring(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, ch := range channels {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(ch *models.Channel) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := c.ts.RefreshChannelToken(ctx, ch); err != nil {
				slog.Info("Unable to refresh channel token",
					"channel_id", ch.ID, "provider", ch.Provider)
			}
		}(ch)
	}

	wg.Wait()
}
