package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Scheduler wraps the asynq client so services can enqueue and cancel
// publish tasks without knowing about Redis.
type Scheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewScheduler(redis asynq.RedisClientOpt) *Scheduler {
	return &Scheduler{
		client:    asynq.NewClient(redis),
		inspector: asynq.NewInspector(redis),
	}
}

func (s *Scheduler) Close() error {
	return s.client.Close()
}

// Enqueue schedules a publish task for the post-channel. The task id is
// derived from the post-channel id, so enqueueing the same post-channel
// twice leaves the earlier task in place.
func (s *Scheduler) Enqueue(ctx context.Context, postChannelID string, delay time.Duration) error {
	payload, err := json.Marshal(PublishPayload{PostChannelID: postChannelID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublish, payload)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.TaskID(TaskID(postChannelID)),
		asynq.Queue(QueueName),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(MaxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		slog.Info("publish task already enqueued", "post_channel_id", postChannelID)
		return nil
	}
	return err
}

// Cancel removes the pending task for the post-channel. Returns false when
// there was nothing to remove, which happens when the task already ran or
// was never enqueued.
func (s *Scheduler) Cancel(ctx context.Context, postChannelID string) (bool, error) {
	err := s.inspector.DeleteTask(QueueName, TaskID(postChannelID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return false, nil
	}
	return false, err
}

// RetryDelay spaces redeliveries at 5s, 10s, 20s. n is 1-based: the number
// of times the task has been retried, per asynq's RetryDelayFunc contract.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 1 {
		n = 1
	}
	return RetryBaseDelay << (n - 1)
}
