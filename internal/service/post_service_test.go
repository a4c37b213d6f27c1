package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type svcPostRepo struct {
	posts     map[string]*models.Post
	scheduled map[string]time.Time
	statuses  map[string]string
}

func (f *svcPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	f.posts[post.ID] = post
	return nil
}

func (f *svcPostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return f.posts[id], nil
}

func (f *svcPostRepo) GetByWorkspace(ctx context.Context, workspaceID, status string, page, pageSize int) ([]*models.Post, int, error) {
	return nil, 0, nil
}

func (f *svcPostRepo) UpdateGlobalStatus(ctx context.Context, id, status string) error {
	f.statuses[id] = status
	return nil
}

func (f *svcPostRepo) SetScheduled(ctx context.Context, id string, scheduledAt time.Time) error {
	f.scheduled[id] = scheduledAt
	if post, ok := f.posts[id]; ok {
		post.StatusGlobal = models.PostStatusScheduled
	}
	return nil
}

type svcPostChannelRepo struct {
	rows map[string]*models.PostChannel
}

func (f *svcPostChannelRepo) Create(ctx context.Context, tx *sql.Tx, pc *models.PostChannel) error {
	f.rows[pc.ID] = pc
	return nil
}

func (f *svcPostChannelRepo) GetByID(ctx context.Context, id string) (*models.PostChannel, error) {
	return f.rows[id], nil
}

func (f *svcPostChannelRepo) ListByPostID(ctx context.Context, postID string) ([]*models.PostChannel, error) {
	var out []*models.PostChannel
	for _, pc := range f.rows {
		if pc.PostID == postID {
			out = append(out, pc)
		}
	}
	return out, nil
}

func (f *svcPostChannelRepo) ListInfoByPostID(ctx context.Context, postID string) ([]*transfer.PostChannelInfo, error) {
	return nil, nil
}

func (f *svcPostChannelRepo) ListStatusesByPostID(ctx context.Context, postID string) ([]string, error) {
	var out []string
	for _, pc := range f.rows {
		if pc.PostID == postID {
			out = append(out, pc.Status)
		}
	}
	return out, nil
}

func (f *svcPostChannelRepo) UpdateStatus(ctx context.Context, id, status string) error {
	f.rows[id].Status = status
	return nil
}

func (f *svcPostChannelRepo) SetPublished(ctx context.Context, id, externalPostID string, publishedAt time.Time) error {
	return nil
}

func (f *svcPostChannelRepo) SetFailed(ctx context.Context, id, lastError string) error {
	return nil
}

func (f *svcPostChannelRepo) SetCancelled(ctx context.Context, id, cancelledByID string) error {
	pc := f.rows[id]
	pc.Status = models.PostStatusCancelled
	pc.CancelledByID = sql.NullString{String: cancelledByID, Valid: true}
	return nil
}

type svcUserRepo struct {
	users map[string]*models.User
}

func (f *svcUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.users[id], nil
}

type fakeScheduler struct {
	enqueued map[string]time.Duration
	removed  []string
}

func (f *fakeScheduler) Enqueue(ctx context.Context, postChannelID string, delay time.Duration) error {
	f.enqueued[postChannelID] = delay
	return nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, postChannelID string) (bool, error) {
	f.removed = append(f.removed, postChannelID)
	return true, nil
}

type eventSink struct {
	actions []string
}

func (f *eventSink) LogEvent(ctx context.Context, e transfer.Event) {
	f.actions = append(f.actions, e.Action)
}

func (f *eventSink) List(ctx context.Context, workspaceID string, limit int) ([]*models.EventLog, error) {
	return nil, nil
}

type postFixture struct {
	svc    *postService
	posts  *svcPostRepo
	pcs    *svcPostChannelRepo
	sched  *fakeScheduler
	events *eventSink
}

func newPostFixture() *postFixture {
	posts := &svcPostRepo{
		posts: map[string]*models.Post{
			"post1": {ID: "post1", WorkspaceID: "ws1", AuthorID: "u1", Text: "hello", StatusGlobal: models.PostStatusDraft},
		},
		scheduled: map[string]time.Time{},
		statuses:  map[string]string{},
	}
	pcs := &svcPostChannelRepo{
		rows: map[string]*models.PostChannel{
			"pc1": {ID: "pc1", PostID: "post1", ChannelID: "ch1", Status: models.PostStatusDraft},
			"pc2": {ID: "pc2", PostID: "post1", ChannelID: "ch2", Status: models.PostStatusDraft},
		},
	}
	sched := &fakeScheduler{enqueued: map[string]time.Duration{}}
	events := &eventSink{}

	svc := &postService{
		pr:  posts,
		pcr: pcs,
		ur: &svcUserRepo{users: map[string]*models.User{
			"u1": {ID: "u1", WorkspaceID: "ws1"},
		}},
		sched:    sched,
		events:   events,
		validate: validator.New(),
	}

	return &postFixture{svc: svc, posts: posts, pcs: pcs, sched: sched, events: events}
}

func TestSchedulePost(t *testing.T) {
	fx := newPostFixture()

	when := time.Now().Add(2 * time.Hour)
	err := fx.svc.SchedulePost(context.Background(), "u1", "post1", when.Format(time.RFC3339))
	require.NoError(t, err)

	assert.WithinDuration(t, when, fx.posts.scheduled["post1"], time.Second)
	for _, id := range []string{"pc1", "pc2"} {
		assert.Equal(t, models.PostStatusScheduled, fx.pcs.rows[id].Status)
		assert.InDelta(t, (2 * time.Hour).Seconds(), fx.sched.enqueued[id].Seconds(), 5)
	}
	assert.Contains(t, fx.events.actions, "post.scheduled")
}

func TestSchedulePostClampsPastTime(t *testing.T) {
	fx := newPostFixture()

	past := time.Now().Add(-time.Hour)
	err := fx.svc.SchedulePost(context.Background(), "u1", "post1", past.Format(time.RFC3339))
	require.NoError(t, err)

	for _, id := range []string{"pc1", "pc2"} {
		assert.Equal(t, time.Duration(0), fx.sched.enqueued[id])
	}
}

func TestSchedulePostRejectsNonDraft(t *testing.T) {
	fx := newPostFixture()
	fx.posts.posts["post1"].StatusGlobal = models.PostStatusScheduled

	err := fx.svc.SchedulePost(context.Background(), "u1", "post1",
		time.Now().Add(time.Hour).Format(time.RFC3339))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only draft posts")
}

func TestSchedulePostUnknownUser(t *testing.T) {
	fx := newPostFixture()

	err := fx.svc.SchedulePost(context.Background(), "nobody", "post1",
		time.Now().Add(time.Hour).Format(time.RFC3339))
	require.Error(t, err)
}

func TestCancelAllCancellableChannels(t *testing.T) {
	fx := newPostFixture()
	fx.pcs.rows["pc1"].Status = models.PostStatusScheduled
	fx.pcs.rows["pc2"].Status = models.PostStatusPublished

	err := fx.svc.Cancel(context.Background(), "u1", &transfer.CancelRequest{PostID: "post1"})
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusCancelled, fx.pcs.rows["pc1"].Status)
	assert.Equal(t, "u1", fx.pcs.rows["pc1"].CancelledByID.String)
	// Published channels are left alone.
	assert.Equal(t, models.PostStatusPublished, fx.pcs.rows["pc2"].Status)
	assert.Equal(t, []string{"pc1"}, fx.sched.removed)

	// CANCELLED + PUBLISHED aggregates to DRAFT per the precedence rules.
	assert.Equal(t, models.PostStatusDraft, fx.posts.statuses["post1"])
}

func TestCancelSingleChannel(t *testing.T) {
	fx := newPostFixture()
	fx.pcs.rows["pc1"].Status = models.PostStatusScheduled
	fx.pcs.rows["pc2"].Status = models.PostStatusScheduled

	err := fx.svc.Cancel(context.Background(), "u1", &transfer.CancelRequest{
		PostID:        "post1",
		PostChannelID: "pc2",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusScheduled, fx.pcs.rows["pc1"].Status)
	assert.Equal(t, models.PostStatusCancelled, fx.pcs.rows["pc2"].Status)
	assert.Equal(t, models.PostStatusScheduled, fx.posts.statuses["post1"])
}

func TestCancelSettledChannelFails(t *testing.T) {
	fx := newPostFixture()
	fx.pcs.rows["pc1"].Status = models.PostStatusPublished

	err := fx.svc.Cancel(context.Background(), "u1", &transfer.CancelRequest{
		PostID:        "post1",
		PostChannelID: "pc1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can no longer be cancelled")
}
