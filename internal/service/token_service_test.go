package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/postlane/postlane/configs"
	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte{0x07}, 32)

type tokenChannelRepo struct {
	setTokenCalls int
	lastToken     string
	lastRefresh   sql.NullString
	lastExpiresAt sql.NullTime
}

func (f *tokenChannelRepo) Create(ctx context.Context, ch *models.Channel) error { return nil }
func (f *tokenChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	return nil, nil
}
func (f *tokenChannelRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.Channel, error) {
	return nil, nil
}
func (f *tokenChannelRepo) ListByIDs(ctx context.Context, workspaceID string, ids []string) ([]*models.Channel, error) {
	return nil, nil
}
func (f *tokenChannelRepo) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Channel, error) {
	return nil, nil
}
func (f *tokenChannelRepo) SetToken(ctx context.Context, id string, tokenEncrypted string, refreshTokenEncrypted sql.NullString, expiresAt sql.NullTime) error {
	f.setTokenCalls++
	f.lastToken = tokenEncrypted
	f.lastRefresh = refreshTokenEncrypted
	f.lastExpiresAt = expiresAt
	return nil
}
func (f *tokenChannelRepo) SetNeedsReconnect(ctx context.Context, id string, needsReconnect bool) error {
	return nil
}
func (f *tokenChannelRepo) SetConnected(ctx context.Context, id string, connected bool) error {
	return nil
}

func encryptedOrFail(t *testing.T, plaintext string) sql.NullString {
	t.Helper()
	enc, err := utils.Encrypt([]byte(plaintext), testKey)
	require.NoError(t, err)
	return sql.NullString{String: enc, Valid: true}
}

func TestRefreshMetaToken(t *testing.T) {
	var gotGrantType, gotExchangeToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotGrantType = r.URL.Query().Get("grant_type")
		gotExchangeToken = r.URL.Query().Get("fb_exchange_token")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "new-long-lived-token",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	repo := &tokenChannelRepo{}
	svc := NewTokenService(config.Config{
		MetaAppID:     "app",
		MetaAppSecret: "secret",
		MetaBaseURL:   server.URL,
	}, repo, testKey)

	channel := &models.Channel{
		ID:             "ch1",
		Provider:       models.ProviderMeta,
		TokenEncrypted: encryptedOrFail(t, "current-token"),
	}

	refreshed, err := svc.RefreshChannelToken(context.Background(), channel)
	require.NoError(t, err)

	assert.Equal(t, "fb_exchange_token", gotGrantType)
	assert.Equal(t, "current-token", gotExchangeToken)
	assert.Equal(t, "new-long-lived-token", refreshed.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), refreshed.ExpiresAt, time.Minute)

	require.Equal(t, 1, repo.setTokenCalls)
	decrypted, err := utils.Decrypt(repo.lastToken, testKey)
	require.NoError(t, err)
	assert.Equal(t, "new-long-lived-token", string(decrypted))
	assert.True(t, repo.lastExpiresAt.Valid)
}

func TestRefreshMetaTokenDefaultExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok"})
	}))
	defer server.Close()

	repo := &tokenChannelRepo{}
	svc := NewTokenService(config.Config{
		MetaAppID:     "app",
		MetaAppSecret: "secret",
		MetaBaseURL:   server.URL,
	}, repo, testKey)

	refreshed, err := svc.RefreshChannelToken(context.Background(), &models.Channel{
		ID:             "ch1",
		Provider:       models.ProviderMeta,
		TokenEncrypted: encryptedOrFail(t, "current"),
	})
	require.NoError(t, err)

	// ~60 days when the provider omits expires_in.
	assert.WithinDuration(t, time.Now().Add(60*24*time.Hour), refreshed.ExpiresAt, time.Hour)
}

func TestRefreshMetaTokenProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Error validating application"},
		})
	}))
	defer server.Close()

	repo := &tokenChannelRepo{}
	svc := NewTokenService(config.Config{
		MetaAppID:     "app",
		MetaAppSecret: "secret",
		MetaBaseURL:   server.URL,
	}, repo, testKey)

	_, err := svc.RefreshChannelToken(context.Background(), &models.Channel{
		ID:             "ch1",
		Provider:       models.ProviderMeta,
		TokenEncrypted: encryptedOrFail(t, "current"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error validating application")
	assert.Zero(t, repo.setTokenCalls)
}

func TestRefreshLinkedInToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "stored-refresh", r.FormValue("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "li-access",
			"refresh_token": "li-refresh-next",
			"expires_in":    5184000,
		})
	}))
	defer server.Close()

	repo := &tokenChannelRepo{}
	svc := NewTokenService(config.Config{
		LinkedInClientID:     "client",
		LinkedInClientSecret: "secret",
		LinkedInTokenURL:     server.URL,
	}, repo, testKey)

	channel := &models.Channel{
		ID:                    "ch2",
		Provider:              models.ProviderLinkedIn,
		TokenEncrypted:        encryptedOrFail(t, "old-access"),
		RefreshTokenEncrypted: encryptedOrFail(t, "stored-refresh"),
	}

	refreshed, err := svc.RefreshChannelToken(context.Background(), channel)
	require.NoError(t, err)
	assert.Equal(t, "li-access", refreshed.AccessToken)
	assert.Equal(t, "li-refresh-next", refreshed.RefreshToken)

	require.Equal(t, 1, repo.setTokenCalls)
	require.True(t, repo.lastRefresh.Valid)
	decrypted, err := utils.Decrypt(repo.lastRefresh.String, testKey)
	require.NoError(t, err)
	assert.Equal(t, "li-refresh-next", string(decrypted))
}

func TestRefreshLinkedInTokenWithoutRefreshToken(t *testing.T) {
	repo := &tokenChannelRepo{}
	svc := NewTokenService(config.Config{
		LinkedInClientID:     "client",
		LinkedInClientSecret: "secret",
	}, repo, testKey)

	_, err := svc.RefreshChannelToken(context.Background(), &models.Channel{
		ID:       "ch2",
		Provider: models.ProviderLinkedIn,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no refresh token")
	assert.Zero(t, repo.setTokenCalls)
}

func TestRefreshUnknownProvider(t *testing.T) {
	svc := NewTokenService(config.Config{}, &tokenChannelRepo{}, testKey)

	_, err := svc.RefreshChannelToken(context.Background(), &models.Channel{Provider: "TIKTOK"})
	require.Error(t, err)
}
