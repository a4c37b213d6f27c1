package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	config "github.com/postlane/postlane/configs"
	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/internal/transfer"
	"github.com/postlane/postlane/pkg/utils"
	"golang.org/x/oauth2"
)

// Meta long-lived tokens default to ~60 days when the exchange response
// omits expires_in.
const metaDefaultExpirySeconds = 5184000

// TokenService renews a channel's provider credential. On success the new
// token material is re-encrypted and persisted and needs_reconnect is
// cleared before the result is returned.
type TokenService interface {
	RefreshChannelToken(ctx context.Context, channel *models.Channel) (*transfer.RefreshedToken, error)
}

type tokenService struct {
	cfg config.Config
	cr  repository.ChannelRepository
	key []byte
}

func NewTokenService(cfg config.Config, cr repository.ChannelRepository, key []byte) TokenService {
	return &tokenService{cfg: cfg, cr: cr, key: key}
}

func (s *tokenService) RefreshChannelToken(ctx context.Context, channel *models.Channel) (*transfer.RefreshedToken, error) {
	var refreshed *transfer.RefreshedToken
	var err error

	switch channel.Provider {
	case models.ProviderMeta:
		refreshed, err = s.refreshMetaToken(ctx, channel)
	case models.ProviderLinkedIn:
		refreshed, err = s.refreshLinkedInToken(ctx, channel)
	default:
		err = fmt.Errorf("unknown provider: %s", channel.Provider)
	}
	if err != nil {
		return nil, err
	}

	encryptedToken, err := utils.Encrypt([]byte(refreshed.AccessToken), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt refreshed token: %w", err)
	}

	var encryptedRefresh sql.NullString
	if refreshed.RefreshToken != "" {
		enc, err := utils.Encrypt([]byte(refreshed.RefreshToken), s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		encryptedRefresh = sql.NullString{String: enc, Valid: true}
	}

	expiresAt := sql.NullTime{Time: refreshed.ExpiresAt, Valid: !refreshed.ExpiresAt.IsZero()}
	if err := s.cr.SetToken(ctx, channel.ID, encryptedToken, encryptedRefresh, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	return refreshed, nil
}

// refreshMetaToken exchanges the current long-lived token for a new one via
// the fb_exchange_token grant.
func (s *tokenService) refreshMetaToken(ctx context.Context, channel *models.Channel) (*transfer.RefreshedToken, error) {
	if !channel.TokenEncrypted.Valid {
		return nil, errors.New("no token to refresh")
	}
	if s.cfg.MetaAppID == "" || s.cfg.MetaAppSecret == "" {
		return nil, errors.New("Meta app credentials not configured")
	}

	currentToken, err := utils.Decrypt(channel.TokenEncrypted.String, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt current token: %w", err)
	}

	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", s.cfg.MetaAppID)
	params.Set("client_secret", s.cfg.MetaAppSecret)
	params.Set("fb_exchange_token", string(currentToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/oauth/access_token?%s", s.cfg.MetaBaseURL, params.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		Error       *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if result.Error != nil {
		return nil, errors.New(result.Error.Message)
	}
	if result.AccessToken == "" {
		return nil, errors.New("token refresh failed")
	}

	expiresIn := result.ExpiresIn
	if expiresIn == 0 {
		expiresIn = metaDefaultExpirySeconds
	}

	return &transfer.RefreshedToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// refreshLinkedInToken runs the standard refresh_token grant; fatal when the
// channel has no stored refresh token.
func (s *tokenService) refreshLinkedInToken(ctx context.Context, channel *models.Channel) (*transfer.RefreshedToken, error) {
	if !channel.RefreshTokenEncrypted.Valid {
		return nil, errors.New("no refresh token available")
	}
	if s.cfg.LinkedInClientID == "" || s.cfg.LinkedInClientSecret == "" {
		return nil, errors.New("LinkedIn app credentials not configured")
	}

	refreshToken, err := utils.Decrypt(channel.RefreshTokenEncrypted.String, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     s.cfg.LinkedInClientID,
		ClientSecret: s.cfg.LinkedInClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.cfg.LinkedInTokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: string(refreshToken)}).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	return &transfer.RefreshedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}
