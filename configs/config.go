package config

import (
	"encoding/base64"
	"errors"
	"os"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	MetaAppID            string
	MetaAppSecret        string
	MetaBaseURL          string
	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInBaseURL      string
	LinkedInTokenURL     string
	PublishMode          string
	PostgresURI          string
	RedisURI             string
	ListenAddr           string
	FrontendURL          string
	R2                   R2
	EncryptionKey        string
	SecretKey            string
	CookieName           string
}

func LoadConfig() *Config {
	return &Config{
		MetaAppID:            getEnv("META_APP_ID", ""),
		MetaAppSecret:        getEnv("META_APP_SECRET", ""),
		MetaBaseURL:          getEnv("META_BASE_URL", "https://graph.facebook.com/v19.0"),
		LinkedInClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedInClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedInBaseURL:      getEnv("LINKEDIN_BASE_URL", "https://api.linkedin.com/v2"),
		LinkedInTokenURL:     getEnv("LINKEDIN_TOKEN_URL", "https://www.linkedin.com/oauth/v2/accessToken"),
		PublishMode:          getEnv("PUBLISH_MODE", "dryrun"),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", "localhost:6379"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":3000"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "postlane_token"),
	}
}

// CipherKey decodes ENCRYPTION_KEY and enforces the AES-256 key size.
func (c *Config) CipherKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, errors.New("ENCRYPTION_KEY must decode to 32 bytes")
	}
	return key, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
