// Package config loads process-wide settings once at startup. Values come
// from the environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
	StoreRedis  = "redis"

	BlobNone = "none"
	BlobS3   = "s3"
	BlobGCS  = "gcs"

	defaultSessionSecret = "secret_key"
)

type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"PORT"`

	MongoURI     string `mapstructure:"MONGODB_URI"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	AccountStore string `mapstructure:"ACCOUNT_STORE"`
	BcryptCost   int    `mapstructure:"BCRYPT_COST"`

	SessionSecret     string `mapstructure:"SESSION_SECRET"`
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`
	SessionTTLMinutes int    `mapstructure:"SESSION_TTL_MINUTES"`
	SessionStore      string `mapstructure:"SESSION_STORE"`
	CookieSecure      bool   `mapstructure:"COOKIE_SECURE"`
	CookieDomain      string `mapstructure:"COOKIE_DOMAIN"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AllowedOrigins []string `mapstructure:"-"`

	HospitalsAPIURL string `mapstructure:"HOSPITALS_API_URL"`

	BlobStore       string `mapstructure:"BLOB_STORE"`
	R2Bucket        string `mapstructure:"R2_BUCKET"`
	R2AccessKeyID   string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2SecretKey     string `mapstructure:"R2_SECRET_ACCESS_KEY"`
	R2Endpoint      string `mapstructure:"R2_ENDPOINT"`
	R2PublicDomain  string `mapstructure:"R2_PUBLIC_DOMAIN"`
	GCSBucket       string `mapstructure:"GCS_BUCKET"`
	GCSCredentials  string `mapstructure:"CREDENTIALS_FILE_LOCATION"`
	MaxUploadSizeMB int    `mapstructure:"MAX_UPLOAD_SIZE_MB"`

	AllowedFileExts  []string `mapstructure:"-"`
	AllowedFileMimes []string `mapstructure:"-"`

	AMQPURL string `mapstructure:"AMQP_URL"`

	AdminUsername     string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword     string `mapstructure:"ADMIN_PASSWORD"`
	AdminOrganisation string `mapstructure:"ADMIN_ORGANISATION"`
}

var keys = []string{
	"APP_ENV", "PORT",
	"MONGODB_URI", "DATABASE_NAME", "ACCOUNT_STORE", "BCRYPT_COST",
	"SESSION_SECRET", "SESSION_COOKIE_NAME", "SESSION_TTL_MINUTES", "SESSION_STORE",
	"COOKIE_SECURE", "COOKIE_DOMAIN",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"ALLOWED_ORIGINS", "HOSPITALS_API_URL",
	"BLOB_STORE", "R2_BUCKET", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_ENDPOINT", "R2_PUBLIC_DOMAIN",
	"GCS_BUCKET", "CREDENTIALS_FILE_LOCATION",
	"MAX_UPLOAD_SIZE_MB", "ALLOWED_FILE_EXTENSIONS", "ALLOWED_FILE_MIME_TYPES",
	"AMQP_URL",
	"ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_ORGANISATION",
}

// Load reads the .env file (if any) into the environment and builds a
// Config from it. It returns whether a .env file was found so the caller
// can log it once a logger exists.
func Load() (*Config, bool, error) {
	loadedDotenv := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "medicalPortal")
	v.SetDefault("ACCOUNT_STORE", StoreMongo)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("SESSION_COOKIE_NAME", "medportal.sid")
	v.SetDefault("SESSION_TTL_MINUTES", 0)
	v.SetDefault("SESSION_STORE", StoreMemory)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("HOSPITALS_API_URL", "https://api.example.com/nearby-hospitals")
	v.SetDefault("BLOB_STORE", BlobNone)
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 10)
	v.SetDefault("ALLOWED_FILE_EXTENSIONS", ".pdf,.jpg,.jpeg,.png")
	v.SetDefault("ALLOWED_FILE_MIME_TYPES", "application/pdf,image/jpeg,image/png")

	for _, k := range keys {
		v.MustBindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, loadedDotenv, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"), false)
	cfg.AllowedFileExts = splitList(v.GetString("ALLOWED_FILE_EXTENSIONS"), true)
	cfg.AllowedFileMimes = splitList(v.GetString("ALLOWED_FILE_MIME_TYPES"), true)

	if err := cfg.Validate(); err != nil {
		return nil, loadedDotenv, err
	}
	return cfg, loadedDotenv, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.AccountStore {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("ACCOUNT_STORE must be %q or %q, got %q", StoreMongo, StoreMemory, c.AccountStore)
	}
	switch c.SessionStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.SessionStore)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.SessionTTLMinutes < 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES cannot be negative")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET cannot be empty")
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	switch c.BlobStore {
	case BlobNone:
	case BlobS3:
		if c.R2Bucket == "" || c.R2AccessKeyID == "" || c.R2SecretKey == "" || c.R2Endpoint == "" {
			return fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
		}
	case BlobGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when BLOB_STORE=%s", BlobGCS)
		}
	default:
		return fmt.Errorf("BLOB_STORE must be one of none, s3, gcs; got %q", c.BlobStore)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UsesDefaultSecret reports whether sessions are signed with the built-in
// development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.SessionSecret == defaultSessionSecret
}

// SessionTTL is zero when sessions never expire.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

func splitList(raw string, lower bool) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if lower {
			item = strings.ToLower(item)
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
