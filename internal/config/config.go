package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the Hovver admin API.
type Config struct {
	App     AppConfig
	Server  ServerConfig
	Cognito CognitoConfig
	Storage StorageConfig
	Upload  UploadConfig
	Email   EmailConfig
	Metrics MetricsConfig
}

// AppConfig identifies the running application.
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CognitoConfig carries identity-provider settings.
type CognitoConfig struct {
	Region        string
	UserPoolID    string
	ClientID      string
	JWKSRefresh   time.Duration
	TokenLeeway   time.Duration
	CustomerGroup string
	AdminGroup    string
}

// JWKSURL returns the provider's published key-set endpoint.
func (c CognitoConfig) JWKSURL() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", c.Region, c.UserPoolID)
}

// StorageConfig carries object-store connection and bucket information.
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	PresignExpiry   time.Duration
}

// UploadConfig bounds accepted uploads.
type UploadConfig struct {
	MaxFileSize  int64
	AllowedTypes []string
}

// Allowed reports whether the content type is on the allow-list.
func (u UploadConfig) Allowed(contentType string) bool {
	for _, t := range u.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

// EmailConfig carries transactional-email settings.
type EmailConfig struct {
	SenderAddress string
	SenderName    string
	FrontendURL   string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		App: AppConfig{
			Name:        getString("HOVVER_APP_NAME", "Hovver Admin Dashboard"),
			Version:     getString("HOVVER_APP_VERSION", "0.1.0"),
			Environment: getString("HOVVER_ENVIRONMENT", "development"),
		},
		Server: ServerConfig{
			Host:         getString("HOVVER_API_HOST", "0.0.0.0"),
			Port:         getInt("HOVVER_API_PORT", 8080),
			ReadTimeout:  getDuration("HOVVER_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("HOVVER_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("HOVVER_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Cognito: CognitoConfig{
			Region:        getString("COGNITO_REGION", getString("AWS_REGION", "us-east-1")),
			UserPoolID:    getString("COGNITO_USER_POOL_ID", ""),
			ClientID:      getString("COGNITO_CLIENT_ID", ""),
			JWKSRefresh:   getDuration("COGNITO_JWKS_REFRESH", time.Hour),
			TokenLeeway:   getDuration("COGNITO_TOKEN_LEEWAY", 30*time.Second),
			CustomerGroup: getString("COGNITO_CUSTOMER_GROUP", "Customers"),
			AdminGroup:    getString("COGNITO_ADMIN_GROUP", "Admins"),
		},
		Storage: StorageConfig{
			Endpoint:        getString("S3_ENDPOINT", "s3.amazonaws.com"),
			AccessKeyID:     getString("S3_ACCESS_KEY_ID", os.Getenv("AWS_ACCESS_KEY_ID")),
			SecretAccessKey: getString("S3_SECRET_ACCESS_KEY", os.Getenv("AWS_SECRET_ACCESS_KEY")),
			Bucket:          getString("S3_BUCKET_NAME", ""),
			UseSSL:          getBool("S3_USE_SSL", true),
			Region:          getString("S3_REGION", getString("AWS_REGION", "us-east-1")),
			PresignExpiry:   getDuration("PRESIGNED_URL_EXPIRATION", time.Hour),
		},
		Upload: UploadConfig{
			MaxFileSize:  getInt64("MAX_FILE_SIZE", 10*1024*1024),
			AllowedTypes: getList("ALLOWED_IMAGE_TYPES", []string{"image/jpeg", "image/png", "image/webp", "image/gif"}),
		},
		Email: EmailConfig{
			SenderAddress: getString("SENDER_EMAIL", "noreply@samwylock.com"),
			SenderName:    getString("SENDER_NAME", "Hovver"),
			FrontendURL:   getString("FRONTEND_URL", "https://dev.samwylock.com"),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("HOVVER_METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Cognito.UserPoolID == "" {
		return Config{}, fmt.Errorf("COGNITO_USER_POOL_ID is required")
	}
	if cfg.Cognito.ClientID == "" {
		return Config{}, fmt.Errorf("COGNITO_CLIENT_ID is required")
	}
	if cfg.Storage.Bucket == "" {
		return Config{}, fmt.Errorf("S3_BUCKET_NAME is required")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
