package config

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const defaultJWTSecret = "not-so-secret-now-is-it?"

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	PublicBaseURL   string
}

// Enabled reports whether enough of the R2 block is set to build a client.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Config struct {
	DB_URL            string
	Port              string
	JWTSecret         string
	TokenTTL          time.Duration
	Environment       string
	PublicBaseURL     string
	MediaDir          string
	ThumbnailMaxBytes int64
	RedisURL          string
	CorsConfig        cors.Options
	R2                R2Config
	Google            GoogleConfig
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate rejects settings that are only acceptable for local development.
func (c Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		return errors.New("JWT_ACCESS_TOKEN_EXPIRES_MINUTES must be positive")
	}
	if c.ThumbnailMaxBytes <= 0 {
		return errors.New("THUMBNAIL_MAX_BYTES must be positive")
	}
	return nil
}

// Load reads ENV_FILE (default .env) when present and builds the Config from the environment.
func Load() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	port := getEnv("PORT", "8080")

	return Config{
		DB_URL:            getEnv("DB_URL", "sqlite://inkwell.db"),
		Port:              port,
		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:          time.Duration(getEnvInt("JWT_ACCESS_TOKEN_EXPIRES_MINUTES", 480)) * time.Minute,
		Environment:       getEnv("ENV", "development"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		MediaDir:          getEnv("MEDIA_DIR", "posts"),
		ThumbnailMaxBytes: int64(getEnvInt("THUMBNAIL_MAX_BYTES", 5<<20)),
		RedisURL:          getEnv("REDIS_URL", ""),
		CorsConfig:        CorsConfig(getEnvList("CORS_ALLOWED_ORIGINS", defaultOrigins)),
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", ""),
			Region:          getEnv("R2_REGION", "auto"),
			PublicBaseURL:   getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:"+port+"/api/auth/google/callback"),
		},
	}
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var defaultOrigins = []string{
	"http://localhost:8081",
	"http://10.0.2.2",
	"http://127.0.0.1",
	"http://192.168.1.57",
}

func CorsConfig(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
	}
}
