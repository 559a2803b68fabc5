package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret       string
	JWTAccessTTLHrs int

	// Blob storage. Backend is "disk" or "s3". With the disk backend this
	// process serves /uploads itself and BaseURL points at it; with s3 the
	// deployment must front the bucket at <BaseURL>/uploads/ (CDN or
	// reverse proxy), since the API never proxies bucket objects.
	BlobBackend string
	UploadDir   string
	AssetsDir   string
	BaseURL     string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// Story-list cache. Empty RedisAddr means in-process cache only.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTLPEndpoint string

	CORSOrigins  []string
	MaxBodyBytes int64
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8000),

		DBURL: buildDBURL(),

		JWTSecret:       getEnv("ACCESS_TOKEN_SECRET", ""),
		JWTAccessTTLHrs: getEnvInt("ACCESS_TOKEN_TTL_HOURS", 72),

		BlobBackend: getEnv("BLOB_BACKEND", "disk"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		AssetsDir:   getEnv("ASSETS_DIR", "./assets"),
		BaseURL:     getEnv("PUBLIC_BASE_URL", "http://localhost:8000"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "travelstory-uploads"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "*")),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),
	}
}

// PlaceholderImageURL is the sentinel asset a story falls back to when an edit
// clears its image reference.
func (c Config) PlaceholderImageURL() string {
	return c.BaseURL + "/assets/placeholder.png"
}

func (c Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLHrs) * time.Hour
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "travelstory")
	pass := getEnv("DB_PASSWORD", "travelstory")
	name := getEnv("DB_NAME", "travelstory")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}

	return fallback
}
