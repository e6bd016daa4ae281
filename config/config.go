package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort     = 8080
	defaultMaxUploadBytes = 10 << 20
	defaultImportRating   = 1000
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	ImportMaxUploadBytes int64
	ImportDefaultRating  int

	// R2 включается только если заданы все пять параметров.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	GoogleServiceAccountJSON string
	CORSAllowedOrigins       []string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	maxUpload, err := intFromEnv("IMPORT_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("IMPORT_MAX_UPLOAD_BYTES must be positive, got %d", maxUpload)
	}

	rating, err := intFromEnv("IMPORT_DEFAULT_RATING", defaultImportRating)
	if err != nil {
		return nil, err
	}
	if rating < 0 {
		return nil, fmt.Errorf("IMPORT_DEFAULT_RATING must not be negative, got %d", rating)
	}

	cfg := &Config{
		DatabaseURL:              dbURL,
		JWTSecretKey:             jwtKey,
		ServerPort:               port,
		ImportMaxUploadBytes:     int64(maxUpload),
		ImportDefaultRating:      rating,
		R2AccountID:              os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:            os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:        os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:             os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:          os.Getenv("R2_PUBLIC_BASE_URL"),
		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CORSAllowedOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if set := cfg.r2FieldsSet(); set != 0 && set != 5 {
		return nil, fmt.Errorf("R2 storage is partially configured: set all of R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME, R2_PUBLIC_BASE_URL or none")
	}

	return cfg, nil
}

// R2Enabled сообщает, настроено ли хранилище отчётов об ошибках.
func (c *Config) R2Enabled() bool {
	return c.r2FieldsSet() == 5
}

func (c *Config) r2FieldsSet() int {
	n := 0
	for _, v := range []string{c.R2AccountID, c.R2AccessKeyID, c.R2SecretAccessKey, c.R2BucketName, c.R2PublicBaseURL} {
		if v != "" {
			n++
		}
	}
	return n
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
