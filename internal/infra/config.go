package infra

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// PublicBaseURL prefixes minted download URLs.
	PublicBaseURL string

	// TempDir is the workspace for staged videos and extracted audio.
	TempDir string

	// RetentionWindow is how long an artifact stays downloadable before the
	// janitor purges it.
	RetentionWindow time.Duration
	SweepInterval   time.Duration

	FetchTimeout     time.Duration
	ExtractTimeout   time.Duration
	MaxDownloadBytes int64
	MaxWorkers       int
	FFmpegPath       string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		TempDir:          getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "audio-extractor")),
		RetentionWindow:  time.Second * time.Duration(getEnvInt("RETENTION_SECONDS", 3600)),
		SweepInterval:    time.Second * time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)),
		FetchTimeout:     time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 60)),
		ExtractTimeout:   time.Second * time.Duration(getEnvInt("EXTRACT_TIMEOUT_SECONDS", 120)),
		MaxDownloadBytes: int64(getEnvInt("MAX_DOWNLOAD_MB", 512)) * 1024 * 1024,
		MaxWorkers:       getEnvInt("MAX_WORKERS", 4),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if _, err := url.Parse(cfg.PublicBaseURL); err != nil {
		return nil, fmt.Errorf("PUBLIC_BASE_URL is invalid: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if cfg.MaxWorkers < 1 {
		return nil, fmt.Errorf("MAX_WORKERS must be at least 1")
	}
	if cfg.RetentionWindow <= 0 {
		return nil, fmt.Errorf("RETENTION_SECONDS must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive")
	}
	if cfg.MaxDownloadBytes <= 0 {
		return nil, fmt.Errorf("MAX_DOWNLOAD_MB must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
