package config

import (
	"os"
	"strconv"
	"strings"

	"linkbatch/internal/model"
)

// TemplateConfig holds the ordered search paths probed for each platform's
// bundled template. The first existing file wins; uploads override the
// loaded snapshot in memory at runtime.
type TemplateConfig struct {
	InstagramPaths []string
	TikTokPaths    []string
}

// SearchPaths returns the per-platform path lists keyed for the registry.
func (t TemplateConfig) SearchPaths() map[model.Platform][]string {
	return map[model.Platform][]string{
		model.PlatformInstagram: t.InstagramPaths,
		model.PlatformTikTok:    t.TikTokPaths,
	}
}

// MinIOConfig holds object storage settings for optional archive
// publishing. Publishing is disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UseSSL           bool
	PresignExpirySec int
}

// Enabled reports whether archive publishing is configured.
func (m MinIOConfig) Enabled() bool { return m.Endpoint != "" }

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port             string
	DefaultBatchSize int
	Templates        TemplateConfig
	MinIO            MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:             getEnv("PORT", "8080"),
		DefaultBatchSize: getEnvInt("DEFAULT_BATCH_SIZE", 100),
		Templates: TemplateConfig{
			InstagramPaths: getEnvList("TEMPLATE_INSTAGRAM_PATHS", []string{
				"templates/IG_Influencers_100.xlsx",
				"IG_Influencers_100.xlsx",
			}),
			TikTokPaths: getEnvList("TEMPLATE_TIKTOK_PATHS", []string{
				"templates/Ven_TT_CVI.xlsx",
				"Ven_TT_CVI.xlsx",
			}),
		},
		MinIO: MinIOConfig{
			Endpoint:         getEnv("MINIO_ENDPOINT", ""),
			AccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:        getEnv("MINIO_SECRET_KEY", ""),
			Bucket:           getEnv("MINIO_BUCKET", "linkbatch-archives"),
			UseSSL:           getEnvBool("MINIO_USE_SSL", false),
			PresignExpirySec: getEnvInt("MINIO_PRESIGN_EXPIRY_SEC", 900),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
