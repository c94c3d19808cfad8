package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/shouni/gemini-jewelry-studio/pkg/generator"
)

// PersistenceMode は履歴の保存先が設定されているかどうかを表します。
type PersistenceMode string

const (
	// PersistenceConfigured は認証と履歴ストアが利用可能な状態です。
	PersistenceConfigured PersistenceMode = "configured"
	// PersistenceDegraded はデモモードです。生成は行いますが履歴は保存しません。
	PersistenceDegraded PersistenceMode = "degraded"
)

// BlobConfig は S3 互換オブジェクトストレージの設定です。
type BlobConfig struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	URLTTL          time.Duration
}

// Enabled は生成画像をオブジェクトストレージへ退避するかどうかを返します。
func (b BlobConfig) Enabled() bool {
	return b.Bucket != "" && b.AccessKeyID != "" && b.SecretAccessKey != ""
}

// Config はプロセス全体の設定です。起動時に1回だけ読み込み、以後は変更しません。
type Config struct {
	Addr           string
	AllowedOrigins []string

	Generator generator.Config

	SupabaseURL     string
	SupabaseAnonKey string
	DatabaseURL     string

	Blob          BlobConfig
	ThumbnailEdge int

	LogLevel        string
	DefaultLanguage language.Tag
}

// Load は .env (存在すれば) と環境変数から設定を読み込みます。
// GEMINI_API_KEY がなくてもエラーにはせず、生成の呼び出し時に ConfigurationError になります。
func Load() (Config, error) {
	// ファイルがなくてもエラーにしない
	_ = godotenv.Load(".env", ".env.local")

	ttl, err := time.ParseDuration(getEnv("BLOB_URL_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid BLOB_URL_TTL: %w", err)
	}
	edge, err := strconv.Atoi(getEnv("THUMBNAIL_EDGE", "512"))
	if err != nil || edge <= 0 {
		return Config{}, fmt.Errorf("invalid THUMBNAIL_EDGE: %q", os.Getenv("THUMBNAIL_EDGE"))
	}
	lang, err := language.Parse(getEnv("DEFAULT_LANGUAGE", "pt-BR"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DEFAULT_LANGUAGE: %w", err)
	}

	return Config{
		Addr:           getEnv("STUDIO_ADDR", ":8080"),
		AllowedOrigins: splitAndClean(os.Getenv("STUDIO_ALLOWED_ORIGINS")),
		Generator: generator.Config{
			APIKey:        getEnv("GEMINI_API_KEY", strings.TrimSpace(os.Getenv("API_KEY"))),
			ComposeModel:  getEnv("GEMINI_COMPOSE_MODEL", generator.DefaultComposeModel),
			CreativeModel: getEnv("GEMINI_CREATIVE_MODEL", generator.DefaultCreativeModel),
		},
		SupabaseURL:     strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Blob: BlobConfig{
			Endpoint:        getEnv("BLOB_ENDPOINT", ""),
			Bucket:          getEnv("BLOB_BUCKET", ""),
			AccessKeyID:     getEnv("BLOB_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BLOB_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("BLOB_REGION", "auto"),
			URLTTL:          ttl,
		},
		ThumbnailEdge:   edge,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DefaultLanguage: lang,
	}, nil
}

// Persistence は認証サービスと履歴ストアの両方が設定されているかを返します。
func (c Config) Persistence() PersistenceMode {
	if c.SupabaseURL != "" && c.SupabaseAnonKey != "" && c.DatabaseURL != "" {
		return PersistenceConfigured
	}
	return PersistenceDegraded
}

// SlogLevel は LOG_LEVEL を slog のレベルに変換します。未知の値は info です。
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func splitAndClean(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
