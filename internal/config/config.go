package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge int

	// Disclosure
	// PreviewMode は非本番ビルドで全リダクションを無効化するフラグ。
	// プロセス起動時に1回だけ読み込み、以降は読み取り専用。
	// 判定関数へはViewerContext経由で注入される。
	PreviewMode bool

	// Gate
	GatePassword     string
	GateUnlockMaxAge int

	// Press
	PressFetchTimeout       time.Duration
	PressFetchMaxSize       int64
	PressFetchMaxConcurrent int
	PressFetchInterval      time.Duration
	PressRetentionDays      int

	// Entitlement
	EntitlementReloadInterval time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.PreviewMode = getEnvBool("PREVIEW_MODE", false)
	// GATE_PASSWORD未設定の場合、ゲートページは常にロックされたままになる
	cfg.GatePassword = getEnvString("GATE_PASSWORD", "")
	cfg.GateUnlockMaxAge = getEnvInt("GATE_UNLOCK_MAX_AGE", 30*24*60*60)
	cfg.PressFetchTimeout = getEnvDuration("PRESS_FETCH_TIMEOUT", 10*time.Second)
	cfg.PressFetchMaxSize = getEnvInt64("PRESS_FETCH_MAX_SIZE", 5242880)
	cfg.PressFetchMaxConcurrent = getEnvInt("PRESS_FETCH_MAX_CONCURRENT", 5)
	cfg.PressFetchInterval = getEnvDuration("PRESS_FETCH_INTERVAL", 30*time.Minute)
	cfg.PressRetentionDays = getEnvInt("PRESS_RETENTION_DAYS", 365)
	cfg.EntitlementReloadInterval = getEnvDuration("ENTITLEMENT_RELOAD_INTERVAL", 5*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
