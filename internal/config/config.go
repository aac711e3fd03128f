package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	APIKey     string
	CORSOrigin string

	// Document store / issue tracker coordinates
	GitHubToken  string
	GitHubOwner  string
	GitHubRepo   string
	CompatPath   string
	CompatBranch string

	// Discord
	DiscordPublicKey    string
	DiscordWebhookURL   string
	DiscordBoardMessage string

	// Pending interaction sessions
	RedisURL   string
	SessionTTL time.Duration

	SiteBaseURL string

	// Attachment mirror — empty endpoint disables it
	MirrorEndpoint  string
	MirrorAccessKey string
	MirrorSecretKey string
	MirrorBucket    string
	MirrorPublicURL string
	MirrorUseSSL    bool
}

func Load() Config {
	return Config{
		Addr:       getenv("API_ADDR", ":8787"),
		APIKey:     getenv("API_KEY", ""),
		CORSOrigin: getenv("CORS_ORIGIN", "*"),

		GitHubToken:  getenv("GITHUB_TOKEN", ""),
		GitHubOwner:  getenv("GITHUB_OWNER", "xenios-jp"),
		GitHubRepo:   getenv("GITHUB_REPO", "xenios.jp"),
		CompatPath:   getenv("COMPAT_PATH", "data/compatibility.json"),
		CompatBranch: getenv("COMPAT_BRANCH", "main"),

		DiscordPublicKey:    getenv("DISCORD_PUBLIC_KEY", ""),
		DiscordWebhookURL:   getenv("DISCORD_WEBHOOK", ""),
		DiscordBoardMessage: getenv("DISCORD_BOARD_MESSAGE_ID", ""),

		RedisURL:   getenv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: time.Duration(getenvInt("SESSION_TTL_SECONDS", 600)) * time.Second,

		SiteBaseURL: getenv("SITE_BASE_URL", "https://xenios.jp"),

		MirrorEndpoint:  getenv("MIRROR_ENDPOINT", ""),
		MirrorAccessKey: getenv("MIRROR_ACCESS_KEY", ""),
		MirrorSecretKey: getenv("MIRROR_SECRET_KEY", ""),
		MirrorBucket:    getenv("MIRROR_BUCKET", "xenios-compat"),
		MirrorPublicURL: getenv("MIRROR_PUBLIC_URL", ""),
		MirrorUseSSL:    getenvBool("MIRROR_USE_SSL", true),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
