package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func init() {
	_ = godotenv.Load()
}

const (
	SourceMySQL  = "mysql"
	SourceSanity = "sanity"
)

type Env struct {
	AppAddr string
	GinMode string
	Debug   bool

	ContentSource string
	RedisURL      string

	Sanity      SanityEnv
	Marketplace MarketplaceEnv

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string

	ItemsPerPage     int
	FilterDebounceMs int
	SliderIntervalMs int
	SessionTTLMin    int
	CORSOrigins      []string
	PDFFontPath      string
}

type SanityEnv struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
}

type MarketplaceEnv struct {
	APIURL string
	Token  string
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))

	source := strings.ToLower(envOr("CONTENT_SOURCE", SourceMySQL))
	if source != SourceSanity {
		source = SourceMySQL
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Env{
		AppAddr:       appAddr,
		GinMode:       ginMode,
		Debug:         envBool("APP_DEBUG", false),
		ContentSource: source,
		RedisURL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
		Sanity: SanityEnv{
			ProjectID:  envOr("SANITY_PROJECT_ID", "44ezgbz2"),
			Dataset:    envOr("SANITY_DATASET", "production"),
			APIVersion: envOr("SANITY_API_VERSION", "2026-01-20"),
			Token:      strings.TrimSpace(os.Getenv("SANITY_TOKEN")),
			UseCDN:     envBool("SANITY_USE_CDN", false),
		},
		Marketplace: MarketplaceEnv{
			APIURL: envOr("WB_API_URL", "https://content-api.wildberries.ru"),
			Token:  strings.TrimSpace(os.Getenv("WB_TOKEN")),
		},
		JWTSecret:         envOr("JWT_SECRET", "super-secret-key-change-me"),
		AdminUsername:     envOr("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),
		ItemsPerPage:      envInt("ITEMS_PER_PAGE", 12),
		FilterDebounceMs:  envInt("FILTER_DEBOUNCE_MS", 500),
		SliderIntervalMs:  envInt("SLIDER_INTERVAL_MS", 5000),
		SessionTTLMin:     envInt("SESSION_TTL_MIN", 30),
		CORSOrigins:       origins,
		PDFFontPath:       strings.TrimSpace(os.Getenv("PDF_FONT_PATH")),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envRaw(key string) string {
	return os.Getenv(key)
}
