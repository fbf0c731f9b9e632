package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ListenAddr string

	CacheDir        string
	CacheTTLMinutes int

	FetchTimeoutSec int
	MaxConcurrency  int
	RateLimitMs     int

	// Flyer aggregator (Family A) endpoints. SearchURL receives url.Values;
	// ItemsURL is a printf template taking flyer name and run id.
	FlyerSearchURL string
	FlyerItemsURL  string

	// Storefront (Family B) endpoints.
	StorefrontName       string
	StorefrontFlyerURL   string
	StorefrontGraphQLURL string
	StorefrontCategoryID string

	StoresFile string

	// One-shot cache warming mode (scheduled runs).
	RunOnce        bool
	WarmPostalCode string

	// Optional Postgres deal archive.
	ArchiveEnabled   bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8787"),

		CacheDir:        getEnv("CACHE_DIR", "./cache"),
		CacheTTLMinutes: getEnvInt("CACHE_TTL_MINUTES", 60),

		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 12),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 8),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 0),

		FlyerSearchURL: getEnv("FLYER_SEARCH_URL", "https://www.salewhale.ca/en/search_result"),
		FlyerItemsURL:  getEnv("FLYER_ITEMS_URL", "https://www.salewhale.ca/flyers/%s/%d/flyer_items.json"),

		StorefrontName:       getEnv("STOREFRONT_NAME", "Longo's"),
		StorefrontFlyerURL:   getEnv("STOREFRONT_FLYER_URL", "https://www.longos.com/api/eflyer/current"),
		StorefrontGraphQLURL: getEnv("STOREFRONT_GRAPHQL_URL", "https://www.longos.com/graphql"),
		StorefrontCategoryID: getEnv("STOREFRONT_CATEGORY_ID", "grocery-deals"),

		StoresFile: getEnv("STORES_FILE", "stores.yaml"),

		RunOnce:        getEnvBool("RUN_ONCE", false),
		WarmPostalCode: getEnv("WARM_POSTAL_CODE", "M5V2T6"),

		ArchiveEnabled:   getEnvBool("ARCHIVE_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "deals"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "deals123"),
		PostgresDB:       getEnv("POSTGRES_DB", "deals_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
