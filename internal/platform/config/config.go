package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ofsadmin/internal/ofs"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	Environment string

	SeedAdminUsername string
	SeedAdminPassword string
	RunMigrations     bool
	RunSeed           bool

	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool

	// Scheduled dry-run stale scan; 0 disables it.
	ScanInterval   time.Duration
	ScanCutoffDays int

	OFSBaseURL        string
	OFSCreateBaseURL  string
	OFSUsername       string
	OFSPassword       string
	OFSCreateUsername string
	OFSCreatePassword string
	OFSPageLimit      int
	OFSTimeout        time.Duration
	OFSPause          time.Duration
	OFSVerifySSL      bool
}

func Load() Config {
	// Same convention as the original deployment: a .env next to the
	// binary is read first, real environment variables win over it.
	_ = godotenv.Load()

	return Config{
		Addr:        getEnv("APP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Environment: getEnv("APP_ENV", "development"),

		SeedAdminUsername: getEnv("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:           getEnvBool("RUN_SEED", true),

		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 4194304)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),

		ScanInterval:   getEnvDuration("SCAN_INTERVAL", 0),
		ScanCutoffDays: getEnvInt("SCAN_CUTOFF_DAYS", 80),

		OFSBaseURL:        getEnv("OFS_BASE_URL", ""),
		OFSCreateBaseURL:  getEnv("OFS_BASE_URL_CREATE", ""),
		OFSUsername:       getEnv("OFS_USERNAME", ""),
		OFSPassword:       getEnv("OFS_PASSWORD", ""),
		OFSCreateUsername: getEnv("OFS_CREATE_USERNAME", ""),
		OFSCreatePassword: getEnv("OFS_CREATE_PASSWORD", ""),
		OFSPageLimit:      getEnvInt("OFS_PAGE_LIMIT", 100),
		OFSTimeout:        getEnvDuration("OFS_TIMEOUT", 30*time.Second),
		OFSPause:          getEnvDuration("OFS_PAUSE", 200*time.Millisecond),
		OFSVerifySSL:      getEnvBool("OFS_VERIFY_SSL", true),
	}
}

// OFS maps the environment surface onto the client configuration.
func (c Config) OFS() ofs.Config {
	return ofs.Config{
		BaseURL:            strings.TrimRight(c.OFSBaseURL, "/"),
		CreateBaseURL:      strings.TrimRight(c.OFSCreateBaseURL, "/"),
		Username:           c.OFSUsername,
		Password:           c.OFSPassword,
		CreateUsername:     c.OFSCreateUsername,
		CreatePassword:     c.OFSCreatePassword,
		PageLimit:          c.OFSPageLimit,
		Timeout:            c.OFSTimeout,
		Pause:              c.OFSPause,
		InsecureSkipVerify: !c.OFSVerifySSL,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.OFSBaseURL) == "" {
		return fmt.Errorf("OFS_BASE_URL is required")
	}
	if strings.TrimSpace(c.OFSUsername) == "" || strings.TrimSpace(c.OFSPassword) == "" {
		return fmt.Errorf("OFS_USERNAME and OFS_PASSWORD are required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
		if !c.OFSVerifySSL {
			return fmt.Errorf("OFS_VERIFY_SSL must stay enabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.ScanCutoffDays < 0 {
		return fmt.Errorf("SCAN_CUTOFF_DAYS must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
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

func getEnvInt(key string, fallback int) int {
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
