package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Upstream data source configuration
	CrimeAPIURL    string
	PlanningAPIURL string
	SpendingAPIURL string
	PostcodeAPIURL string

	// Fetch configuration
	FetchTimeout           time.Duration
	RateLimit              int           // max upstream calls per window
	RateWindow             time.Duration // sliding window size
	DisableSSLVerification bool

	// Cache configuration
	CacheMaxEntries int
	CacheDefaultTTL time.Duration

	// Snapshot storage configuration
	StorageType       string // "local" or "s3"
	SnapshotDir       string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Prefix          string
	S3UseSSL          bool

	// Server configuration
	Port      string
	LogLevel  string
	LogFormat string // console or json
	LogColor  bool   // enable color for console logs
}

func Load() *Config {
	cfg := &Config{
		CrimeAPIURL:    getEnv("GOVSEEK_CRIME_API_URL", "https://data.police.uk/api/crimes-street/all-crime"),
		PlanningAPIURL: getEnv("GOVSEEK_PLANNING_API_URL", "https://www.planning.data.gov.uk/entity.json"),
		SpendingAPIURL: getEnv("GOVSEEK_SPENDING_API_URL", "https://openspending.org/api/3/search"),
		PostcodeAPIURL: getEnv("GOVSEEK_POSTCODE_API_URL", "https://api.postcodes.io/postcodes"),

		FetchTimeout:           getDurationEnv("GOVSEEK_FETCH_TIMEOUT", 30*time.Second),
		RateLimit:              int(getIntEnv("GOVSEEK_RATE_LIMIT", 60)),
		RateWindow:             getDurationEnv("GOVSEEK_RATE_WINDOW", 60*time.Second),
		DisableSSLVerification: getBoolEnv("GOVSEEK_DISABLE_SSL_VERIFICATION", false),

		CacheMaxEntries: int(getIntEnv("GOVSEEK_CACHE_MAX_ENTRIES", 1000)),
		CacheDefaultTTL: getDurationEnv("GOVSEEK_CACHE_DEFAULT_TTL", time.Hour),

		StorageType:       getEnv("GOVSEEK_STORAGE_TYPE", "local"),
		SnapshotDir:       getEnv("GOVSEEK_SNAPSHOT_DIR", ""),
		S3Endpoint:        getEnv("AWS_ENDPOINT_URL", ""),
		S3AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Region:          getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:          getEnv("GOVSEEK_S3_BUCKET", ""),
		S3Prefix:          getEnv("GOVSEEK_S3_PREFIX", "govseek"),
		S3UseSSL:          getBoolEnv("GOVSEEK_S3_USE_SSL", true),

		Port:      getEnv("PORT", "5000"),
		LogLevel:  getEnv("GOVSEEK_LOGGING_LEVEL", "INFO"),
		LogFormat: getEnv("GOVSEEK_LOG_FORMAT", "console"),
		LogColor:  getBoolEnv("GOVSEEK_LOG_COLOR", true),
	}

	// Set default snapshot dir if not specified
	if cfg.SnapshotDir == "" {
		cfg.SnapshotDir = os.TempDir()
	}

	// Validate S3 configuration if S3 storage is selected
	if cfg.StorageType == "s3" {
		if cfg.S3Endpoint == "" {
			cfg.S3Endpoint = "s3.amazonaws.com"
		}
		if cfg.S3Bucket == "" {
			panic("GOVSEEK_S3_BUCKET must be set when using S3 storage")
		}
		if cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			panic("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set when using S3 storage")
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value != "0" && value != "no" && value != "off" && value != "false"
}
