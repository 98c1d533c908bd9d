package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// the HTTP server, the Postgres store, the Treasury API client, the fetch cache,
// the daily scheduler, and the fiscal CSV loader.
//
// Example YAML/ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=treasury_user
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=treasury_db
//	POSTGRES_SSLMODE=disable
//	TREASURY_API_BASE=https://www.treasurydirect.gov/TA_WS/securities/jqsearch
//	TREASURY_CACHE_MODE=ttl
//	UPDATE_SCHEDULE_HOUR=18
type Config struct {
	Server    ServerConfig    // HTTP server configuration
	Postgres  PostgresConfig  // PostgreSQL connection settings
	Treasury  TreasuryConfig  // TreasuryDirect API client settings
	Cache     CacheConfig     // Fetch snapshot cache policy
	Scheduler SchedulerConfig // Daily pipeline trigger
	Fiscal    FiscalConfig    // Fiscal policy CSV batch loader
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// TreasuryConfig defines how the remote auction-results API is queried.
//
// Fields:
//   - BaseURL: search endpoint (overridable for tests / mirrors).
//   - PageSize: records requested per page (offset pagination).
//   - MaxRecords: hard cap on accumulated records per run.
//   - Timeout: per-request HTTP timeout.
type TreasuryConfig struct {
	BaseURL    string
	PageSize   int
	MaxRecords int
	Timeout    time.Duration
}

// CacheConfig controls the fetch snapshot cache.
//
// Mode:
//   - "off":     never read the cache, always hit the API.
//   - "ttl":     reuse the snapshot while younger than TTL (default).
//   - "forever": reuse the snapshot unconditionally once written.
type CacheConfig struct {
	Mode string
	TTL  time.Duration
	File string
}

// SchedulerConfig holds the daily wall-clock trigger (UTC).
type SchedulerConfig struct {
	Hour   int
	Minute int
}

// FiscalConfig points at the directory holding the fiscal policy CSV exports.
type FiscalConfig struct {
	CSVDir string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Behavior:
//   - Sets defaults for all required fields.
//   - Reads environment variables automatically with viper.AutomaticEnv().
//   - Constructs the PostgreSQL connection string (DSN). DATABASE_URL, when
//     set, wins over the individual POSTGRES_* parts.
//   - Calls validateConfig() to ensure required fields are present.
//
// Fatal exit:
//   - If required variables are missing or malformed, validateConfig() will
//     terminate the app with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "treasury_user")
	viper.SetDefault("POSTGRES_PASSWORD", "treasury_pass")
	viper.SetDefault("POSTGRES_DB", "treasury_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("DATABASE_URL", "")

	viper.SetDefault("TREASURY_API_BASE", "https://www.treasurydirect.gov/TA_WS/securities/jqsearch")
	viper.SetDefault("TREASURY_PAGE_SIZE", 100)
	viper.SetDefault("TREASURY_MAX_RECORDS", 15000)
	viper.SetDefault("TREASURY_TIMEOUT_SECONDS", 30)

	viper.SetDefault("TREASURY_CACHE_MODE", "ttl")
	viper.SetDefault("TREASURY_CACHE_TTL_HOURS", 24)
	viper.SetDefault("TREASURY_CACHE_FILE", "./data/treasury_cache.json")

	viper.SetDefault("UPDATE_SCHEDULE_HOUR", 18)
	viper.SetDefault("UPDATE_SCHEDULE_MINUTE", 0)

	viper.SetDefault("FISCAL_CSV_DIR", "./data")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	// Populate global config instance
	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Treasury: TreasuryConfig{
			BaseURL:    viper.GetString("TREASURY_API_BASE"),
			PageSize:   viper.GetInt("TREASURY_PAGE_SIZE"),
			MaxRecords: viper.GetInt("TREASURY_MAX_RECORDS"),
			Timeout:    time.Duration(viper.GetInt("TREASURY_TIMEOUT_SECONDS")) * time.Second,
		},
		Cache: CacheConfig{
			Mode: strings.ToLower(viper.GetString("TREASURY_CACHE_MODE")),
			TTL:  time.Duration(viper.GetInt("TREASURY_CACHE_TTL_HOURS")) * time.Hour,
			File: viper.GetString("TREASURY_CACHE_FILE"),
		},
		Scheduler: SchedulerConfig{
			Hour:   viper.GetInt("UPDATE_SCHEDULE_HOUR"),
			Minute: viper.GetInt("UPDATE_SCHEDULE_MINUTE"),
		},
		Fiscal: FiscalConfig{
			CSVDir: viper.GetString("FISCAL_CSV_DIR"),
		},
	}

	// Construct Postgres DSN (used by database/sql); DATABASE_URL wins when set.
	if url := viper.GetString("DATABASE_URL"); url != "" {
		AppConfig.Postgres.URL = url
	} else {
		AppConfig.Postgres.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			AppConfig.Postgres.User,
			AppConfig.Postgres.Password,
			AppConfig.Postgres.Host,
			AppConfig.Postgres.Port,
			AppConfig.Postgres.DBName,
			AppConfig.Postgres.SSLMode,
		)
	}

	// Validate critical fields
	validateConfig()
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing or malformed.
//
// This avoids unexpected runtime failures due to incomplete configuration.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.URL == "" {
		missing = append(missing, "DATABASE_URL or POSTGRES_*")
	}
	if AppConfig.Treasury.BaseURL == "" {
		missing = append(missing, "TREASURY_API_BASE")
	}
	if AppConfig.Treasury.PageSize <= 0 {
		missing = append(missing, "TREASURY_PAGE_SIZE")
	}

	switch AppConfig.Cache.Mode {
	case "off", "ttl", "forever":
	default:
		log.Fatalf("invalid TREASURY_CACHE_MODE %q: must be off, ttl or forever", AppConfig.Cache.Mode)
	}

	if h := AppConfig.Scheduler.Hour; h < 0 || h > 23 {
		log.Fatalf("invalid UPDATE_SCHEDULE_HOUR %d: must be 0-23", h)
	}
	if m := AppConfig.Scheduler.Minute; m < 0 || m > 59 {
		log.Fatalf("invalid UPDATE_SCHEDULE_MINUTE %d: must be 0-59", m)
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v", missing)
	}
}
