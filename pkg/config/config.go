package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Tabular store backends.
const (
	TabularBackendFilesystem = "filesystem"
	TabularBackendPostgres   = "postgres"
	TabularBackendMemory     = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Engine     EngineConfig
	Tabular    TabularConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	DriveProxy DriveProxyConfig
	Alerts     AlertsConfig
	Reports    ReportsConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Log        LogConfig
}

// EngineConfig carries the admission and rotation calibration constants.
type EngineConfig struct {
	MaxMinutes           int
	SecondsPerFile       float64
	RotationThresholdPct float64
	PoolItemLimit        int
	PoolFolderLimit      int
	PoolBaseName         string
	AdminGrantees        []string
}

// TabularConfig selects and locates the tabular registry backend.
type TabularConfig struct {
	Backend         string
	Dir             string
	RegistryID      string
	RegistrySheet   string
	CandidatesSheet string
	OversizedSheet  string
	EligibleSheet   string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DriveProxyConfig points at the sidecar that fronts Drive inventory,
// pool provisioning and per-user copy dispatch.
type DriveProxyConfig struct {
	BaseURL       string
	Timeout       time.Duration
	ProbeCacheTTL time.Duration
	ProbeCache    bool
}

// AlertsConfig configures the fire-and-forget webhook notifier.
type AlertsConfig struct {
	Enabled    bool
	WebhookURL string
	Recipient  string
	Timeout    time.Duration
	Workers    int
}

// ReportsConfig controls persisted cycle report rendering.
type ReportsConfig struct {
	StorageDir string
	ResultTTL  time.Duration
}

// AuthConfig gates the mutating API endpoints.
type AuthConfig struct {
	Enabled bool
	Secret  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Engine = EngineConfig{
		MaxMinutes:           v.GetInt("ENGINE_MAX_MINUTES"),
		SecondsPerFile:       v.GetFloat64("ENGINE_SECONDS_PER_FILE"),
		RotationThresholdPct: v.GetFloat64("ENGINE_ROTATION_THRESHOLD"),
		PoolItemLimit:        v.GetInt("POOL_ITEM_LIMIT"),
		PoolFolderLimit:      v.GetInt("POOL_FOLDER_LIMIT"),
		PoolBaseName:         v.GetString("POOL_BASE_NAME"),
		AdminGrantees:        splitAndTrim(v.GetString("POOL_ADMIN_GRANTEES")),
	}

	cfg.Tabular = TabularConfig{
		Backend:         v.GetString("TABULAR_BACKEND"),
		Dir:             v.GetString("TABULAR_DIR"),
		RegistryID:      v.GetString("TABULAR_REGISTRY_ID"),
		RegistrySheet:   v.GetString("TABULAR_REGISTRY_SHEET"),
		CandidatesSheet: v.GetString("TABULAR_CANDIDATES_SHEET"),
		OversizedSheet:  v.GetString("TABULAR_OVERSIZED_SHEET"),
		EligibleSheet:   v.GetString("TABULAR_ELIGIBLE_SHEET"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.DriveProxy = DriveProxyConfig{
		BaseURL:       v.GetString("DRIVE_PROXY_URL"),
		Timeout:       parseDuration(v.GetString("DRIVE_PROXY_TIMEOUT"), 30*time.Second),
		ProbeCacheTTL: parseDuration(v.GetString("DRIVE_PROBE_CACHE_TTL"), 6*time.Hour),
		ProbeCache:    v.GetBool("ENABLE_PROBE_CACHE"),
	}

	cfg.Alerts = AlertsConfig{
		Enabled:    v.GetBool("ENABLE_ALERTS"),
		WebhookURL: v.GetString("ALERT_WEBHOOK_URL"),
		Recipient:  v.GetString("ALERT_RECIPIENT"),
		Timeout:    parseDuration(v.GetString("ALERT_TIMEOUT"), 10*time.Second),
		Workers:    v.GetInt("ALERT_WORKERS"),
	}

	cfg.Reports = ReportsConfig{
		StorageDir: v.GetString("REPORTS_STORAGE_DIR"),
		ResultTTL:  parseDuration(v.GetString("REPORTS_RESULT_TTL"), 30*24*time.Hour),
	}

	cfg.Auth = AuthConfig{
		Enabled: v.GetBool("ENABLE_AUTH"),
		Secret:  v.GetString("AUTH_TOKEN_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	// Engine calibration. A pool rotates once projected occupancy reaches
	// 80% of either hard limit; a cycle admits at most six hours of copy work.
	v.SetDefault("ENGINE_MAX_MINUTES", 360)
	v.SetDefault("ENGINE_SECONDS_PER_FILE", 1.2)
	v.SetDefault("ENGINE_ROTATION_THRESHOLD", 80)
	v.SetDefault("POOL_ITEM_LIMIT", 400000)
	v.SetDefault("POOL_FOLDER_LIMIT", 20000)
	v.SetDefault("POOL_BASE_NAME", "Legacydrivebackup")
	v.SetDefault("POOL_ADMIN_GRANTEES", "")

	v.SetDefault("TABULAR_BACKEND", TabularBackendFilesystem)
	v.SetDefault("TABULAR_DIR", "./data")
	v.SetDefault("TABULAR_REGISTRY_ID", "backup-registry")
	v.SetDefault("TABULAR_REGISTRY_SHEET", "PoolRegistry")
	v.SetDefault("TABULAR_CANDIDATES_SHEET", "Candidates")
	v.SetDefault("TABULAR_OVERSIZED_SHEET", "OversizedUsers")
	v.SetDefault("TABULAR_ELIGIBLE_SHEET", "EligibleBatch")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "drive_backup")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DRIVE_PROXY_URL", "http://localhost:9090")
	v.SetDefault("DRIVE_PROXY_TIMEOUT", "30s")
	v.SetDefault("DRIVE_PROBE_CACHE_TTL", "6h")
	v.SetDefault("ENABLE_PROBE_CACHE", false)

	v.SetDefault("ENABLE_ALERTS", false)
	v.SetDefault("ALERT_WEBHOOK_URL", "")
	v.SetDefault("ALERT_RECIPIENT", "")
	v.SetDefault("ALERT_TIMEOUT", "10s")
	v.SetDefault("ALERT_WORKERS", 1)

	v.SetDefault("REPORTS_STORAGE_DIR", "./reports")
	v.SetDefault("REPORTS_RESULT_TTL", "720h")

	v.SetDefault("ENABLE_AUTH", false)
	v.SetDefault("AUTH_TOKEN_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
