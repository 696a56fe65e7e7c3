package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Reconcile ReconcileConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type StorageConfig struct {
	// TemplateDir holds the committed <id>.zip archives.
	TemplateDir string
	// UploadDir stages incoming multipart payloads before archiving.
	UploadDir string
	// MaxUploadSize is a per-file byte limit; 0 disables the check.
	MaxUploadSize int64
}

type AuthConfig struct {
	Enabled  bool
	JWKSURL  string
	Issuer   string
	Audience string
	CacheTTL time.Duration
}

type ReconcileConfig struct {
	// Schedule is a cron expression for the orphan-file sweep.
	Schedule string
	// Grace protects files of in-flight uploads from the sweep.
	Grace time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "template_repo")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("STORAGE_TEMPLATE_DIR", "store-templates")
	v.SetDefault("STORAGE_UPLOAD_DIR", "uploads")
	v.SetDefault("STORAGE_MAX_UPLOAD_SIZE", 104857600)
	v.SetDefault("AUTH_ENABLED", true)
	v.SetDefault("AUTH_JWKS_URL", "")
	v.SetDefault("AUTH_ISSUER", "")
	v.SetDefault("AUTH_AUDIENCE", "")
	v.SetDefault("AUTH_JWKS_CACHE_TTL", "15m")
	v.SetDefault("RECONCILE_SCHEDULE", "@hourly")
	v.SetDefault("RECONCILE_GRACE", "1h")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
		Storage: StorageConfig{
			TemplateDir:   v.GetString("STORAGE_TEMPLATE_DIR"),
			UploadDir:     v.GetString("STORAGE_UPLOAD_DIR"),
			MaxUploadSize: v.GetInt64("STORAGE_MAX_UPLOAD_SIZE"),
		},
		Auth: AuthConfig{
			Enabled:  v.GetBool("AUTH_ENABLED"),
			JWKSURL:  v.GetString("AUTH_JWKS_URL"),
			Issuer:   v.GetString("AUTH_ISSUER"),
			Audience: v.GetString("AUTH_AUDIENCE"),
			CacheTTL: parseDuration(v.GetString("AUTH_JWKS_CACHE_TTL"), 15*time.Minute),
		},
		Reconcile: ReconcileConfig{
			Schedule: v.GetString("RECONCILE_SCHEDULE"),
			Grace:    parseDuration(v.GetString("RECONCILE_GRACE"), time.Hour),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
