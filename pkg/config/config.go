package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env  string
	Port int

	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Trees         TreesConfig
	Notifications NotificationsConfig
}

// AppConfig is reported by the __version__ endpoint.
type AppConfig struct {
	Name    string
	Version string
	Commit  string
	Source  string
}

type DatabaseConfig struct {
	Driver           string
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	SQLitePath       string
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig selects the cache backend. Options are backend specific.
type CacheConfig struct {
	Type    string
	Options map[string]string
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TreesConfig tunes tree read caching and log listings.
type TreesConfig struct {
	CacheTTL        time.Duration
	DefaultLogLimit int
}

// NotificationsConfig controls publishing of status change events.
type NotificationsConfig struct {
	Enabled    bool
	Channel    string
	Workers    int
	MaxRetries int
}

// NeedsRedis reports whether any component requires a redis connection.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Type == "redis" || c.Notifications.Enabled
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.App = AppConfig{
		Name:    v.GetString("APP_NAME"),
		Version: v.GetString("APP_VERSION"),
		Commit:  v.GetString("APP_COMMIT"),
		Source:  v.GetString("APP_SOURCE"),
	}

	cfg.Database = DatabaseConfig{
		Driver:           strings.ToLower(v.GetString("DB_DRIVER")),
		Host:             v.GetString("DB_HOST"),
		Port:             v.GetInt("DB_PORT"),
		User:             v.GetString("DB_USER"),
		Password:         v.GetString("DB_PASSWORD"),
		Name:             v.GetString("DB_NAME"),
		SSLMode:          v.GetString("DB_SSL_MODE"),
		SQLitePath:       v.GetString("DB_SQLITE_PATH"),
		MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
		StatementTimeout: parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Type:    strings.ToLower(strings.TrimSpace(v.GetString("CACHE_TYPE"))),
		Options: parseOptions(v.GetString("CACHE_OPTIONS")),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Trees = TreesConfig{
		CacheTTL:        parseDuration(v.GetString("TREE_CACHE_TTL"), time.Minute),
		DefaultLogLimit: v.GetInt("TREE_LOG_LIMIT"),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled:    v.GetBool("NOTIFICATIONS_ENABLED"),
		Channel:    v.GetString("NOTIFICATIONS_CHANNEL"),
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("APP_NAME", "treestatus-api")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("APP_COMMIT", "")
	v.SetDefault("APP_SOURCE", "https://github.com/noah-isme/treestatus-api")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "treestatus")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "treestatus.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CACHE_TYPE", "simple")
	v.SetDefault("CACHE_OPTIONS", "")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TREE_CACHE_TTL", "1m")
	v.SetDefault("TREE_LOG_LIMIT", 20)

	v.SetDefault("NOTIFICATIONS_ENABLED", false)
	v.SetDefault("NOTIFICATIONS_CHANNEL", "treestatus.changes")
	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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

// parseOptions reads "key=value" pairs separated by commas.
func parseOptions(raw string) map[string]string {
	options := make(map[string]string)
	for _, part := range splitAndTrim(raw) {
		key, value, found := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !found || key == "" {
			continue
		}
		options[key] = strings.TrimSpace(value)
	}
	return options
}
