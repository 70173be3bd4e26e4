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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Tutoring  TutoringConfig
	CardCache CardCacheConfig
	Jobs      JobsConfig
	RateLimit RateLimitConfig
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

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TutoringConfig tunes the tutoring details view.
type TutoringConfig struct {
	OwnershipRecheckInterval time.Duration
	DefaultImageURL          string
	WhatsAppCountryCode      string
}

// CardCacheConfig controls Redis caching of tutoring cards.
type CardCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// JobsConfig sizes the card refresh worker pool.
type JobsConfig struct {
	CardRefreshWorkers int
	CardRefreshRetries int
}

// RateLimitConfig throttles login attempts per client.
type RateLimitConfig struct {
	LoginRequests int
	LoginWindow   time.Duration
	BlockDuration time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Tutoring = TutoringConfig{
		OwnershipRecheckInterval: parseDuration(v.GetString("OWNERSHIP_RECHECK_INTERVAL"), 30*time.Second),
		DefaultImageURL:          v.GetString("DEFAULT_TUTORING_IMAGE_URL"),
		WhatsAppCountryCode:      v.GetString("WHATSAPP_COUNTRY_CODE"),
	}

	cfg.CardCache = CardCacheConfig{
		Enabled: v.GetBool("ENABLE_CARD_CACHE"),
		TTL:     parseDuration(v.GetString("TUTORING_CARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Jobs = JobsConfig{
		CardRefreshWorkers: v.GetInt("CARD_REFRESH_WORKERS"),
		CardRefreshRetries: v.GetInt("CARD_REFRESH_RETRIES"),
	}

	cfg.RateLimit = RateLimitConfig{
		LoginRequests: v.GetInt("LOGIN_RATE_LIMIT"),
		LoginWindow:   parseDuration(v.GetString("LOGIN_RATE_WINDOW"), time.Minute),
		BlockDuration: parseDuration(v.GetString("LOGIN_BLOCK_DURATION"), 5*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutormatch")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "tutormatch-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OWNERSHIP_RECHECK_INTERVAL", "30s")
	v.SetDefault("DEFAULT_TUTORING_IMAGE_URL", "https://i0.wp.com/port2flavors.com/wp-content/uploads/2022/07/placeholder-614.png")
	v.SetDefault("WHATSAPP_COUNTRY_CODE", "51")

	v.SetDefault("ENABLE_CARD_CACHE", false)
	v.SetDefault("TUTORING_CARD_CACHE_TTL", "5m")

	v.SetDefault("CARD_REFRESH_WORKERS", 2)
	v.SetDefault("CARD_REFRESH_RETRIES", 3)

	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_WINDOW", "1m")
	v.SetDefault("LOGIN_BLOCK_DURATION", "5m")
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
