package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	MigrateOnStart    bool

	JWTSecret        string
	RefreshTokenSalt string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int

	ServerPort  string
	ServerHost  string
	Environment string
	StaticDir   string

	RedisURL               string
	RateLimitEnabled       bool
	RateLimitIPAttempts    int
	RateLimitIPWindow      time.Duration
	RateLimitLoginFailures int
	RateLimitBlockDuration time.Duration

	LogLevel  string
	LogFormat string

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For and
	// X-Real-IP headers are believed.
	TrustedProxies []string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	ProductsListScope string

	SSEHeartbeatInterval time.Duration
	SSEMessageBufferSize int
	SSEMaxConnections    int
}

var (
	ErrMissingDatabaseURL          = errors.New("DATABASE_URL or DB_HOST/DB_NAME/DB_USER is required")
	ErrMissingJWTSecret            = errors.New("JWT_SECRET is required")
	ErrMissingRefreshSalt          = errors.New("REFRESH_TOKEN_SALT is required")
	ErrInvalidTokenTTL             = errors.New("invalid token TTL format")
	ErrInvalidListScope            = errors.New("PRODUCTS_LIST_SCOPE must be \"own\" or \"all\"")
	ErrWildcardCORSWithCredentials = errors.New("CORS_ALLOWED_ORIGINS cannot contain \"*\" while CORS_ALLOW_CREDENTIALS is true")
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadDatabaseURL is for tools that only need the database, such as migrations.
func LoadDatabaseURL() (string, error) {
	_ = godotenv.Load()
	dsn := databaseURL()
	if dsn == "" {
		return "", ErrMissingDatabaseURL
	}
	return dsn, nil
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       databaseURL(),
		DBMaxOpenConns:    getEnvOrDefaultInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvOrDefaultInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvOrDefaultDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		MigrateOnStart:    getEnvOrDefaultBool("MIGRATE_ON_START", false),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		RefreshTokenSalt: os.Getenv("REFRESH_TOKEN_SALT"),
		BcryptCost:       getEnvOrDefaultInt("BCRYPT_COST", 10),

		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:  getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
		Environment: getEnvOrDefault("ENV", "development"),
		StaticDir:   os.Getenv("STATIC_DIR"),

		RedisURL:               os.Getenv("REDIS_URL"),
		RateLimitEnabled:       getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		RateLimitIPAttempts:    getEnvOrDefaultInt("RATE_LIMIT_IP_ATTEMPTS", 20),
		RateLimitLoginFailures: getEnvOrDefaultInt("RATE_LIMIT_LOGIN_FAILURES", 5),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:   parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),

		TrustedProxies: parseList(os.Getenv("TRUSTED_PROXIES")),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    getEnvOrDefault("S3_BUCKET", "media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		ProductsListScope: strings.ToLower(getEnvOrDefault("PRODUCTS_LIST_SCOPE", "own")),

		SSEHeartbeatInterval: getEnvOrDefaultDuration("SSE_HEARTBEAT_INTERVAL", 15*time.Second),
		SSEMessageBufferSize: getEnvOrDefaultInt("SSE_MESSAGE_BUFFER_SIZE", 32),
		SSEMaxConnections:    getEnvOrDefaultInt("SSE_MAX_CONNECTIONS", 1000),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.RefreshTokenSalt == "" {
		return nil, ErrMissingRefreshSalt
	}
	if cfg.ProductsListScope != "own" && cfg.ProductsListScope != "all" {
		return nil, ErrInvalidListScope
	}
	if cfg.CORSAllowCredentials {
		for _, origin := range cfg.CORSAllowedOrigins {
			if origin == "*" {
				return nil, ErrWildcardCORSWithCredentials
			}
		}
	}

	ttls := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"JWT_ACCESS_TOKEN_TTL", "1800", &cfg.AccessTokenTTL},
		{"JWT_REFRESH_TOKEN_TTL", "604800", &cfg.RefreshTokenTTL},
		{"RATE_LIMIT_IP_WINDOW", "900", &cfg.RateLimitIPWindow},
		{"RATE_LIMIT_BLOCK_DURATION", "1800", &cfg.RateLimitBlockDuration},
	}
	for _, ttl := range ttls {
		d, err := parseTokenTTL(getEnvOrDefault(ttl.key, ttl.def))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTokenTTL, ttl.key)
		}
		*ttl.dst = d
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) MediaEnabled() bool {
	return c.S3Endpoint != ""
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from DB_* parts.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host, name, user := os.Getenv("DB_HOST"), os.Getenv("DB_NAME"), os.Getenv("DB_USER")
	if host == "" || name == "" || user == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, os.Getenv("DB_PASSWORD")),
		Host:   host + ":" + getEnvOrDefault("DB_PORT", "5432"),
		Path:   "/" + name,
	}
	q := u.Query()
	q.Set("sslmode", getEnvOrDefault("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvOrDefaultDuration accepts plain seconds or a Go duration string.
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func parseTokenTTL(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("ttl must be positive, got %d", seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
