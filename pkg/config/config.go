package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Auth      AuthConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Mail      MailConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TrustProxy   bool
}

type MongoConfig struct {
	URI       string
	Database  string
	MaxPool   uint64
	OpTimeout time.Duration
}

type RedisConfig struct {
	URL string
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	TokenSecret  string
	TokenTTL     time.Duration
	RoleCacheTTL time.Duration
}

type PaymentConfig struct {
	SecretKey string
	Currency  string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// MailConfig selects the notification provider: MailerSend when an API key
// is set, else an SMTP relay when a host is set, else the dev mailer.
type MailConfig struct {
	MailerSendKey string
	FromName      string
	From          string
	SMTPHost      string
	SMTPPort      int
	User          string
	Pass          string
	UseTLS        bool
}

// Load reads the process environment. A .env file in the working directory,
// if present, is applied first without overriding variables already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			TrustProxy:   getBool("TRUST_PROXY", false),
		},
		Mongo: MongoConfig{
			URI:       mongoURI(),
			Database:  getEnv("MONGODB_DATABASE", "diagnosticDB"),
			MaxPool:   uint64(getInt("MONGODB_MAX_POOL", 50)),
			OpTimeout: getDuration("MONGODB_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Auth: AuthConfig{
			TokenSecret:  getEnv("ACCESS_TOKEN_SECRET", "dev-only-secret-change-in-prod"),
			TokenTTL:     getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
			RoleCacheTTL: getDuration("ROLE_CACHE_TTL", 30*time.Second),
		},
		Payment: PaymentConfig{
			SecretKey: getEnv("PAYMENT_SECRET_KEY", ""),
			Currency:  getEnv("PAYMENT_CURRENCY", "usd"),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Mail: MailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			FromName:      getEnv("MAIL_FROM_NAME", "Diagnostic Center"),
			From:          getEnv("MAIL_FROM", "no-reply@diagnostic.local"),
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getInt("SMTP_PORT", 1025),
			User:          getEnv("SMTP_USER", ""),
			Pass:          getEnv("SMTP_PASS", ""),
			UseTLS:        getBool("SMTP_TLS", false),
		},
	}
}

// mongoURI prefers MONGODB_URI. Otherwise it assembles an SRV URI from
// DB_USER/DB_PASS/DB_HOST, the way hosted clusters hand out credentials.
func mongoURI() string {
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		return uri
	}
	user, pass, host := os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_HOST")
	if user == "" || host == "" {
		return "mongodb://localhost:27017"
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
		url.QueryEscape(user), url.QueryEscape(pass), host)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
