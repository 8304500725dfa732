package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Transport / store backends selected at deployment time. Exactly one of
// each is constructed; the rest of the code only sees the interfaces.
const (
	TransportWebPush = "webpush"
	TransportLine    = "line"
	TransportSNS     = "sns"

	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	PolicyBatch   = "batch"
	PolicyPerItem = "per-item"
)

type Config struct {
	Addr string

	PushTransport string
	StoreBackend  string

	// Web Push (VAPID)
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	// LINE Messaging API
	LineChannelSecret string
	LineChannelToken  string

	// AWS SNS platform application
	SNSPlatformARN string
	AWSRegion      string

	// Stores
	RedisURL   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Trigger auth; empty disables the check (local dev only).
	CronSecret string

	// Dispatch tuning
	ExpiryWindowDays int
	NotifyTopK       int
	NotifyPolicy     string
	SuppressWindow   time.Duration
	PushTimeout      time.Duration
	Timezone         *time.Location
}

// Load reads .env if present, then the environment. Missing .env is fine in
// production where the platform injects variables directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              getenv("ADDR", ":8080"),
		PushTransport:     getenv("PUSH_TRANSPORT", TransportWebPush),
		StoreBackend:      getenv("STORE_BACKEND", StoreRedis),
		VAPIDPublicKey:    os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:   os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubscriber:   getenv("VAPID_EMAIL", "mailto:admin@example.com"),
		LineChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		SNSPlatformARN:    os.Getenv("SNS_PLATFORM_ARN"),
		AWSRegion:         getenv("AWS_REGION", "ap-south-1"),
		RedisURL:          os.Getenv("REDIS_URL"),
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            getenv("DB_PORT", "5432"),
		CronSecret:        os.Getenv("CRON_SECRET"),
		ExpiryWindowDays:  getint("EXPIRY_WINDOW_DAYS", 2),
		NotifyTopK:        getint("NOTIFY_TOP_K", 5),
		NotifyPolicy:      getenv("NOTIFY_POLICY", PolicyBatch),
		SuppressWindow:    time.Duration(getint("NOTIFY_SUPPRESS_HOURS", 0)) * time.Hour,
		PushTimeout:       time.Duration(getint("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	tz := os.Getenv("TZ")
	if tz == "" {
		cfg.Timezone = time.Local
	} else {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ %q: %w", tz, err)
		}
		cfg.Timezone = loc
	}

	return cfg, nil
}

// Validate fails fast on anything the selected transport or store cannot run
// without. A failed validation must prevent the process from serving at all.
func (c *Config) Validate() error {
	switch c.PushTransport {
	case TransportWebPush:
		if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
			return fmt.Errorf("push transport %q requires VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY", c.PushTransport)
		}
	case TransportLine:
		if c.LineChannelSecret == "" || c.LineChannelToken == "" {
			return fmt.Errorf("push transport %q requires LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN", c.PushTransport)
		}
	case TransportSNS:
		if c.SNSPlatformARN == "" {
			return fmt.Errorf("push transport %q requires SNS_PLATFORM_ARN", c.PushTransport)
		}
	default:
		return fmt.Errorf("unknown push transport %q", c.PushTransport)
	}

	switch c.StoreBackend {
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("store backend %q requires REDIS_URL", c.StoreBackend)
		}
	case StorePostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("store backend %q requires DB_HOST, DB_USER and DB_NAME", c.StoreBackend)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.NotifyPolicy != PolicyBatch && c.NotifyPolicy != PolicyPerItem {
		return fmt.Errorf("unknown notify policy %q", c.NotifyPolicy)
	}
	if c.ExpiryWindowDays < 0 {
		return fmt.Errorf("EXPIRY_WINDOW_DAYS must be >= 0")
	}
	return nil
}

// PostgresDSN builds the gorm DSN from the DB_* variables.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
