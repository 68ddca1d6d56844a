package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/dateutil"
	"go-leave/internal/shared/geo"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DeliveryDirect = "direct"
	DeliveryOutbox = "outbox"

	EnqueueFailureFail   = "fail"
	EnqueueFailureIgnore = "ignore"

	IdempotencyStoreRedis  = "redis"
	IdempotencyStoreMemory = "memory"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	DB            connection.DBConfig
	DBAutoMigrate bool
	RedisAddr     string
	KafkaBroker   string

	JWTSecret string

	Geofence geo.Fence
	Holidays dateutil.HolidaySet

	PaginationMaxSize int

	IdempotencyStore string
	IdempotencyTTL   time.Duration

	CalendarSync CalendarSyncConfig
	Graph        GraphConfig
}

type CalendarSyncConfig struct {
	Enabled        bool
	Topic          string
	Ordered        bool
	Delivery       string
	EnqueueFailure string
	ConsumerGroup  string
}

type GraphConfig struct {
	Tenant       string
	ClientID     string
	ClientSecret string
	Scope        string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
}

func (g GraphConfig) Configured() bool {
	return g.Tenant != "" && g.ClientID != "" && g.ClientSecret != ""
}

// TokenEndpoint is TokenURL when set, otherwise the tenant's v2 endpoint.
func (g GraphConfig) TokenEndpoint() string {
	if g.TokenURL != "" {
		return g.TokenURL
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", g.Tenant)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "leave")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKER", "localhost:9092")

	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("GEO_VALIDATION_ENABLED", false)
	v.SetDefault("GEO_CENTER_LAT", 0.0)
	v.SetDefault("GEO_CENTER_LONG", 0.0)
	v.SetDefault("GEO_RADIUS_METERS", 150.0)
	v.SetDefault("HOLIDAY_DATES", "")

	v.SetDefault("PAGINATION_MAX_SIZE", 100)

	v.SetDefault("IDEMPOTENCY_STORE", IdempotencyStoreRedis)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")

	v.SetDefault("CALENDAR_SYNC_ENABLED", false)
	v.SetDefault("CALENDAR_SYNC_TOPIC", "leave.calendar.sync.requested.v1")
	v.SetDefault("CALENDAR_SYNC_ORDERED", false)
	v.SetDefault("CALENDAR_SYNC_DELIVERY", DeliveryDirect)
	v.SetDefault("CALENDAR_SYNC_ENQUEUE_FAILURE", EnqueueFailureFail)
	v.SetDefault("CALENDAR_SYNC_CONSUMER_GROUP", "go-leave-calendar-sync")

	v.SetDefault("GRAPH_TENANT", "")
	v.SetDefault("GRAPH_CLIENT_ID", "")
	v.SetDefault("GRAPH_CLIENT_SECRET", "")
	v.SetDefault("GRAPH_SCOPE", "https://graph.microsoft.com/.default")
	v.SetDefault("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0")
	v.SetDefault("GRAPH_TOKEN_URL", "")
	v.SetDefault("GRAPH_TIMEOUT", "10s")
}

// Load reads .env when present, then the process environment. Environment
// values win over .env, which wins over defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	holidays, err := dateutil.ParseHolidays(v.GetString("HOLIDAY_DATES"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAY_DATES: %w", err)
	}

	cfg := &Config{
		Port:      v.GetString("PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		DB: connection.DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		DBAutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		KafkaBroker:   v.GetString("KAFKA_BROKER"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		Geofence: geo.Fence{
			Enabled:      v.GetBool("GEO_VALIDATION_ENABLED"),
			CenterLat:    v.GetFloat64("GEO_CENTER_LAT"),
			CenterLong:   v.GetFloat64("GEO_CENTER_LONG"),
			RadiusMeters: v.GetFloat64("GEO_RADIUS_METERS"),
		},
		Holidays:          holidays,
		PaginationMaxSize: v.GetInt("PAGINATION_MAX_SIZE"),
		IdempotencyStore:  strings.ToLower(v.GetString("IDEMPOTENCY_STORE")),
		IdempotencyTTL:    v.GetDuration("IDEMPOTENCY_TTL"),
		CalendarSync: CalendarSyncConfig{
			Enabled:        v.GetBool("CALENDAR_SYNC_ENABLED"),
			Topic:          v.GetString("CALENDAR_SYNC_TOPIC"),
			Ordered:        v.GetBool("CALENDAR_SYNC_ORDERED"),
			Delivery:       strings.ToLower(v.GetString("CALENDAR_SYNC_DELIVERY")),
			EnqueueFailure: strings.ToLower(v.GetString("CALENDAR_SYNC_ENQUEUE_FAILURE")),
			ConsumerGroup:  v.GetString("CALENDAR_SYNC_CONSUMER_GROUP"),
		},
		Graph: GraphConfig{
			Tenant:       v.GetString("GRAPH_TENANT"),
			ClientID:     v.GetString("GRAPH_CLIENT_ID"),
			ClientSecret: v.GetString("GRAPH_CLIENT_SECRET"),
			Scope:        v.GetString("GRAPH_SCOPE"),
			BaseURL:      strings.TrimRight(v.GetString("GRAPH_BASE_URL"), "/"),
			TokenURL:     v.GetString("GRAPH_TOKEN_URL"),
			Timeout:      v.GetDuration("GRAPH_TIMEOUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.PaginationMaxSize < 1 {
		errs = append(errs, errors.New("PAGINATION_MAX_SIZE must be positive"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if c.Geofence.Enabled && c.Geofence.RadiusMeters <= 0 {
		errs = append(errs, errors.New("GEO_RADIUS_METERS must be positive when GEO_VALIDATION_ENABLED"))
	}

	switch c.IdempotencyStore {
	case IdempotencyStoreRedis, IdempotencyStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_STORE must be %s or %s", IdempotencyStoreRedis, IdempotencyStoreMemory))
	}
	switch c.CalendarSync.Delivery {
	case DeliveryDirect, DeliveryOutbox:
	default:
		errs = append(errs, fmt.Errorf("CALENDAR_SYNC_DELIVERY must be %s or %s", DeliveryDirect, DeliveryOutbox))
	}
	switch c.CalendarSync.EnqueueFailure {
	case EnqueueFailureFail, EnqueueFailureIgnore:
	default:
		errs = append(errs, fmt.Errorf("CALENDAR_SYNC_ENQUEUE_FAILURE must be %s or %s", EnqueueFailureFail, EnqueueFailureIgnore))
	}

	return errors.Join(errs...)
}
