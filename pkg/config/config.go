package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

type Config struct {
	ServerPort  string
	Environment string

	StoreDriver   string
	DatabaseURL   string
	SQLitePath    string
	DBDebug       bool
	RetryAttempts int
	RetryInitial  time.Duration

	FirebaseProject            string
	FirebaseServiceAccountPath string
	FirebaseServiceAccountJSON string
	StorageBucket              string

	RedisAddr          string
	RedisDB            int
	RateLimitPerMinute int

	KafkaBrokers []string
	KafkaTopic   string

	Commission CommissionConfig
	Listing    ListingConfig
	Mediation  MediationConfig
}

// CommissionConfig holds percentages per tier plus the absolute fee floor.
type CommissionConfig struct {
	BaseRate    float64
	VIPRate     float64
	PartnerRate float64
	MinFee      int64
}

type ListingConfig struct {
	MinDescriptionLength int
}

type MediationConfig struct {
	AdminContactName string
	AdminContactURL  string
}

func Load() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		ServerPort:    v.GetString("SERVER_PORT"),
		Environment:   v.GetString("ENVIRONMENT"),
		StoreDriver:   strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		SQLitePath:    v.GetString("SQLITE_PATH"),
		DBDebug:       v.GetBool("DB_DEBUG"),
		RetryAttempts: v.GetInt("STORE_RETRY_ATTEMPTS"),
		RetryInitial:  v.GetDuration("STORE_RETRY_INITIAL"),

		FirebaseProject:            v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseServiceAccountPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
		FirebaseServiceAccountJSON: v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON"),
		StorageBucket:              v.GetString("STORAGE_BUCKET"),

		RedisAddr:          strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisDB:            v.GetInt("REDIS_DB"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),

		KafkaBrokers: splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		Commission: CommissionConfig{
			BaseRate:    v.GetFloat64("COMMISSION_BASE_RATE"),
			VIPRate:     v.GetFloat64("COMMISSION_VIP_RATE"),
			PartnerRate: v.GetFloat64("COMMISSION_PARTNER_RATE"),
			MinFee:      v.GetInt64("COMMISSION_MIN_FEE"),
		},
		Listing: ListingConfig{
			MinDescriptionLength: v.GetInt("ACC_MIN_DESCRIPTION"),
		},
		Mediation: MediationConfig{
			AdminContactName: v.GetString("ADMIN_CONTACT_NAME"),
			AdminContactURL:  v.GetString("ADMIN_CONTACT_URL"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("SQLITE_PATH", "accmarket.db")
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("STORE_RETRY_ATTEMPTS", 3)
	v.SetDefault("STORE_RETRY_INITIAL", 50*time.Millisecond)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("KAFKA_TOPIC", "accmarket.moderation")
	v.SetDefault("COMMISSION_BASE_RATE", 5.0)
	v.SetDefault("COMMISSION_VIP_RATE", 3.0)
	v.SetDefault("COMMISSION_PARTNER_RATE", 0.0)
	v.SetDefault("COMMISSION_MIN_FEE", 10000)
	v.SetDefault("ACC_MIN_DESCRIPTION", 10)
	v.SetDefault("ADMIN_CONTACT_NAME", "Admin")
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	case DriverFirestore:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.RetryAttempts < 1 {
		return fmt.Errorf("STORE_RETRY_ATTEMPTS must be >= 1")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	if c.Commission.BaseRate < 0 || c.Commission.VIPRate < 0 || c.Commission.PartnerRate < 0 {
		return fmt.Errorf("commission rates must not be negative")
	}
	if c.Commission.MinFee < 0 {
		return fmt.Errorf("COMMISSION_MIN_FEE must not be negative")
	}
	if c.Listing.MinDescriptionLength < 0 {
		return fmt.Errorf("ACC_MIN_DESCRIPTION must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
