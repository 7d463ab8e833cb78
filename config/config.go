package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Storage. STORE_BACKEND=memory runs everything in-process with the
	// demo catalogue seeded.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	SeedData     bool   `mapstructure:"SEED_DATA"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB  int    `mapstructure:"REDIS_SESSION_DB"`
	RedisSnapshotDB int    `mapstructure:"REDIS_SNAPSHOT_DB"`
	RedisQueueDB    int    `mapstructure:"REDIS_QUEUE_DB"`

	// Scheduling.
	SlotGranularityMinutes    int    `mapstructure:"SLOT_GRANULARITY_MINUTES"`
	RemoteTimeoutSeconds      int    `mapstructure:"REMOTE_TIMEOUT_SECONDS"`
	SelectionStalenessSeconds int    `mapstructure:"SELECTION_STALENESS_SECONDS"`
	SessionTTLMinutes         int    `mapstructure:"SESSION_TTL_MINUTES"`
	SnapshotTTLMinutes        int    `mapstructure:"SNAPSHOT_TTL_MINUTES"`
	CompletionSweepSpec       string `mapstructure:"COMPLETION_SWEEP_SPEC"`
	Timezone                  string `mapstructure:"TIMEZONE"`
}

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "bookly")
	v.SetDefault("STORE_BACKEND", BackendMongo)
	v.SetDefault("SEED_DATA", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_SNAPSHOT_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)

	v.SetDefault("SLOT_GRANULARITY_MINUTES", 60)
	v.SetDefault("REMOTE_TIMEOUT_SECONDS", 10)
	v.SetDefault("SELECTION_STALENESS_SECONDS", 30)
	v.SetDefault("SESSION_TTL_MINUTES", 30)
	v.SetDefault("SNAPSHOT_TTL_MINUTES", 60)
	v.SetDefault("COMPLETION_SWEEP_SPEC", "@every 5m")
	v.SetDefault("TIMEZONE", "Local")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

func (c Config) UseMemoryStore() bool {
	return c.StoreBackend == BackendMemory
}

func (c Config) RemoteTimeout() time.Duration {
	return secondsOr(c.RemoteTimeoutSeconds, 10)
}

func (c Config) StalenessWindow() time.Duration {
	return secondsOr(c.SelectionStalenessSeconds, 30)
}

func (c Config) SessionTTL() time.Duration {
	return minutesOr(c.SessionTTLMinutes, 30)
}

func (c Config) SnapshotTTL() time.Duration {
	return minutesOr(c.SnapshotTTLMinutes, 60)
}

// Location resolves TIMEZONE, falling back to the local zone when it is
// empty or unknown.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[Location] unknown timezone %q, using local: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

func secondsOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

func minutesOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Minute
}
