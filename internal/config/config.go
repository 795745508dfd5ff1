package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBUrl    string `mapstructure:"DB_URL"`
	RedisUrl string `mapstructure:"REDIS_URL"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	ClaimRadiusKm float64       `mapstructure:"CLAIM_RADIUS_KM"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	VerifyTimeout time.Duration `mapstructure:"VERIFY_TIMEOUT"`
	Verifier      string        `mapstructure:"VERIFIER"`
	AccuracyAware bool          `mapstructure:"ACCURACY_AWARE"`

	CatalogSeedFile    string `mapstructure:"CATALOG_SEED_FILE"`
	CatalogRefreshCron string `mapstructure:"CATALOG_REFRESH_CRON"`

	SimulateRoute string `mapstructure:"SIMULATE_ROUTE"`
	SimulateUser  string `mapstructure:"SIMULATE_USER"`
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", ":8080")
	// empty runs the catalog and claim records without Postgres
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "geoclaim.log")
	v.SetDefault("CLAIM_RADIUS_KM", 0.1)
	v.SetDefault("SESSION_TTL", 5*time.Minute)
	v.SetDefault("VERIFY_TIMEOUT", 10*time.Second)
	v.SetDefault("VERIFIER", "redis")
	v.SetDefault("ACCURACY_AWARE", false)
	v.SetDefault("CATALOG_SEED_FILE", "")
	v.SetDefault("CATALOG_REFRESH_CRON", "*/15 * * * *")
	v.SetDefault("SIMULATE_ROUTE", "")
	v.SetDefault("SIMULATE_USER", "walker")
}

func LoadConfig() (Config, error) {
	return Load(viper.New(), ".")
}

// Load reads .env.<APP_ENV> from dir into v and overlays the environment.
func Load(v *viper.Viper, dir string) (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	setDefaults(v)

	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(dir)

	// Environment variables take precedence over config file
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	if err = v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	if c.ClaimRadiusKm <= 0 {
		return fmt.Errorf("CLAIM_RADIUS_KM must be positive, got %v", c.ClaimRadiusKm)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL)
	}
	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("VERIFY_TIMEOUT must be positive, got %v", c.VerifyTimeout)
	}
	switch c.Verifier {
	case "local", "redis":
	default:
		return fmt.Errorf("VERIFIER must be local or redis, got %q", c.Verifier)
	}
	return nil
}
