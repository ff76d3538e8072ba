package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string `mapstructure:"API_PORT"`
	Env             string `mapstructure:"ENV"`
	MongoURI        string `mapstructure:"MONGO_URI"`
	MongoDatabase   string `mapstructure:"MONGO_DATABASE"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	JWTExpiresIn    int    `mapstructure:"JWT_EXPIRES_IN"` // seconds
	CORSOrigins     string `mapstructure:"CORS_ORIGINS"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogFormat       string `mapstructure:"LOG_FORMAT"`
	RedisURL        string `mapstructure:"REDIS_URL"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`
	AWSRegion       string `mapstructure:"AWS_REGION"`
	TextbeltAPIKey  string `mapstructure:"TEXTBELT_API_KEY"`
	StrictBooking   bool   `mapstructure:"STRICT_BOOKING"`
	SearchLimit     int    `mapstructure:"SEARCH_LIMIT"`

	// DotEnvLoaded reports whether a .env file was found.
	DotEnvLoaded bool `mapstructure:"-"`
}

var defaults = map[string]interface{}{
	"API_PORT":       "8080",
	"ENV":            "development",
	"MONGO_DATABASE": "curalink",
	"JWT_EXPIRES_IN": 86400,
	"CORS_ORIGINS":   "http://localhost:3000",
	"LOG_LEVEL":      "info",
	"LOG_FORMAT":     "json",
	"AWS_REGION":     "us-east-1",
	"STRICT_BOOKING": false,
	"SEARCH_LIMIT":   50,
}

var keys = []string{
	"API_PORT", "ENV", "MONGO_URI", "MONGO_DATABASE", "JWT_SECRET", "JWT_EXPIRES_IN",
	"CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "REDIS_URL", "S3_BUCKET", "S3_ENDPOINT",
	"S3_PUBLIC_BASE_URL", "AWS_REGION", "TEXTBELT_API_KEY", "STRICT_BOOKING", "SEARCH_LIMIT",
}

// Load reads .env (when present) into the environment, then resolves every
// setting from the environment with defaults, and validates the result.
func Load() (*Config, error) {
	dotEnv := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DotEnvLoaded = dotEnv

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be a positive number of seconds, got %d", c.JWTExpiresIn)
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\" or \"production\", got %q", c.Env)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresIn) * time.Second
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
