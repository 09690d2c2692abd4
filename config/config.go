package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port" validate:"required"`
	} `mapstructure:"server"`
	// Database holds static connection parameters, used when no secret is configured.
	// SSLMode applies to secret-sourced credentials too.
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"ssl_mode" validate:"oneof=disable require verify-ca verify-full"`
	} `mapstructure:"database"`
	Secret struct {
		ARN      string        `mapstructure:"arn"`
		Region   string        `mapstructure:"region"`
		CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	} `mapstructure:"secret"`
	Redis struct {
		Address  string        `mapstructure:"address"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
	} `mapstructure:"redis"`
	Policy Policy `mapstructure:"policy"`
}

// Policy groups request-level limits. None of them mirror a schema constraint.
type Policy struct {
	MaxTransactionID     int `mapstructure:"max_transaction_id" validate:"gt=0"`
	ListLimit            int `mapstructure:"list_limit" validate:"gt=0,lte=100"`
	MaxProductNameLength int `mapstructure:"max_product_name_length" validate:"gt=0,lte=255"`
}

// DefaultPolicy returns the limits used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxTransactionID:     999999,
		ListLimit:            100,
		MaxProductNameLength: 255,
	}
}

var AppConfig Config

// LoadConfig reads config.yml from path (if present) and overlays environment variables,
// e.g. SERVER_PORT or POLICY_LIST_LIMIT. RDS_SECRET_ARN and AWS_REGION are honoured
// for the secret reference.
func LoadConfig(path string) error {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("secret.arn", "SECRET_ARN", "RDS_SECRET_ARN")
	_ = v.BindEnv("secret.region", "SECRET_REGION", "AWS_REGION")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	AppConfig = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	policy := DefaultPolicy()

	v.SetDefault("server.port", "8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "transactions")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("secret.arn", "")
	v.SetDefault("secret.region", "")
	v.SetDefault("secret.cache_ttl", "0s")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("policy.max_transaction_id", policy.MaxTransactionID)
	v.SetDefault("policy.list_limit", policy.ListLimit)
	v.SetDefault("policy.max_product_name_length", policy.MaxProductNameLength)
}
