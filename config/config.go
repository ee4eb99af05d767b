package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Email verification policies, mirroring the account settings of the web app.
const (
	EmailVerificationNone      = "none"
	EmailVerificationOptional  = "optional"
	EmailVerificationMandatory = "mandatory"
)

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	LogLevel    string `mapstructure:"log_level"`
	ServiceName string `mapstructure:"service_name"`

	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	NFT      NFTConfig      `mapstructure:"nft"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Consul   ConsulConfig   `mapstructure:"consul"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mysql, postgres or sqlite
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JwtSecret          string        `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	EmailVerification  string        `mapstructure:"email_verification"`
	UniqueEmail        bool          `mapstructure:"unique_email"`
	PasswordMinLength  int           `mapstructure:"password_min_length"`
	LoginRatePerMinute int           `mapstructure:"login_rate_per_minute"`
}

type NFTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Chain   string        `mapstructure:"chain"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AdminConfig describes the staff account seeded on an empty database.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

const insecureDefaultSecret = "default-very-insecure-secret-key"

// Load reads .env, config.yaml and CAPSTONE_* environment variables, in that
// order of increasing precedence.
func Load() (*Config, error) {
	// .env is optional; only a malformed file is an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CAPSTONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults also makes every key known to viper, which AutomaticEnv needs
// to resolve nested keys during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8080)
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "capstone-nft")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "capstone.db")

	v.SetDefault("auth.jwt_secret", insecureDefaultSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.email_verification", EmailVerificationOptional)
	v.SetDefault("auth.unique_email", true)
	v.SetDefault("auth.password_min_length", 8)
	v.SetDefault("auth.login_rate_per_minute", 30)

	v.SetDefault("nft.base_url", "https://deep-index.moralis.io")
	v.SetDefault("nft.api_key", "")
	v.SetDefault("nft.chain", "rinkeby")
	v.SetDefault("nft.timeout", 10*time.Second)

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")

	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")
}

// Validate checks the settings that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	switch c.Auth.EmailVerification {
	case EmailVerificationNone, EmailVerificationOptional, EmailVerificationMandatory:
	default:
		return fmt.Errorf("auth.email_verification must be one of none, optional, mandatory; got %q", c.Auth.EmailVerification)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be one of mysql, postgres, sqlite; got %q", c.Database.Driver)
	}
	if c.NFT.Timeout <= 0 {
		return errors.New("nft.timeout must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}

// InsecureSecret reports whether the JWT secret is still the built-in default.
func (c *Config) InsecureSecret() bool {
	return c.Auth.JwtSecret == insecureDefaultSecret
}
