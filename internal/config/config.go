package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Payments PaymentsConfig `mapstructure:"payments"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Workers  WorkersConfig  `mapstructure:"workers"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GameConfig holds the round rules
type GameConfig struct {
	RoundDuration       time.Duration `mapstructure:"round_duration"`
	InactivityThreshold time.Duration `mapstructure:"inactivity_threshold"`
	TokenDecimals       int32         `mapstructure:"token_decimals"`
	TokenSymbol         string        `mapstructure:"token_symbol"`
	RequireAddressIDs   bool          `mapstructure:"require_address_ids"`
	LeaderboardSize     int           `mapstructure:"leaderboard_size"`
}

// StorageConfig selects and configures the history store
type StorageConfig struct {
	Driver string      `mapstructure:"driver"` // mongo, postgres, sqlite or memory
	Mongo  MongoConfig `mapstructure:"mongo"`
	SQL    SQLConfig   `mapstructure:"sql"`
}

// MongoConfig holds MongoDB-specific configuration
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// SQLConfig holds the DSN for the postgres and sqlite drivers
type SQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// PaymentsConfig holds payment rail configuration
type PaymentsConfig struct {
	Mode         string        `mapstructure:"mode"` // mock or http
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MockFailRate float64       `mapstructure:"mock_fail_rate"`
}

// AuthConfig holds JWT-specific configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	DevTokens bool          `mapstructure:"dev_tokens"`
}

// WorkersConfig controls the background round worker
type WorkersConfig struct {
	AutoEndRounds       bool          `mapstructure:"auto_end_rounds"`
	AutoClaimInactivity bool          `mapstructure:"auto_claim_inactivity"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// EnvPrefix prefixes every environment override, e.g. FFP_GAME_ROUND_DURATION.
const EnvPrefix = "FFP"

// Load loads configuration from .env, an optional config.yaml and environment
// variables, in increasing order of precedence. With no paths it searches
// "." and "./config".
func Load(paths ...string) (*Config, error) {
	config, err := Read(paths...)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Read is Load without validation, for tools that only need some sections.
func Read(paths ...string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if file := GetEnv(EnvPrefix+"_CONFIG_FILE", ""); file != "" {
		v.SetConfigFile(file)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read configuration
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal configuration
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("game.round_duration", 15*time.Second)
	v.SetDefault("game.inactivity_threshold", 5*time.Minute)
	v.SetDefault("game.token_decimals", 18)
	v.SetDefault("game.token_symbol", "MON")
	v.SetDefault("game.require_address_ids", true)
	v.SetDefault("game.leaderboard_size", 10)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "fastest_finger")
	v.SetDefault("storage.mongo.connect_timeout", 10*time.Second)
	v.SetDefault("storage.sql.dsn", "data/fastest-finger.db")

	v.SetDefault("payments.mode", "mock")
	v.SetDefault("payments.base_url", "")
	v.SetDefault("payments.api_key", "")
	v.SetDefault("payments.timeout", 10*time.Second)
	v.SetDefault("payments.mock_fail_rate", 0.0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "fastest-finger-pot")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.dev_tokens", false)

	v.SetDefault("workers.auto_end_rounds", true)
	v.SetDefault("workers.auto_claim_inactivity", true)
	v.SetDefault("workers.poll_interval", time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	g := c.Game
	if g.RoundDuration <= 0 {
		errs = append(errs, errors.New("game.round_duration must be positive"))
	}
	if g.InactivityThreshold <= g.RoundDuration {
		errs = append(errs, errors.New("game.inactivity_threshold must exceed game.round_duration"))
	}
	if g.TokenDecimals < 0 || g.TokenDecimals > 18 {
		errs = append(errs, fmt.Errorf("game.token_decimals %d out of range 0..18", g.TokenDecimals))
	}
	if g.LeaderboardSize <= 0 {
		errs = append(errs, errors.New("game.leaderboard_size must be positive"))
	}

	switch c.Storage.Driver {
	case "memory", "mongo", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if (c.Storage.Driver == "postgres" || c.Storage.Driver == "sqlite") && c.Storage.SQL.DSN == "" {
		errs = append(errs, errors.New("storage.sql.dsn is required for sql drivers"))
	}

	switch c.Payments.Mode {
	case "mock":
		if c.Payments.MockFailRate < 0 || c.Payments.MockFailRate > 1 {
			errs = append(errs, errors.New("payments.mock_fail_rate must be within [0, 1]"))
		}
	case "http":
		if c.Payments.BaseURL == "" {
			errs = append(errs, errors.New("payments.base_url is required in http mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown payments.mode %q", c.Payments.Mode))
	}
	if c.Payments.Timeout <= 0 {
		errs = append(errs, errors.New("payments.timeout must be positive"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Workers.PollInterval <= 0 {
		errs = append(errs, errors.New("workers.poll_interval must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}
