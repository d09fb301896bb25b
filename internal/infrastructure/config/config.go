package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KTRAIN_SERVER_PORT.
const EnvPrefix = "KTRAIN"

// Config holds the service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	NLI      NLIConfig      `mapstructure:"nli"`
	Training TrainingConfig `mapstructure:"training"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig holds model registry settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RedisConfig holds zero-shot score cache settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NLIConfig holds the NLI inference service settings.
type NLIConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Model     string        `mapstructure:"model"`
	BatchSize int           `mapstructure:"batch_size"`
	Template  string        `mapstructure:"template"`
}

// TrainingConfig holds training settings. CSV and folder sources are read
// from below DataDir; an empty DataDir allows inline data only.
type TrainingConfig struct {
	DataDir           string `mapstructure:"data_dir"`
	MaxConcurrentFits int    `mapstructure:"max_concurrent_fits"`
}

// Load reads configuration from defaults and KTRAIN_* environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadArgs parses command-line flags, then loads the file named by --config
// if one was given.
func LoadArgs(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("ktrain", pflag.ContinueOnError)
	path := fs.StringP("config", "c", "", "path to a YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return LoadFile(*path)
}

// LoadFile reads configuration from defaults, an optional file and the
// environment, in increasing priority.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no safe fallback.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.NLI.BatchSize < 1 {
		return errors.New("nli.batch_size must be >= 1")
	}
	if c.Training.MaxConcurrentFits < 1 {
		return errors.New("training.max_concurrent_fits must be >= 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ktrain")
	v.SetDefault("database.password", "ktrain")
	v.SetDefault("database.dbname", "ktrain")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "ktrain.db")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("nli.enabled", true)
	v.SetDefault("nli.base_url", "http://localhost:8000")
	v.SetDefault("nli.timeout", 30*time.Second)
	v.SetDefault("nli.model", "facebook/bart-large-mnli")
	v.SetDefault("nli.batch_size", 8)
	v.SetDefault("nli.template", "This text is about {}.")

	v.SetDefault("training.data_dir", "data")
	v.SetDefault("training.max_concurrent_fits", 2)
}
