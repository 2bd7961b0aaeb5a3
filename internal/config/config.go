package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		Path        string        `yaml:"path" default:"data/btc_prices.csv" validate:"required"`
		Location    string        `yaml:"location" default:"Local"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"5s" validate:"gt=0"`
	} `yaml:"source"`
	Reports struct {
		Dir  string `yaml:"dir" default:"data/reports" validate:"required"`
		Cron string `yaml:"cron" default:"0 55 23 * * *" validate:"required"`
	} `yaml:"reports"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8050" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis"`
		TTL     time.Duration `yaml:"ttl" default:"10m" validate:"gt=0"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db" validate:"min=0"`
			Prefix   string `yaml:"prefix" default:"pricepulse:"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/pricepulse.db"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout" validate:"required"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// envOverrides lists the environment variables that win over the YAML file.
// Each one may be set with the PRICEPULSE_ prefix or, for the historical
// names, without it.
type envOverrides struct {
	SourcePath       string        `envconfig:"SOURCE_PATH"`
	SourceLocation   string        `envconfig:"SOURCE_LOCATION"`
	ReportsDir       string        `envconfig:"REPORTS_DIR"`
	ReportsCron      string        `envconfig:"REPORTS_CRON"`
	ServerPort       int           `envconfig:"SERVER_PORT"`
	CacheBackend     string        `envconfig:"CACHE_BACKEND"`
	CacheTTL         time.Duration `envconfig:"CACHE_TTL"`
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	TelegramBotToken string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string        `envconfig:"TELEGRAM_CHAT_ID"`
	SQLitePath       string        `envconfig:"SQLITE_PATH"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
	Proxy            string        `envconfig:"HTTPS_PROXY"`
}

// envPrefix scopes the environment overrides.
const envPrefix = "PRICEPULSE"

var validate = validator.New()

// Load reads config from a YAML file, fills defaults, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	// envconfig falls back to the bare tag name when the prefixed variable is unset.
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return err
	}

	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&cfg.Source.Path, env.SourcePath)
	setStr(&cfg.Source.Location, env.SourceLocation)
	setStr(&cfg.Reports.Dir, env.ReportsDir)
	setStr(&cfg.Reports.Cron, env.ReportsCron)
	setStr(&cfg.Cache.Backend, env.CacheBackend)
	setStr(&cfg.Cache.Redis.Addr, env.RedisAddr)
	setStr(&cfg.Cache.Redis.Password, env.RedisPassword)
	setStr(&cfg.Telegram.BotToken, env.TelegramBotToken)
	setStr(&cfg.Telegram.ChatID, env.TelegramChatID)
	setStr(&cfg.Database.SQLitePath, env.SQLitePath)
	setStr(&cfg.Log.Level, env.LogLevel)
	setStr(&cfg.Proxy, env.Proxy)
	if env.ServerPort != 0 {
		cfg.Server.Port = env.ServerPort
	}
	if env.CacheTTL != 0 {
		cfg.Cache.TTL = env.CacheTTL
	}
	return nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("source.location: %w", err)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Reports.Cron); err != nil {
		return fmt.Errorf("reports.cron: %w", err)
	}
	return nil
}

// Location resolves Source.Location. Timestamps without a zone and report dates use it.
func (c *Config) Location() (*time.Location, error) {
	if c.Source.Location == "" || c.Source.Location == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Source.Location)
}

// TelegramEnabled reports whether a bot token and chat are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
