package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/subgate-bot/subgate/internal/shared/errors"
)

type Config struct {
	TelegramBotToken string `koanf:"telegram_bot_token"`
	TelegramAPIURL   string `koanf:"telegram_api_url"`

	DatabaseDriver string `koanf:"database_driver"`
	DatabaseDSN    string `koanf:"database_dsn"`
	RedisAddr      string `koanf:"redis_addr"`

	// CacheTTL is how long a confirmed membership stays trusted, in seconds.
	CacheTTL int `koanf:"cache_ttl"`
	// WarningDeleteDelay is how long the remediation prompt stays visible, in seconds.
	WarningDeleteDelay int `koanf:"warning_delete_delay"`
	// VerifyFailOpen controls what a failed membership lookup counts as.
	// False (the default) treats the user as not subscribed.
	VerifyFailOpen bool `koanf:"verify_fail_open"`

	AdminID  int64  `koanf:"admin_id"`
	HTTPPort string `koanf:"http_port"`
	AppEnv   AppEnv `koanf:"app_env"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("telegram_api_url") {
		k.Set("telegram_api_url", "https://api.telegram.org")
	}
	if !k.Exists("database_driver") {
		k.Set("database_driver", "sqlite")
	}
	if !k.Exists("database_dsn") {
		k.Set("database_dsn", "./data/subgate.db")
	}
	if !k.Exists("cache_ttl") {
		k.Set("cache_ttl", 300)
	}
	if !k.Exists("warning_delete_delay") {
		k.Set("warning_delete_delay", 10)
	}
	if !k.Exists("http_port") {
		k.Set("http_port", "8080")
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if cfg.TelegramBotToken == "" {
		return nil, errors.ErrMissingBotToken
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.ErrMissingDSN
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "mysql" {
		return nil, oops.With("database_driver", cfg.DatabaseDriver).Errorf("unsupported database driver")
	}

	return &cfg, nil
}
