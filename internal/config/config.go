package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Rewards  *RewardsConfig  `mapstructure:"rewards"`
}

type APIConfig struct {
	Environment        string `mapstructure:"environment"`
	BaseURL            string `mapstructure:"base_url"`
	Port               string `mapstructure:"port"`
	JWTSigningKey      string `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains string `mapstructure:"allowed_cors_domains"`

	// Bcrypt hash of the shared key internal services present on
	// machine-to-machine endpoints.
	ServiceKeyHash string `mapstructure:"service_key_hash"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RewardsConfig struct {
	// ConversionRate is the cash value of one coin, as a decimal string
	// to avoid float drift.
	ConversionRate string `mapstructure:"conversion_rate"`
}

func Load(path string) (*AppConfig, error) {
	viper.SetConfigFile(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	return conf, nil
}

// Watch reloads the config file on change and hands the fresh config to
// fn. Only settings read per-request (e.g. the conversion rate) pick up
// the new values; server wiring is not re-run.
func Watch(fn func(conf *AppConfig)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed", zap.String("file", e.Name))

		conf := &AppConfig{}
		if err := viper.Unmarshal(conf); err != nil {
			zap.L().Error("failed to reload config", zap.Error(err))
			return
		}

		fn(conf)
	})
	viper.WatchConfig()
}
