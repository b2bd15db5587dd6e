package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	InputPath         string
	OutPath           string
	CheckpointPath    string
	CheckpointEnabled bool
	PGDSN             string
	LogLevel          string

	Pools    []PoolDefinition
	Accounts []AccountDefinition
}

// PoolDefinition bootstraps one trading pair.
type PoolDefinition struct {
	Pair                  string          `mapstructure:"pair"`
	Token0                string          `mapstructure:"token0"`
	Token1                string          `mapstructure:"token1"`
	TickSpacing           int32           `mapstructure:"tick-spacing"`
	FeePercentage         decimal.Decimal `mapstructure:"fee-percentage"`
	ProtocolFeePercentage decimal.Decimal `mapstructure:"protocol-fee-percentage"`
	InitialPrice          decimal.Decimal `mapstructure:"initial-price"`
}

// AccountDefinition seeds one balance account.
type AccountDefinition struct {
	Key      string          `mapstructure:"key"`
	Currency string          `mapstructure:"currency"`
	Balance  decimal.Decimal `mapstructure:"balance"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("in", "./data/commands.jsonl")
	v.SetDefault("out", "./data/results.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		InputPath:         v.GetString("in"),
		OutPath:           v.GetString("out"),
		CheckpointPath:    v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		PGDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}

	if err := v.UnmarshalKey("pools", &cfg.Pools, viper.DecodeHook(decimalDecodeHook())); err != nil {
		return Config{}, fmt.Errorf("parse pools: %w", err)
	}
	if err := v.UnmarshalKey("accounts", &cfg.Accounts, viper.DecodeHook(decimalDecodeHook())); err != nil {
		return Config{}, fmt.Errorf("parse accounts: %w", err)
	}

	return cfg, nil
}
