package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// overrides are the settings operators usually change per deployment.
type overrides struct {
	ListenAddress       string        `env:"RARITYCHECK_LISTEN_ADDRESS"`
	DataDir             string        `env:"RARITYCHECK_DATA_DIR"`
	PrimaryURL          string        `env:"RARITYCHECK_PRIMARY_URL"`
	SecondaryURL        string        `env:"RARITYCHECK_SECONDARY_URL"`
	UserAgent           string        `env:"RARITYCHECK_USER_AGENT"`
	RequestTimeout      time.Duration `env:"RARITYCHECK_REQUEST_TIMEOUT"`
	FallbackConcurrency int           `env:"RARITYCHECK_FALLBACK_CONCURRENCY"`
	LogLevel            string        `env:"RARITYCHECK_LOG_LEVEL"`
}

// LoadDotEnv loads a .env file from the working directory if there is one.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file loaded", zap.Error(err))
	}
}

func applyEnv(c *Config) error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return err
	}
	if o.ListenAddress != "" {
		c.Server.ListenAddress = o.ListenAddress
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.PrimaryURL != "" {
		c.Blockchain.Primary.BaseURL = o.PrimaryURL
	}
	if o.SecondaryURL != "" {
		c.Blockchain.Secondary.BaseURL = o.SecondaryURL
	}
	if o.UserAgent != "" {
		c.Blockchain.Primary.UserAgent = o.UserAgent
		c.Blockchain.Secondary.UserAgent = o.UserAgent
	}
	if o.RequestTimeout > 0 {
		c.Blockchain.Primary.Timeout = o.RequestTimeout
		c.Blockchain.Secondary.Timeout = o.RequestTimeout
	}
	if o.FallbackConcurrency > 0 {
		c.Blockchain.Secondary.Concurrency = o.FallbackConcurrency
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	return nil
}
