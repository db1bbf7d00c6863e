package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luxlogik/raritycheck/internal/status"
)

var ErrUnknownCollection = errors.New("unknown collection")

type Server struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type Provider struct {
	Type      string        `yaml:"type"`
	BaseURL   string        `yaml:"base_url"` // prefix, addresses are appended
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Primary struct {
	Provider   `yaml:",inline"`
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

type Secondary struct {
	Provider      `yaml:",inline"`
	Concurrency   int     `yaml:"concurrency"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

type Blockchain struct {
	Primary     Primary   `yaml:"primary"`
	Secondary   Secondary `yaml:"secondary"`
	ExplorerURL string    `yaml:"explorer_url"`
}

type CoinType struct {
	Type        string `yaml:"type" json:"type"`
	Name        string `yaml:"name" json:"name"`
	Material    string `yaml:"material" json:"material,omitempty"`
	BorderColor string `yaml:"border_color" json:"borderColor,omitempty"`
	FrontImage  string `yaml:"front_image" json:"frontImage,omitempty"`
	BackImage   string `yaml:"back_image" json:"backImage,omitempty"`
	DataFile    string `yaml:"data_file" json:"-"`
	MaxCoins    int    `yaml:"max_coins" json:"maxCoins,omitempty"`
}

type Collection struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description,omitempty"`
	TotalCoins  int        `yaml:"total_coins" json:"totalCoins"`
	DataFile    string     `yaml:"data_file" json:"-"`
	BuyURL      string     `yaml:"buy_url" json:"buyUrl,omitempty"`
	OtherURL    string     `yaml:"other_url" json:"otherUrl,omitempty"`
	Hidden      bool       `yaml:"hidden" json:"-"` // reachable by id, not listed
	CoinTypes   []CoinType `yaml:"coin_types" json:"coinTypes"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Server      Server       `yaml:"server"`
	Blockchain  Blockchain   `yaml:"blockchain"`
	Statuses    status.Table `yaml:"statuses"`
	DataDir     string       `yaml:"data_dir"`
	Collections []Collection `yaml:"collections"`
	Log         Log          `yaml:"log"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := applyEnv(&c); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// a collection page waits for the whole fallback fan-out
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	p := &c.Blockchain.Primary
	if p.Type == "" {
		p.Type = "blockchaininfo"
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://blockchain.info/balance?active="
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.Attempts == 0 {
		p.Attempts = 1
	}
	if p.Backoff == 0 {
		p.Backoff = 500 * time.Millisecond
	}
	if p.MaxBackoff == 0 {
		p.MaxBackoff = 5 * time.Second
	}

	s := &c.Blockchain.Secondary
	if s.Type == "" {
		s.Type = "mempool"
	}
	if s.BaseURL == "" {
		s.BaseURL = "https://mempool.space/api/address/"
	}
	if s.Timeout == 0 {
		s.Timeout = 5 * time.Second
	}
	if s.Concurrency == 0 {
		s.Concurrency = 8
	}
	if s.RatePerSecond == 0 {
		s.RatePerSecond = 10
	}
	if s.Burst == 0 {
		s.Burst = 5
	}

	if c.Blockchain.ExplorerURL == "" {
		c.Blockchain.ExplorerURL = "https://www.blockchain.com/explorer/addresses/btc/"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Statuses = c.Statuses.WithDefaults()
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Blockchain.Primary.BaseURL, "http") {
		return fmt.Errorf("blockchain.primary.base_url must be an http(s) URL: %q", c.Blockchain.Primary.BaseURL)
	}
	if !strings.HasPrefix(c.Blockchain.Secondary.BaseURL, "http") {
		return fmt.Errorf("blockchain.secondary.base_url must be an http(s) URL: %q", c.Blockchain.Secondary.BaseURL)
	}
	if c.Blockchain.Secondary.Concurrency < 0 {
		return fmt.Errorf("blockchain.secondary.concurrency must be positive")
	}
	if err := c.Statuses.Validate(); err != nil {
		return fmt.Errorf("statuses: %w", err)
	}

	seen := make(map[string]bool, len(c.Collections))
	for i, col := range c.Collections {
		if col.ID == "" {
			return fmt.Errorf("collection at index %d missing id", i)
		}
		if seen[col.ID] {
			return fmt.Errorf("duplicate collection id %q", col.ID)
		}
		seen[col.ID] = true
		if len(col.CoinTypes) == 0 {
			return fmt.Errorf("collection %q has no coin types", col.ID)
		}
		for j, ct := range col.CoinTypes {
			if ct.Type == "" {
				return fmt.Errorf("collection %q: coin type at index %d missing type", col.ID, j)
			}
			if ct.DataFile == "" && col.DataFile == "" {
				return fmt.Errorf("collection %q: coin type %q has no data file", col.ID, ct.Type)
			}
		}
	}
	return nil
}

// Collection returns the collection with the given id, hidden ones included.
func (c *Config) Collection(id string) (Collection, error) {
	for _, col := range c.Collections {
		if col.ID == id {
			return col, nil
		}
	}
	return Collection{}, fmt.Errorf("%w: %s", ErrUnknownCollection, id)
}

// Listed returns the collections shown on the index page.
func (c *Config) Listed() []Collection {
	out := make([]Collection, 0, len(c.Collections))
	for _, col := range c.Collections {
		if !col.Hidden {
			out = append(out, col)
		}
	}
	return out
}
