package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"CandleWatch/internal/model"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Market is one tracked pair in the overview.
type Market struct {
	Symbol   string `yaml:"symbol" validate:"required"`
	Currency string `yaml:"currency" default:"USD" validate:"oneof=USD BRL"`
	Slot     string `yaml:"slot" validate:"required"`
}

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL string        `yaml:"base_url" default:"https://api.binance.com" validate:"required,url"`
		Timeout time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		Proxy   string        `yaml:"proxy" validate:"omitempty,url"`
	} `yaml:"provider"`
	Refresh struct {
		Period        time.Duration `yaml:"period" default:"2s" validate:"gte=1s"`
		PrimaryLimit  int           `yaml:"primary_limit" default:"200" validate:"gt=0,lte=1000"`
		FallbackLimit int           `yaml:"fallback_limit" default:"20" validate:"gt=0,ltefield=PrimaryLimit"`
		MinRows       int           `yaml:"min_rows" default:"5" validate:"gt=0,ltefield=FallbackLimit"`
	} `yaml:"refresh"`
	Overview struct {
		Quote         string   `yaml:"quote" default:"USDTBRL" validate:"required"`
		QuoteCurrency string   `yaml:"quote_currency" default:"BRL" validate:"oneof=USD BRL"`
		Markets       []Market `yaml:"markets" validate:"dive"`
	} `yaml:"overview"`
	Selection struct {
		Pair      string `yaml:"pair" default:"BTCBRL"`
		Timeframe string `yaml:"timeframe" default:"4h"`
	} `yaml:"selection"`
	Store struct {
		Driver string `yaml:"driver" default:"file" validate:"oneof=file sqlite none"`
		Path   string `yaml:"path"`
	} `yaml:"store"`
	Server struct {
		Host           string   `yaml:"host" default:"0.0.0.0"`
		Port           int      `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		// AllowedOrigins lists extra browser origins allowed to open /ws.
		AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,url"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	} `yaml:"log"`
}

// DefaultMarkets is the overview used when none is configured.
var DefaultMarkets = []Market{
	{Symbol: "BTCUSDT", Currency: "USD", Slot: "btc-info"},
	{Symbol: "ETHUSDT", Currency: "USD", Slot: "eth-info"},
	{Symbol: "BTCBRL", Currency: "BRL", Slot: "btcbrl-info"},
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies .env and environment variable
// overrides, then fills defaults.
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

	// .env is optional; variables already set win over it.
	_ = godotenv.Load()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if len(cfg.Overview.Markets) == 0 {
		cfg.Overview.Markets = append([]Market(nil), DefaultMarkets...)
	}
	for i := range cfg.Overview.Markets {
		if err := defaults.Set(&cfg.Overview.Markets[i]); err != nil {
			return nil, fmt.Errorf("config defaults: %w", err)
		}
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Driver {
		case "sqlite":
			cfg.Store.Path = "data/candlewatch.db"
		case "file":
			cfg.Store.Path = "data/selection.json"
		}
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Provider.Proxy = v
	}
	if v := os.Getenv("REFRESH_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REFRESH_PERIOD: %w", err)
		}
		cfg.Refresh.Period = d
	}
	if v := os.Getenv("DEFAULT_PAIR"); v != "" {
		cfg.Selection.Pair = v
	}
	if v := os.Getenv("DEFAULT_TIMEFRAME"); v != "" {
		cfg.Selection.Timeframe = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// DefaultSelection returns the configured starting selection.
func (c *Config) DefaultSelection() model.Selection {
	return model.Selection{
		Pair:      model.PairKey(c.Selection.Pair),
		Timeframe: model.Timeframe(c.Selection.Timeframe),
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.DefaultSelection().Validate(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	return nil
}
