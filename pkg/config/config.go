package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"MacroPulse/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"3s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Cache struct {
		Backend    string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		TTL        time.Duration `yaml:"ttl" default:"3m" validate:"gte=2m,lte=5m"`
		MaxEntries int           `yaml:"max_entries" default:"256" validate:"gte=1"`
		Redis      struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"macropulse"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Aggregate struct {
		Budget time.Duration `yaml:"budget" default:"8s" validate:"gt=0"`
	} `yaml:"aggregate"`
	Providers struct {
		Timeout   time.Duration `yaml:"timeout" default:"4s" validate:"gt=0"`
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; MacroPulse/1.0)"`
		Yahoo     struct {
			BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"required,url"`
		} `yaml:"yahoo"`
		AlphaVantage struct {
			BaseURL string `yaml:"base_url" default:"https://www.alphavantage.co" validate:"required,url"`
			APIKey  string `yaml:"api_key" default:"demo"`
		} `yaml:"alphavantage"`
		FRED struct {
			BaseURL string `yaml:"base_url" default:"https://fred.stlouisfed.org" validate:"required,url"`
		} `yaml:"fred"`
		NAV struct {
			BaseURL  string `yaml:"base_url" default:"https://api.mfapi.in/mf/search" validate:"required,url"`
			FundName string `yaml:"fund_name" default:"Nippon India ETF Gold BeES" validate:"required"`
		} `yaml:"nav"`
		Symbols Symbols `yaml:"symbols"`
	} `yaml:"providers"`
	Refresh struct {
		Enabled  bool          `yaml:"enabled" default:"false"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"refresh"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"2" validate:"gt=0"`
		Burst   int     `yaml:"burst" default:"10" validate:"gte=1"`
	} `yaml:"ratelimit"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled" default:"false"`
		Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
		Topic        string        `yaml:"topic" default:"macropulse.logs"`
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		FlushEvery   time.Duration `yaml:"flush_every" default:"30s"`
		MaxUnique    int           `yaml:"max_unique" default:"100"`
	} `yaml:"kafka"`
}

// Symbols holds the upstream identifiers per output field.
type Symbols struct {
	IndexQuote      string `yaml:"index_quote" default:"DX-Y.NYB"`
	IndexCSV        string `yaml:"index_csv" default:"DXY"`
	FXQuote         string `yaml:"fx_quote" default:"INR=X"`
	FXCSV           string `yaml:"fx_csv" default:"USDINR"`
	RealYield       string `yaml:"real_yield" default:"DFII10"`
	RealYieldBackup string `yaml:"real_yield_backup" default:"FII10"`
	InstrumentQuote string `yaml:"instrument_quote" default:"GOLDBEES.NS"`
	InstrumentCSV   string `yaml:"instrument_csv" default:"GOLDBEES.BSE"`
}

var validate = validator.New()

// Default returns a fully defaulted configuration without reading any file.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.finalize()
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.finalize()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are enough to run.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
	} else {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("PORT"), c.Server.Port)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

func (c *Config) finalize() {
	if c.Refresh.Interval <= 0 {
		c.Refresh.Interval = c.Cache.TTL
	}
}
