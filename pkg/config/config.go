package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"CryptoPrep/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Enabled         bool          `yaml:"enabled"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Exchange struct {
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit int           `yaml:"rate_limit"`
	} `yaml:"exchange"`
	Data struct {
		Currencies []string `yaml:"currencies"`
		Start      string   `yaml:"start"`
		End        string   `yaml:"end"`
		CacheDir   string   `yaml:"cache_dir"`
		Outages    []struct {
			Currency string `yaml:"currency"`
			From     string `yaml:"from"`
			To       string `yaml:"to"`
		} `yaml:"outages"`
	} `yaml:"data"`
	Pipeline struct {
		LagDepth     int     `yaml:"lag_depth"`
		RRLag        int     `yaml:"rr_lag"`
		OutlierIQRK  float64 `yaml:"outlier_iqr_k"`
		TrainFrac    float64 `yaml:"train_frac"`
		ValidateFrac float64 `yaml:"validate_frac"`
	} `yaml:"pipeline"`
	Export struct {
		Backends []string `yaml:"backends"`
		OutDir   string   `yaml:"out_dir"`
	} `yaml:"export"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Modeling struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"modeling"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("CURRENCIES"); v != "" {
		c.Data.Currencies = strings.Split(v, ",")
	}
	if v := os.Getenv("WINDOW_START"); v != "" {
		c.Data.Start = v
	}
	if v := os.Getenv("WINDOW_END"); v != "" {
		c.Data.End = v
	}
	if v := os.Getenv("EXPORT_BACKENDS"); v != "" {
		c.Export.Backends = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Data.Currencies) == 0 {
		return fmt.Errorf("data.currencies cannot be empty")
	}
	if c.Data.Start == "" || c.Data.End == "" {
		return fmt.Errorf("data.start and data.end are required")
	}
	for _, f := range []string{c.Data.Start, c.Data.End} {
		if _, ok := util.ParseDate(f); !ok {
			return fmt.Errorf("data window dates must be YYYY-MM-DD, got '%s'", f)
		}
	}
	if len(c.Export.Backends) == 0 {
		return fmt.Errorf("export.backends cannot be empty")
	}
	for _, b := range c.Export.Backends {
		switch b {
		case "csv", "parquet", "clickhouse", "kafka", "modeling":
		default:
			return fmt.Errorf("unknown export backend '%s'", b)
		}
	}
	if c.Pipeline.LagDepth < 0 || c.Pipeline.RRLag < 0 {
		return fmt.Errorf("pipeline lags must be non-negative")
	}
	if c.Pipeline.TrainFrac < 0 || c.Pipeline.ValidateFrac < 0 ||
		c.Pipeline.TrainFrac+c.Pipeline.ValidateFrac > 1 {
		return fmt.Errorf("split fractions must be non-negative and sum to at most 1")
	}
	return nil
}
