// Package config arma la configuración del servidor desde variables de entorno.
// Los flags de cmd/api pisan lo que venga del entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"content-gate/internal/domain/tiers"
	"content-gate/internal/platform/httpclient"
	"content-gate/internal/platform/money"
)

type Upstream struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries int
}

func (u Upstream) HTTP() httpclient.Config {
	return httpclient.Config{BaseURL: u.BaseURL, APIKey: u.APIKey, Timeout: u.Timeout, Retries: u.Retries}
}

func (u Upstream) Enabled() bool {
	return u.BaseURL != "" && u.APIKey != ""
}

type Config struct {
	Port    string
	AppName string

	LogLevel  string
	LogFormat string

	// Storage: DB_DSN (Postgres) > SQLITE_PATH > memoria.
	DBDSN      string
	SQLitePath string
	// RedisAddr: si viene, los ContentSignal van a Redis.
	RedisAddr string

	TiersFile   string
	DefaultTier string
	Currency    string

	Odin       Upstream
	Payments   Upstream
	Engagement Upstream

	// RefreshSchedule vacío => sin refresco periódico.
	RefreshSchedule    string
	RefreshConcurrency int

	DisabledTools []string
}

func DefaultConfig() *Config {
	return &Config{
		Port:               "8080",
		AppName:            "content-gate",
		LogLevel:           "info",
		LogFormat:          "json",
		DefaultTier:        "premium",
		Currency:           money.DefaultCurrency,
		Engagement:         Upstream{Timeout: 3 * time.Second, Retries: 2},
		RefreshConcurrency: 8,
	}
}

// Load = DefaultConfig + LoadFromEnv(os.Getenv) + Validate.
func Load() (*Config, error) {
	c := DefaultConfig()
	if err := c.LoadFromEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromEnv lee variables vía getenv (os.Getenv en producción).
func (c *Config) LoadFromEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Port)
	str("APP_NAME", &c.AppName)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("DB_DSN", &c.DBDSN)
	str("SQLITE_PATH", &c.SQLitePath)
	str("REDIS_ADDR", &c.RedisAddr)
	str("TIERS_FILE", &c.TiersFile)
	str("DEFAULT_TIER", &c.DefaultTier)
	str("CURRENCY", &c.Currency)

	str("ODIN_BASE_URL", &c.Odin.BaseURL)
	str("ODIN_API_KEY", &c.Odin.APIKey)
	str("PAYMENTS_BASE_URL", &c.Payments.BaseURL)
	str("PAYMENTS_API_KEY", &c.Payments.APIKey)
	str("ENGAGEMENT_BASE_URL", &c.Engagement.BaseURL)
	str("ENGAGEMENT_API_KEY", &c.Engagement.APIKey)
	str("REFRESH_SCHEDULE", &c.RefreshSchedule)

	if v := strings.TrimSpace(getenv("ENGAGEMENT_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ENGAGEMENT_TIMEOUT: %w", err)
		}
		c.Engagement.Timeout = d
	}
	if v := strings.TrimSpace(getenv("REFRESH_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REFRESH_CONCURRENCY: %w", err)
		}
		c.RefreshConcurrency = n
	}
	if v := getenv("DISABLED_TOOLS"); v != "" {
		c.DisabledTools = splitCSV(v)
	}

	c.Currency = strings.ToLower(c.Currency)
	return nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.DefaultTier == "" {
		return fmt.Errorf("default tier is required")
	}
	if c.Engagement.Timeout <= 0 {
		return fmt.Errorf("engagement timeout must be positive")
	}
	if c.RefreshConcurrency <= 0 {
		return fmt.Errorf("refresh concurrency must be positive")
	}
	return nil
}

func (c *Config) Addr() string { return ":" + c.Port }

// LoadCatalog lee TIERS_FILE o, sin archivo, usa el catálogo por defecto.
// El DefaultTier tiene que existir en el catálogo resultante.
func (c *Config) LoadCatalog() (*tiers.Catalog, error) {
	var (
		catalog *tiers.Catalog
		err     error
	)
	if c.TiersFile != "" {
		catalog, err = tiers.LoadFile(c.TiersFile, c.Currency)
		if err != nil {
			return nil, err
		}
	} else {
		catalog = tiers.Default(c.Currency)
	}
	if _, err := catalog.Lookup(c.DefaultTier); err != nil {
		return nil, fmt.Errorf("default tier %q: %w", c.DefaultTier, err)
	}
	return catalog, nil
}

func splitCSV(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
