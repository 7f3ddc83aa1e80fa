package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (ZELLIJ_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (ZELLIJ_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (ZELLIJ_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Pricing      PricingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PricingConfig carries the storefront pricing constants and the order
// number prefix.
type PricingConfig struct {
	TaxRate               string `default:"0.10" usage:"Tax rate as a decimal fraction" flag:"tax-rate"`
	FreeShippingThreshold string `default:"500"  usage:"Subtotal granting free shipping" flag:"free-shipping-threshold"`
	FlatShippingRate      string `default:"25"   usage:"Shipping cost below the threshold" flag:"flat-shipping-rate"`
	OrderNumberPrefix     string `default:"ZMM"  usage:"Prefix for generated order numbers" flag:"order-number-prefix"`
}

// Rates parses the pricing constants into calculator rates.
func (p PricingConfig) Rates() (pricing.Rates, error) {
	tax, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return pricing.Rates{}, errors.Wrap(err, "parse tax rate")
	}
	threshold, err := decimal.NewFromString(p.FreeShippingThreshold)
	if err != nil {
		return pricing.Rates{}, errors.Wrap(err, "parse free shipping threshold")
	}
	flat, err := decimal.NewFromString(p.FlatShippingRate)
	if err != nil {
		return pricing.Rates{}, errors.Wrap(err, "parse flat shipping rate")
	}
	return pricing.Rates{
		TaxRate:               tax,
		FreeShippingThreshold: threshold,
		FlatShippingRate:      flat,
	}, nil
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ZELLIJ",
		Files:     []string{"config.yaml", "/etc/zellij/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set ZELLIJ_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT onto the ZELLIJ_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
