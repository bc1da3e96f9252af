package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"

	ProviderGoTrue = "gotrue"
	ProviderLocal  = "local"
)

type Config struct {
	Port        string `env:"PORT,          default=5000"`
	Env         string `env:"ENV,           default=development"`
	LogLevel    string `env:"LOG_LEVEL,     default=info"`
	ClientURL   string `env:"CLIENT_URL,    default=http://localhost:3000"`
	APIBasePath string `env:"API_BASE_PATH, default=/api"`
	BodyLimit   string `env:"BODY_LIMIT,    default=10M"`
	Swagger     bool   `env:"SWAGGER,       default=true"`
	// TrustedProxies lists the CIDRs or IPs allowed to set X-Forwarded-For.
	// Empty means the socket address is the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	JWT       JWTConfig
	Identity  IdentityConfig
	Store     StoreConfig
	Mongo     MongoConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Telemetry TelemetryConfig
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET, required"`
	Issuer     string        `env:"JWT_ISSUER,      default=express-auth-api"`
	Audience   string        `env:"JWT_AUDIENCE,    default=express-auth-client"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL,  default=168h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL, default=720h"`
}

type IdentityConfig struct {
	Provider string `env:"IDENTITY_PROVIDER, default=gotrue"`
	// GoTrue (Supabase Auth).
	URL    string `env:"IDENTITY_URL"`
	APIKey string `env:"IDENTITY_API_KEY"`
	// RedirectURL is where the browser lands after Google consent.
	RedirectURL string `env:"OAUTH_REDIRECT_URL"`
	// Local provider.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=auth.db"`
}

type RedisConfig struct {
	// Addr enables the shared rate-limit store. Empty keeps counters in memory.
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type RateLimitConfig struct {
	Window time.Duration `env:"RATE_LIMIT_WINDOW, default=15m"`
	Global int64         `env:"RATE_LIMIT_MAX,      default=100"`
	Auth   int64         `env:"AUTH_RATE_LIMIT_MAX, default=20"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type TelemetryConfig struct {
	// Endpoint enables OTLP/HTTP trace export, e.g. localhost:4318.
	Endpoint    string  `env:"OTEL_EXPORTER_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_INSECURE, default=true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME,      default=on-time-auth"`
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO,      default=1"`
}

// IsProduction reports whether internal error detail must be hidden.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMongo, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Identity.Provider {
	case ProviderGoTrue:
		if c.Identity.URL == "" || c.Identity.APIKey == "" {
			return fmt.Errorf("config: IDENTITY_URL and IDENTITY_API_KEY are required for the gotrue provider")
		}
	case ProviderLocal:
	default:
		return fmt.Errorf("config: unknown IDENTITY_PROVIDER %q", c.Identity.Provider)
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyNets parses TrustedProxies. A bare IP is a single-host range.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
