package infra

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"trustgate"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"trustgate"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"trustgate"`

	// JWT
	JWTSecret      string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTUserExpiry  string `env:"JWT_USER_EXPIRY" envDefault:"24h"`
	JWTAdminExpiry string `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3200"`

	// Kafka audit sink
	KafkaBrokers    string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled    bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaAuditTopic string `env:"KAFKA_AUDIT_TOPIC" envDefault:"trustgate.audit"`

	// Context classification
	CorporateCIDRs string `env:"CORPORATE_CIDRS" envDefault:"10.0.0.0/8"`
	VPNCIDRs       string `env:"VPN_CIDRS" envDefault:"172.16.0.0/12"`

	// Step-up verification: "static" accepts any 6-character code (dev only),
	// "totp" validates RFC 6238 codes against the user's enrolled secret.
	MFAMode string `env:"MFA_MODE" envDefault:"totp"`

	// MFA verification rate limit (per scan, sliding window).
	MFARateLimit  int    `env:"MFA_RATE_LIMIT" envDefault:"10"`
	MFARateWindow string `env:"MFA_RATE_WINDOW" envDefault:"1m"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.MFAMode != "static" && c.MFAMode != "totp" {
		return fmt.Errorf("MFA_MODE must be static or totp, got %q", c.MFAMode)
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	if c.MFAMode == "static" {
		return fmt.Errorf("MFA_MODE=static accepts any 6-character code; set MFA_MODE=totp or ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// CorporateCIDRList splits the configured corporate CIDR ranges.
func (c *Config) CorporateCIDRList() []string {
	return splitList(c.CorporateCIDRs)
}

// VPNCIDRList splits the configured VPN CIDR ranges.
func (c *Config) VPNCIDRList() []string {
	return splitList(c.VPNCIDRs)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
