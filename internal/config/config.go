package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppPort         string        `env:"APP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	MySQLHost   string `env:"MYSQL_HOST" envDefault:"mysql"`
	MySQLPort   string `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLDB     string `env:"MYSQL_DB" envDefault:"credential_approval"`
	MySQLUser   string `env:"MYSQL_USER" envDefault:"approval"`
	MySQLPass   string `env:"MYSQL_PASS" envDefault:"approval"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASS"`

	IdempTTLSecs int `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`

	PolicyMinTimeout uint64 `env:"POLICY_MIN_TIMEOUT_SECONDS" envDefault:"3600"`
	PolicyMaxTimeout uint64 `env:"POLICY_MAX_TIMEOUT_SECONDS" envDefault:"2592000"`

	ExpirySweepSpec   string  `env:"EXPIRY_SWEEP_SPEC" envDefault:"@every 1m"`
	VoteRatePerSecond float64 `env:"VOTE_RATE_PER_SECOND" envDefault:"10"`
	VoteRateBurst     int     `env:"VOTE_RATE_BURST" envDefault:"20"`

	EventChannel string `env:"EVENT_CHANNEL" envDefault:"workflow.events"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"`
	TraceEnabled bool   `env:"TRACE_ENABLED" envDefault:"false"`

	// BootstrapGrants seeds the permission store, e.g. "alice:manage_policy,bob:submit_request".
	BootstrapGrants []string `env:"BOOTSTRAP_GRANTS" envSeparator:","`
}

// Load parses the environment; a .env file, if any, must already be loaded.
func Load() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure ports are valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := net.LookupPort("tcp", c.AppPort); err != nil {
		return fmt.Errorf("invalid APP_PORT %q: %w", c.AppPort, err)
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be positive, got %d", c.IdempTTLSecs)
	}
	if c.PolicyMinTimeout == 0 || c.PolicyMinTimeout > c.PolicyMaxTimeout {
		return fmt.Errorf("policy timeout bounds [%d, %d] are invalid", c.PolicyMinTimeout, c.PolicyMaxTimeout)
	}
	if c.VoteRatePerSecond <= 0 || c.VoteRateBurst < 1 {
		return errors.New("VOTE_RATE_PER_SECOND and VOTE_RATE_BURST must be positive")
	}
	if _, err := c.Grants(); err != nil {
		return err
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME; loc=UTC keeps deadlines in UTC
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// SweepEnabled is false when EXPIRY_SWEEP_SPEC is "off" or blank.
func (c *Config) SweepEnabled() bool {
	s := strings.TrimSpace(c.ExpirySweepSpec)
	return s != "" && !strings.EqualFold(s, "off")
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

// Grant is one "actor:capability" pair from BOOTSTRAP_GRANTS.
type Grant struct {
	Actor      string
	Capability string
}

func (c *Config) Grants() ([]Grant, error) {
	out := make([]Grant, 0, len(c.BootstrapGrants))
	for _, raw := range c.BootstrapGrants {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		actor, capability, ok := strings.Cut(raw, ":")
		actor, capability = strings.TrimSpace(actor), strings.TrimSpace(capability)
		if !ok || actor == "" || capability == "" {
			return nil, fmt.Errorf("invalid BOOTSTRAP_GRANTS entry %q: want actor:capability", raw)
		}
		out = append(out, Grant{Actor: actor, Capability: capability})
	}
	return out, nil
}
