// Package config loads the service configuration with koanf.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	auth "github.com/goliatone/go-authgate"
)

// SigningKeyEnv overrides signing_key so the secret can stay out of files.
const SigningKeyEnv = "AUTHGATE_SIGNING_KEY"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	SigningKey string       `koanf:"signing_key"`
	Issuer     string       `koanf:"issuer"`
	HTTP       HTTPConfig   `koanf:"http"`
	Store      StoreConfig  `koanf:"store"`
	Events     EventsConfig `koanf:"events"`
	Log        LogConfig    `koanf:"log"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type StoreConfig struct {
	Driver  string        `koanf:"driver"`
	DSN     string        `koanf:"dsn"`
	Timeout time.Duration `koanf:"timeout"`
	Retries uint64        `koanf:"retries"`
}

type EventsConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Subject string        `koanf:"subject"`
	Timeout time.Duration `koanf:"timeout"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Default returns the configuration used when nothing overrides it. The
// signing key has no default on purpose.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":5001"},
		Store: StoreConfig{
			Driver:  DriverSQLite,
			DSN:     "file:authgate.db?cache=shared",
			Timeout: auth.DefaultStoreTimeout,
			Retries: auth.DefaultStoreRetries,
		},
		Events: EventsConfig{
			URL:     "nats://127.0.0.1:4222",
			Subject: "auth-events",
			Timeout: auth.DefaultPublishTimeout,
		},
		Log: LogConfig{Format: "json", Level: "info"},
	}
}

// RegisterFlags declares the flags Load understands on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("signing-key", "", "HS256 signing secret (prefer "+SigningKeyEnv+")")
	fs.String("issuer", "", "token issuer claim")
	fs.String("http.addr", d.HTTP.Addr, "HTTP listen address")
	fs.String("store.driver", d.Store.Driver, "identity store driver: sqlite or postgres")
	fs.String("store.dsn", d.Store.DSN, "identity store DSN")
	fs.Duration("store.timeout", d.Store.Timeout, "identity store call timeout")
	fs.Uint64("store.retries", d.Store.Retries, "identity store retries on transient errors")
	fs.Bool("events.enabled", d.Events.Enabled, "publish audit events to NATS")
	fs.String("events.url", d.Events.URL, "NATS server URL")
	fs.String("events.subject", d.Events.Subject, "NATS subject for audit events")
	fs.Duration("events.timeout", d.Events.Timeout, "audit publish timeout")
	fs.String("log.format", d.Log.Format, "log format: json or text")
	fs.String("log.level", d.Log.Level, "log level")
}

// Load resolves defaults, then the YAML file at path (optional), then
// flags explicitly set on fs, then SigningKeyEnv.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_FILE").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_FLAGS").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.In("config").Code("CONFIG_DECODE").Wrap(err)
	}

	if v := os.Getenv(SigningKeyEnv); v != "" {
		cfg.SigningKey = v
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot start with. A missing
// signing key is reported as auth.ErrConfiguration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SigningKey) == "" {
		return auth.ErrConfiguration.WithCause(errors.New("signing_key is required"))
	}

	if err := validation.ValidateStruct(&c.Store,
		validation.Field(&c.Store.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.Store.DSN, validation.Required),
	); err != nil {
		return auth.ErrConfiguration.WithCause(err)
	}

	if c.Events.Enabled {
		if err := validation.ValidateStruct(&c.Events,
			validation.Field(&c.Events.URL, validation.Required),
			validation.Field(&c.Events.Subject, validation.Required),
		); err != nil {
			return auth.ErrConfiguration.WithCause(err)
		}
	}

	return nil
}
