// Package config holds the engine's tunables (spec.md §6) and a small
// functional-options constructor in the style this corpus favors for
// library configuration (e.g. freightliner/pkg/config's typed sub-structs),
// plus an optional .env loader for CLI-driven defaults.
package config

import (
	"crypto/tls"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/watt-toolkit/shockwave-engine/transport"
)

// Config holds every tunable named in spec.md §6. Zero values match the
// spec's stated defaults exactly (0 = infinite/disabled/unlimited, except
// ShutdownRWTimeout and MaxBodySize which default to non-zero via New).
type Config struct {
	// ConnectTimeout bounds dialing a new socket. 0 = infinite.
	ConnectTimeout time.Duration
	// ReadWriteTimeout bounds the active (busy) deadline enforced by the
	// sweeper. 0 = infinite (the busy walk is skipped entirely).
	ReadWriteTimeout time.Duration
	// ShutdownRWTimeout replaces ReadWriteTimeout once Stop begins, to
	// guarantee termination even against a peer that stops responding.
	ShutdownRWTimeout time.Duration
	// KeepAliveTimeout bounds the idle deadline. 0 = keep-alive disabled
	// (every connection closes after its response).
	KeepAliveTimeout time.Duration
	// MaxKeepAliveRequests caps requests served per connection. 0 =
	// unlimited.
	MaxKeepAliveRequests int
	// MaxBodySize bounds a response body the wire layer will frame via
	// Content-Length/chunked before treating it as a protocol error. 0
	// means the default below is applied.
	MaxBodySize int64

	// SocketSettings are opaque TCP parameters forwarded to the Dialer.
	SocketSettings transport.Settings

	// TLSConfig, if non-nil, permits HTTPS requests. A nil TLSConfig makes
	// every HTTPS request fail immediately with engineerr.ErrMissingTLSContext.
	TLSConfig *tls.Config
}

// DefaultMaxBodySize mirrors spec.md §6's "0 means INT32_MAX" default.
const DefaultMaxBodySize = int64(1)<<31 - 1

// DefaultShutdownRWTimeout is spec.md §6's stated default (3000ms).
const DefaultShutdownRWTimeout = 3 * time.Second

// Option configures a Config during New.
type Option func(*Config)

// New builds a Config with spec.md §6's defaults applied, then applies
// opts in order.
func New(opts ...Option) Config {
	cfg := Config{
		ShutdownRWTimeout: DefaultShutdownRWTimeout,
		MaxBodySize:       DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithConnectTimeout sets ConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.ConnectTimeout = d }
}

// WithReadWriteTimeout sets ReadWriteTimeout.
func WithReadWriteTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadWriteTimeout = d }
}

// WithShutdownRWTimeout overrides the shutdown-drain active deadline.
func WithShutdownRWTimeout(d time.Duration) Option {
	return func(c *Config) { c.ShutdownRWTimeout = d }
}

// WithKeepAliveTimeout sets KeepAliveTimeout. 0 disables keep-alive.
func WithKeepAliveTimeout(d time.Duration) Option {
	return func(c *Config) { c.KeepAliveTimeout = d }
}

// WithMaxKeepAliveRequests caps requests served per connection.
func WithMaxKeepAliveRequests(n int) Option {
	return func(c *Config) { c.MaxKeepAliveRequests = n }
}

// WithMaxBodySize overrides the default max response body size.
func WithMaxBodySize(n int64) Option {
	return func(c *Config) { c.MaxBodySize = n }
}

// WithSocketSettings sets the TCP parameters forwarded to the Dialer.
func WithSocketSettings(s transport.Settings) Option {
	return func(c *Config) { c.SocketSettings = s }
}

// WithTLSConfig enables HTTPS requests using cfg.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Config) { c.TLSConfig = cfg }
}

// LoadDotEnv loads key=value pairs from path into the process environment
// if the file exists, using godotenv — the corpus's directly-required
// dotenv library (services/gateway/go.mod). cmd/shockwave-bench calls it
// after its flags are parsed, and none of its flags read the environment,
// so the loaded values do not change flag defaults. A missing file is not
// an error; any other read/parse failure is returned.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
