package config

import (
	"time"

	"github.com/yndnr/minisocial-go/internal/infra/confloader"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// DefaultServer is the API address used when nothing is configured.
const DefaultServer = "http://localhost:8000"

// Config is the configuration for minisocial-cli.
type Config struct {
	// Server is used when no profile is selected.
	Server  string        `koanf:"server" yaml:"server"`
	Output  string        `koanf:"output" yaml:"output"` // table, json, yaml
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`

	// Profile selects an entry of Profiles. Each profile has its own session.
	Profile  string                   `koanf:"profile" yaml:"profile,omitempty"`
	Profiles map[string]ProfileConfig `koanf:"profiles" yaml:"profiles,omitempty"`

	Store StoreConfig `koanf:"store" yaml:"store"`
	HTTP  HTTPConfig  `koanf:"http" yaml:"http"`
	Auth  AuthConfig  `koanf:"auth" yaml:"auth"`
	Log   LogConfig   `koanf:"log" yaml:"log"`

	sources map[string]confloader.Source
}

// ProfileConfig stores a saved API server.
type ProfileConfig struct {
	Server string `koanf:"server" yaml:"server"`
}

// StoreConfig selects where session tokens are kept.
type StoreConfig struct {
	Backend string `koanf:"backend" yaml:"backend"` // file, badger, memory
	Dir     string `koanf:"dir" yaml:"dir"`
	// Encrypt seals tokens at rest with a key from KeyFile or Passphrase.
	Encrypt    bool   `koanf:"encrypt" yaml:"encrypt"`
	KeyFile    string `koanf:"key_file" yaml:"key_file,omitempty"`
	Passphrase string `koanf:"passphrase" yaml:"-"`
}

// HTTPConfig tunes the API client.
type HTTPConfig struct {
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst"`
	UserAgent string  `koanf:"user_agent" yaml:"user_agent,omitempty"`

	// CAFile adds trusted roots for a server behind a private CA.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty"`
	// CertFile and KeyFile present a client certificate to gateways
	// that require mutual TLS.
	CertFile string `koanf:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile  string `koanf:"key_file" yaml:"key_file,omitempty"`
	Insecure bool   `koanf:"insecure" yaml:"insecure,omitempty"`
}

// AuthConfig controls session handling.
type AuthConfig struct {
	// LogoutOnUnauthorized clears the stored session when an authorized
	// request is rejected with 401.
	LogoutOnUnauthorized bool `koanf:"logout_on_unauthorized" yaml:"logout_on_unauthorized"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// Default returns the default CLI configuration.
func Default() *Config {
	return &Config{
		Server:   DefaultServer,
		Output:   OutputTable,
		Timeout:  30 * time.Second,
		Profiles: make(map[string]ProfileConfig),
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     DefaultDir(),
		},
		HTTP: HTTPConfig{
			Burst: 1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ActiveServer returns the server of the selected profile, or Server.
func (c *Config) ActiveServer() string {
	if p, ok := c.Profiles[c.Profile]; ok && p.Server != "" {
		return p.Server
	}
	return c.Server
}

// Namespace is the token store namespace of the selected profile.
func (c *Config) Namespace() string {
	if c.Profile == "" {
		return "default"
	}
	return c.Profile
}

// Source reports which layer set key: default, file, dotenv, env or flag.
func (c *Config) Source(key string) confloader.Source {
	if src, ok := c.sources[key]; ok {
		return src
	}
	return confloader.SourceDefault
}
