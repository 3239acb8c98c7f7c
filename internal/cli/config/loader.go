package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/minisocial-go/internal/infra/confloader"
)

// ErrUnknownKey is returned by Set for keys the CLI does not know.
var ErrUnknownKey = errors.New("config: unknown key")

// Keys lists the settable keys. Profiles are set as profiles.<name>.server.
var Keys = []string{
	"server",
	"output",
	"timeout",
	"profile",
	"store.backend",
	"store.dir",
	"store.encrypt",
	"store.key_file",
	"http.rate_limit",
	"http.burst",
	"http.ca_file",
	"http.cert_file",
	"http.key_file",
	"http.insecure",
	"http.user_agent",
	"auth.logout_on_unauthorized",
	"log.level",
	"log.format",
}

var profileKeyPattern = regexp.MustCompile(`^profiles\.[A-Za-z0-9][A-Za-z0-9_-]{0,31}\.server$`)

// DefaultDir returns ~/.minisocial.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".minisocial"
	}
	return filepath.Join(homeDir, ".minisocial")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "cli.yaml")
}

// Load loads CLI configuration. A missing file yields the defaults.
// flags holds dotted keys set on the command line and wins over every
// other source.
func Load(path string, flags map[string]any) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDotEnv(".env"),
	)

	cfg := Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	return Merge(cfg, loader, flags)
}

// Merge applies flags on top of cfg using the loader that produced it.
func Merge(cfg *Config, loader *confloader.Loader, flags map[string]any) (*Config, error) {
	defer func() { cfg.sources = loader.Sources() }()
	if len(flags) == 0 {
		return cfg, nil
	}
	if err := loader.LoadFlags(flags); err != nil {
		return nil, err
	}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("apply flags: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if err := validServer(c.Server); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		errs = append(errs, fmt.Errorf("output: unsupported format %q", c.Output))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout: must be positive, got %s", c.Timeout))
	}
	if c.Profile != "" {
		if _, ok := c.Profiles[c.Profile]; !ok {
			errs = append(errs, fmt.Errorf("profile: %q is not defined", c.Profile))
		}
	}
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validServer(c.Profiles[name].Server); err != nil {
			errs = append(errs, fmt.Errorf("profiles.%s.server: %w", name, err))
		}
	}

	switch c.Store.Backend {
	case BackendFile, BackendBadger:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir: required for persistent backends"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unsupported backend %q", c.Store.Backend))
	}

	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("http.rate_limit: must not be negative"))
	}
	if c.HTTP.Burst < 0 {
		errs = append(errs, errors.New("http.burst: must not be negative"))
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		errs = append(errs, errors.New("http.cert_file, http.key_file: must be set together"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unsupported level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func validServer(s string) error {
	if s == "" {
		return errors.New("required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

// Set changes one key in the file at path, leaving other keys as written.
// The result must still validate. value is parsed as a YAML scalar.
func Set(path, key, value string) (*Config, error) {
	if !isKnownKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	var scalar any
	if err := yaml.Unmarshal([]byte(value), &scalar); err != nil || scalar == nil {
		scalar = value
	}
	return edit(path, key, func(doc map[string]any) {
		setPath(doc, strings.Split(key, "."), scalar)
	})
}

// RemoveProfile deletes a saved profile. If it was selected, no profile
// stays selected.
func RemoveProfile(path, name string) (*Config, error) {
	return edit(path, "profiles."+name, func(doc map[string]any) {
		if profiles, ok := doc["profiles"].(map[string]any); ok {
			delete(profiles, name)
			if len(profiles) == 0 {
				delete(doc, "profiles")
			}
		}
		if doc["profile"] == name {
			delete(doc, "profile")
		}
	})
}

// edit applies change to the YAML document at path and writes it back if
// the result still validates.
func edit(path, key string, change func(doc map[string]any)) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	doc := map[string]any{}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	change(doc)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := writeFile(path, data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return profileKeyPattern.MatchString(key)
}

func setPath(doc map[string]any, parts []string, value any) {
	for _, p := range parts[:len(parts)-1] {
		next, ok := doc[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[p] = next
		}
		doc = next
	}
	doc[parts[len(parts)-1]] = value
}

func writeFile(path string, data []byte) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cli-*.yaml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
