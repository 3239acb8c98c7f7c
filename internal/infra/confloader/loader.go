package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "MINISOCIAL_"

// sectionSeparator splits sections in environment variable names.
const sectionSeparator = "__"

// Source names the layer a setting came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceDotEnv  Source = "dotenv"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// Loader loads configuration from layered sources and remembers which
// layer set each key.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	dotEnv    []string
	sources   map[string]Source
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path. A missing file is not
// an error for Load.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithDotEnv adds .env files to read. Missing files are skipped.
func WithDotEnv(paths ...string) Option {
	return func(l *Loader) {
		l.dotEnv = append(l.dotEnv, paths...)
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		sources:   make(map[string]Source),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads the file, .env files and environment on top of whatever was
// already loaded, then unmarshals into target.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	for _, path := range l.dotEnv {
		if err := l.LoadDotEnv(path); err != nil {
			return err
		}
	}

	if err := l.LoadEnv(); err != nil {
		return err
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.merge(file.Provider(path), yaml.Parser(), SourceFile); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads prefixed environment variables.
// Example: MINISOCIAL_HTTP__RATE_LIMIT=5 sets http.rate_limit.
func (l *Loader) LoadEnv() error {
	if err := l.merge(env.Provider(l.envPrefix, ".", l.envKey), nil, SourceEnv); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// LoadDotEnv loads prefixed variables from a .env file. The process
// environment is left untouched.
func (l *Loader) LoadDotEnv(path string) error {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	data := map[string]any{}
	for name, value := range vars {
		if strings.HasPrefix(name, l.envPrefix) {
			data[l.envKey(name)] = value
		}
	}
	return l.LoadMap(data, SourceDotEnv)
}

// LoadFlags loads command-line values given as dotted keys.
func (l *Loader) LoadFlags(data map[string]any) error {
	return l.LoadMap(data, SourceFlag)
}

// LoadMap loads dotted keys attributed to src.
func (l *Loader) LoadMap(data map[string]any, src Source) error {
	if err := l.merge(confmap.Provider(data, "."), nil, src); err != nil {
		return fmt.Errorf("load %s values: %w", src, err)
	}
	return nil
}

// merge loads one layer on its own so its keys can be attributed, then
// merges it over the layers below.
func (l *Loader) merge(p koanf.Provider, pa koanf.Parser, src Source) error {
	layer := koanf.New(".")
	if err := layer.Load(p, pa); err != nil {
		return err
	}
	for _, key := range layer.Keys() {
		l.sources[key] = src
	}
	return l.k.Merge(layer)
}

// envKey maps MINISOCIAL_STORE__KEY_FILE to store.key_file.
func (l *Loader) envKey(name string) string {
	name = strings.TrimPrefix(name, l.envPrefix)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, sectionSeparator, ".")
}

// Unmarshal unmarshals the loaded configuration into the target struct
// using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Source reports the layer that last set key, or SourceDefault.
func (l *Loader) Source(key string) Source {
	if src, ok := l.sources[key]; ok {
		return src
	}
	return SourceDefault
}

// Sources returns the layer of every key set by some layer.
func (l *Loader) Sources() map[string]Source {
	out := make(map[string]Source, len(l.sources))
	for k, v := range l.sources {
		out[k] = v
	}
	return out
}
