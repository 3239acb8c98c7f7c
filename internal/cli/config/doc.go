// Package config provides the minisocial-cli configuration.
//
//   - spec.go: Config struct (~/.minisocial/cli.yaml)
//   - loader.go: loading, merging, validation and saving
//
// Sources are layered by confloader: defaults, the YAML file, .env,
// MINISOCIAL_* environment variables and finally command-line flags.
package config
