// Package confloader loads layered configuration with koanf and watches
// files for changes with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Values loaded with LoadMap (command-line flags)
//  2. Environment variables with the configured prefix
//  3. .env files (same variable names, without touching the process env)
//  4. The YAML configuration file
//  5. Defaults, loaded first with LoadMap or struct values
//
// In variable names a double underscore separates sections and a single
// underscore stays part of the key: MINISOCIAL_AUTH__LOGOUT_ON_UNAUTHORIZED
// is auth.logout_on_unauthorized.
package confloader
