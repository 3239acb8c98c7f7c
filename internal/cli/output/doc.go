// Package output renders command results for minisocial-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: table rendering with wide mode support
//   - yaml.go: YAML output; JSON lives next to the factory
//   - printer.go: result, message and error printing for commands
//   - spinner.go: progress animation while a request is in flight
package output
