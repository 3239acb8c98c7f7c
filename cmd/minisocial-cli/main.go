// Package main provides the entry point for minisocial-cli.
package main

import (
	"context"
	"os"

	"github.com/yndnr/minisocial-go/internal/cli/command"
)

func main() {
	os.Exit(command.Execute(context.Background(), os.Args))
}
