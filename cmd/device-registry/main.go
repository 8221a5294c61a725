// Package main is the entry point for the device registry server.
package main

import (
	"log/slog"
	"os"

	"github.com/otahub/device-registry/cmd/device-registry/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
