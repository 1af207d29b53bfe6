package main

import (
	"context"
	"os"

	"github.com/tphakala/camrelay/cmd"
	"github.com/tphakala/camrelay/internal/conf"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	settings := &conf.Settings{
		Version:   version,
		BuildDate: buildDate,
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
