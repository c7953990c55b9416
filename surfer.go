package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	cli "github.com/neboloop/surfer/cmd/surfer"
	"github.com/neboloop/surfer/internal/config"
	"github.com/neboloop/surfer/internal/defaults"
)

//go:embed etc/surfer.yaml
var embeddedConfig []byte

var version = "dev"

func main() {
	// Load .env from the working directory, then the data directory; neither
	// overrides variables that are already set.
	_ = godotenv.Load()
	if dataDir, err := defaults.EnsureDataDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: data directory unavailable: %v\n", err)
	} else {
		_ = godotenv.Load(filepath.Join(dataDir, ".env"))
	}

	// Load embedded config (defaults)
	c, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	cli.Version = version
	if err := cli.SetupRootCmd(&c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
