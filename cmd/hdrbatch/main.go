// Command hdrbatch is the CLI entrypoint for the HDR batch converter.
//
// It loads an optional .env file, then hands off to the root command, which
// parses flags, validates the target directory, and either runs the
// converter check (--check) or converts every .tif file in the directory.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/backmassage/hdrbatch/internal/cli"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is normal.
	_ = godotenv.Load()
	return cli.Execute(cli.NewRootCmd(version, commit))
}
