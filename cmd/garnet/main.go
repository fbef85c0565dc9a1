package main

import (
	"fmt"
	"os"

	"github.com/nightconcept/garnet/internal/cli/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "v0.1.0"

func main() {
	if err := app.New(version).Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
