package main

import (
	"os"

	"github.com/splitcheck/splitcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
