package main

import (
	"os"

	"github.com/mantradev/mantra/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
