package main

import (
	"os"

	"github.com/harun/recap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
