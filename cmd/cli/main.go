package main

import (
	"os"

	"github.com/decisionhub/decisionhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
