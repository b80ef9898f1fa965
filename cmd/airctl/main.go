// Package main provides airctl, the AirAlert operator command line.
package main

import (
	"os"

	"github.com/airalert/airalert/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
