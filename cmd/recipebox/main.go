// Package main boots the recipebox command line and HTTP server.
package main

import (
	"os"

	"github.com/fairyhunter13/recipe-box-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
