// Package main is the entry point for greenctl, the route planning CLI.
package main

import (
	"os"

	"greenroute/cmd/greenctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
