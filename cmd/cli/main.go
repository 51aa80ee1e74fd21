// Package main is the entry point for the kitchenctl CLI.
// The CLI is the operator terminal tool for the kitchenline scheduler API.
package main

import (
	"kitchenline/cmd/cli/cmd"
	"os"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
