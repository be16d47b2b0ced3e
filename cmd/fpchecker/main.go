// Package main is the entry point for the fpchecker CLI.
package main

import (
	"os"

	"github.com/ganeshutah/FPChecker/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
