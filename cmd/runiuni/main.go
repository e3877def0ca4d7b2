// Package main is the entry point for the runiuni CLI.
package main

import (
	"os"

	"github.com/SebbyC/runiuni-agent-pipeline/cmd/runiuni/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
