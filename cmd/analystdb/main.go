// Package main is the entry point of the analystdb command.
package main

import (
	"os"

	"github.com/nao1215/analystdb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
