// Package main provides the entry point for the peidocker CLI.
package main

import (
	"os"

	"github.com/igamenovoer/peidocker/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
