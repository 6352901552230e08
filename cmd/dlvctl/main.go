// Package main is the entry point for the dlvctl debugger controller.
package main

import (
	"os"

	"github.com/dshills/dlvctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
