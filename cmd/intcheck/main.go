package main

import (
	"os"

	"github.com/psantana5/intcheck/cmd/intcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
