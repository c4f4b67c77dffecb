package main

import (
	"os"

	"github.com/arvonlabs/stepforge/cmd/stepforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
