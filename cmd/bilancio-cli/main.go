package main

import (
	"os"

	"bilancio/cmd/bilancio-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
