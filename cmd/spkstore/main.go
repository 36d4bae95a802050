package main

import (
	"os"

	"spkstore/cmd/spkstore/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
