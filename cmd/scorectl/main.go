package main

import (
	"os"

	"github.com/nepcscore/services/live-scoring/cmd/scorectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
