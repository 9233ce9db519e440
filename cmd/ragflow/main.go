// ragflow CLI - run, validate and serve retrieval-augmented workflows.
package main

import (
	"os"

	"github.com/randalmurphal/ragflow/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
