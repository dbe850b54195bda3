package main

import (
	"os"

	"chatterbox/cmd/chatterbox/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
