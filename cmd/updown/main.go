package main

import (
	"os"

	"github.com/rustyeddy/updown/cmd/updown/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
