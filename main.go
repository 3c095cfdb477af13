package main

import (
	"os"

	"github.com/knamoah/kasabot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
