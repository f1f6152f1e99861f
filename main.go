package main

import (
	"os"

	"github.com/docentsh/docent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
