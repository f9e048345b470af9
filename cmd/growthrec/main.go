package main

import (
	"os"

	"github.com/ws1993/Baby-Growth-Record/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
