package main

import (
	"os"

	"agatypes/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
