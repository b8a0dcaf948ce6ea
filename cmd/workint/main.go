package main

import (
	"os"

	"github.com/roach88/workint/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
