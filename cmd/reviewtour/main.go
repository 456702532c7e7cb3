package main

import (
	"os"

	"github.com/tobiasbaum/reviewtool-sub002/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
