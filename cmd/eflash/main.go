package main

import (
	"os"

	"github.com/eflash24/eflash-store/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
