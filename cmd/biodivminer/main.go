package main

import (
	"log"
	"os"

	"github.com/verdant-labs/biodivminer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
