package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/lazypower/mindgraph/internal/cli"
)

func main() {
	// A missing .env is fine; real environment variables win either way.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
