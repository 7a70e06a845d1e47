// Command nikola is the static-site build tool front end.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/follower/nikola/pkg/cli"
)

func main() {
	// Optional .env for NIKOLA_* configuration overrides.
	_ = godotenv.Load()

	os.Exit(cli.Main(os.Args[1:]))
}
