package main

import (
	"os"

	"github.com/Nazarious-ucu/weather-threads/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
