// Package main is the leapcharts entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/leapcharts/internal/cli"
	_ "github.com/leapstack-labs/leapcharts/pkg/adapters/duckdb"
)

func main() {
	os.Exit(cli.Execute())
}
