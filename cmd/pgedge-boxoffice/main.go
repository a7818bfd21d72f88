// Package main is the entry point for pgedge-boxoffice.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-boxoffice/internal/cli"

	// Register entities
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/collection"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/movie"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/performance"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/person"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/videostats"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
